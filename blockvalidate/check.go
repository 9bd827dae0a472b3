// Package blockvalidate implements block-level structural and
// contextual checks, connects/disconnects blocks against a
// transaction index, and holds orphan blocks awaiting their parent.
package blockvalidate

import (
	"bytes"
	"math/big"

	"github.com/btcsuite/btcd/txscript"

	"github.com/blkchain/xcoin/chainindex"
	"github.com/blkchain/xcoin/consensus"
	"github.com/blkchain/xcoin/txvalidate"
	"github.com/blkchain/xcoin/xcoin"
)

// CheckBlock runs the context-free checks: non-empty tx list, size
// bounds, valid proof-of-work, timestamp not too far in the future,
// tx[0] (and only tx[0]) is coinbase, every tx passes
// CheckTransaction, no duplicate tx hashes, sigop cap, merkle root
// match.
func CheckBlock(b *xcoin.Block, now int64) error {
	if len(b.Txs) == 0 {
		return consensus.New(consensus.Malformed, "block has no transactions")
	}
	if b.Size() > xcoin.MaxBlockSize {
		return consensus.New(consensus.Malformed, "block size %d exceeds max", b.Size())
	}

	if !checkProofOfWork(b.BlockHeader) {
		return consensus.New(consensus.Invalid, "block fails proof-of-work check").WithScore(100)
	}

	if int64(b.BlockHeader.Time) > now+int64(xcoin.MaxFutureBlockTime.Seconds()) {
		return consensus.New(consensus.Invalid, "block timestamp too far in the future")
	}

	if !b.Txs[0].IsCoinBase() {
		return consensus.New(consensus.Invalid, "first transaction is not coinbase").WithScore(100)
	}

	seen := make(map[xcoin.Uint256]bool, len(b.Txs))
	sigOps := 0
	for i, tx := range b.Txs {
		if i > 0 && tx.IsCoinBase() {
			return consensus.New(consensus.Invalid, "multiple coinbase transactions").WithScore(100)
		}
		if err := txvalidate.CheckTransaction(tx); err != nil {
			return err
		}
		hash := tx.Hash()
		if seen[hash] {
			return consensus.New(consensus.Invalid, "duplicate transaction %v in block", hash).WithScore(100)
		}
		seen[hash] = true
		sigOps += tx.LegacySigOpCount()
	}
	if sigOps > xcoin.MaxBlockSigOps {
		return consensus.New(consensus.Invalid, "block sigop count %d exceeds max", sigOps).WithScore(100)
	}

	if b.MerkleRoot() != b.BlockHeader.HashMerkleRoot {
		return consensus.New(consensus.Invalid, "merkle root mismatch").WithScore(100)
	}

	return nil
}

// checkProofOfWork verifies the block's hash satisfies its own Bits
// target: hash, interpreted as a big-endian 256-bit integer, must be
// <= the expanded compact target.
func checkProofOfWork(h *xcoin.BlockHeader) bool {
	target := chainindex.CompactToBig(h.Bits)
	if target.Sign() <= 0 {
		return false
	}
	hash := h.Hash()
	hashInt := bigFromLEHash(hash)
	return hashInt.Cmp(target) <= 0
}

// bigFromLEHash interprets a Uint256 (stored little-endian internally)
// as a big-endian byte string for big.Int, matching how Bitcoin-family
// nodes compare a block hash against a compact target.
func bigFromLEHash(h xcoin.Uint256) *big.Int {
	be := make([]byte, 32)
	for i := 0; i < 32; i++ {
		be[i] = h[31-i]
	}
	return new(big.Int).SetBytes(be)
}

// versionMajorityWindow is the number of recent blocks
// IsSuperMajority inspects when deciding whether a version-gated rule
// has reached critical mass, on MainNet.
const versionMajorityWindow = 1000

// versionMajorityWindowTestNet is the same window, on TestNet: the
// ratios below are out of 100 recent blocks there, not 1000.
const versionMajorityWindowTestNet = 100

// rejectV1Required/heightInCoinbaseRequired are the counts, out of
// versionMajorityWindow recent blocks, of version>=2 headers needed
// to respectively start rejecting version<2 blocks and start
// requiring the serialized height prefix in the coinbase scriptSig,
// on MainNet.
const (
	rejectV1Required         = 950
	heightInCoinbaseRequired = 750
)

// Same rules, on TestNet, expressed out of versionMajorityWindowTestNet
// rather than versionMajorityWindow.
const (
	rejectV1RequiredTestNet         = 75
	heightInCoinbaseRequiredTestNet = 51
)

// checkDifficultyBits enforces the retarget rule for header, atop
// parent. On MainNet this is always NextWorkRequired. On TestNet, the
// minimum-difficulty relaxation applies first: a block arriving more
// than 2*target_spacing after parent may carry powLimit directly
// instead of the computed retarget. When the relaxation does not
// apply, the retarget is still computed from parent's *effective*
// bits (TestnetEffectiveBits), stepping back through any run of
// relaxed ancestors, per the rule that subsequent retargets ignore
// the one-off minimum-difficulty exceptions.
func checkDifficultyBits(cs *chainindex.ChainState, parent *chainindex.Node, header *xcoin.BlockHeader, network xcoin.Network, powLimit uint32) error {
	if network == xcoin.TestNet {
		if relaxed, ok := chainindex.TestnetMinDifficulty(parent, header.Time, powLimit); ok {
			if header.Bits != relaxed {
				return consensus.New(consensus.Invalid, "testnet min-difficulty block carries wrong bits: got 0x%x want 0x%x", header.Bits, relaxed).WithScore(100)
			}
			return nil
		}

		effective := chainindex.TestnetEffectiveBits(cs, cs.Node, parent, powLimit)
		if effective != parent.Header.Bits {
			stepped := *parent
			stepped.Header.Bits = effective
			parent = &stepped
		}
	}

	wantBits := chainindex.NextWorkRequired(cs, parent, powLimit, network)
	if header.Bits != wantBits {
		return consensus.New(consensus.Invalid, "incorrect difficulty bits: got 0x%x want 0x%x", header.Bits, wantBits).WithScore(100)
	}
	return nil
}

// AcceptBlock runs the contextual checks the spec assigns to
// accept_block: known parent (handled by the caller via ChainState
// lookup before this is invoked), correct retarget bits, timestamp
// past the median of the previous 11, checkpoint consistency, and the
// historical supermajority version rules. cs supplies ancestor
// lookups; network selects which of the two version-majority
// thresholds apply.
func AcceptBlock(cs *chainindex.ChainState, parent *chainindex.Node, b *xcoin.Block, network xcoin.Network, powLimit uint32, checkpoints map[uint32]xcoin.Uint256) error {
	header := b.BlockHeader

	if err := checkDifficultyBits(cs, parent, header, network, powLimit); err != nil {
		return err
	}

	parentHandle, _ := cs.Lookup(parent.Hash)
	median := cs.MedianTimePast(parentHandle, 11)
	if header.Time <= median {
		return consensus.New(consensus.Invalid, "block timestamp not past median of last 11 blocks").WithScore(100)
	}

	height := parent.Height + 1

	for _, tx := range b.Txs {
		if !txvalidate.IsFinal(tx, height, int64(header.Time)) {
			return consensus.New(consensus.Invalid, "block contains a non-final transaction").WithScore(10)
		}
	}

	if want, ok := checkpoints[height]; ok {
		if header.Hash() != want {
			return consensus.New(consensus.Invalid, "checkpoint mismatch at height %d", height).WithScore(100)
		}
	}

	testNet := network == xcoin.TestNet
	rejectV1 := rejectV1Required
	heightInCoinbase := heightInCoinbaseRequired
	majorityWindow := versionMajorityWindow
	if testNet {
		rejectV1 = rejectV1RequiredTestNet
		heightInCoinbase = heightInCoinbaseRequiredTestNet
		majorityWindow = versionMajorityWindowTestNet
	}

	if header.Version < 2 && cs.IsSuperMajority(2, parentHandle, rejectV1, majorityWindow) {
		return consensus.New(consensus.Invalid, "rejected version=1 block: supermajority has upgraded").WithScore(100)
	}
	if header.Version >= 2 && cs.IsSuperMajority(2, parentHandle, heightInCoinbase, majorityWindow) {
		expect, err := txscript.NewScriptBuilder().AddInt64(int64(height)).Script()
		if err != nil {
			return consensus.New(consensus.Invalid, "building expected coinbase height script: %v", err)
		}
		scriptSig := b.Txs[0].TxIns[0].ScriptSig
		if len(scriptSig) < len(expect) || !bytes.Equal(scriptSig[:len(expect)], expect) {
			return consensus.New(consensus.Invalid, "block height %d missing or mismatched in coinbase scriptSig", height).WithScore(100)
		}
	}

	return nil
}
