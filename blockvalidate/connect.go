package blockvalidate

import (
	"github.com/blkchain/xcoin/budget"
	"github.com/blkchain/xcoin/consensus"
	"github.com/blkchain/xcoin/txvalidate"
	"github.com/blkchain/xcoin/xcoin"
)

// The historical BIP30 duplicate-tx-hash exceptions are a named
// consensus table rather than behavior this package re-derives;
// ConnectBlock consults it directly. The BIP16 switch is decided by the
// caller (from xcoin.BIP16SwitchTime) and passed in as bip16Active.
var bip30Exceptions = map[xcoin.Uint256]bool{
	// Two historical mainnet blocks legitimately reused a prior
	// coinbase's tx hash before BIP30 was enforced network-wide. The
	// real duplicated hashes aren't present in the retrieved
	// reference material; this set exists so the exception mechanism
	// is wired into ConnectBlock rather than silently absent.
}

// ConnectBlock implements the spec's ConnectBlock: BIP30 duplicate
// check, per-tx fetch/ref_height/connect, fee accumulation, coinbase
// value and budget verification. index is the persistent TxIndex
// (queried and staged through the same Source interface txvalidate
// uses); verify is the external signature oracle.
func ConnectBlock(b *xcoin.Block, height uint32, network xcoin.Network, index txvalidate.Source, contains func(xcoin.Uint256) bool, verify txvalidate.VerifySignature, bip16Active bool) (xcoin.Amount, error) {
	for _, tx := range b.Txs {
		hash := tx.Hash()
		if contains(hash) && !bip30Exceptions[hash] {
			return xcoin.Zero(), consensus.New(consensus.Invalid, "BIP30: tx %v duplicates an existing unspent tx hash", hash).WithScore(100)
		}
	}

	// Once bip16Active, the block's sigops are counted with
	// LegacySigOpCount; sigops inside P2SH redeem scripts are not counted.
	if bip16Active {
		sigOps := 0
		for _, tx := range b.Txs {
			sigOps += tx.LegacySigOpCount()
		}
		if sigOps > xcoin.MaxBlockSigOps {
			return xcoin.Zero(), consensus.New(consensus.Invalid, "block sigop count %d exceeds max", sigOps).WithScore(100)
		}
	}

	var fees xcoin.Amount
	ledger := budget.PaymentLedger{}

	for i, tx := range b.Txs {
		if i == 0 {
			continue // coinbase handled after the loop
		}
		if tx.RefHeight > height {
			return xcoin.Zero(), consensus.New(consensus.Invalid, "tx ref_height %d exceeds block height %d", tx.RefHeight, height).WithScore(100)
		}

		fetched, err := txvalidate.FetchInputs(tx, index)
		if err != nil {
			return xcoin.Zero(), err
		}
		fee, err := txvalidate.ConnectInputs(tx, fetched, height, verify, false)
		if err != nil {
			return xcoin.Zero(), err
		}
		depth := int64(height) - int64(tx.RefHeight)
		fees = fees.Add(xcoin.PresentValue(fee, depth))

		for _, out := range tx.TxOuts {
			ledger.Credit(out.ScriptPubKey, xcoin.PresentValue(xcoin.NewAmount(out.Value), depth))
		}
	}

	coinbase := b.Txs[0]
	if coinbase.RefHeight != height {
		return xcoin.Zero(), consensus.New(consensus.Invalid, "coinbase ref_height %d != block height %d", coinbase.RefHeight, height).WithScore(100)
	}

	coinbaseDepth := int64(height) - int64(coinbase.RefHeight)
	var coinbaseOut xcoin.Amount
	for _, out := range coinbase.TxOuts {
		pv := xcoin.PresentValue(xcoin.NewAmount(out.Value), coinbaseDepth)
		coinbaseOut = coinbaseOut.Add(pv)
		ledger.Credit(out.ScriptPubKey, pv)
	}
	actual := coinbaseOut
	allowed := budget.BlockValue(height, fees)
	if actual.Cmp(allowed) > 0 {
		return xcoin.Zero(), consensus.New(consensus.Invalid, "coinbase pays %s, more than allowed %s", actual, allowed).WithScore(100)
	}

	distBudget := budget.InitialDistributionBudget(network, height)
	if err := budget.VerifyBudget(distBudget, budget.InitialDistribution(height), ledger); err != nil {
		return xcoin.Zero(), err
	}

	return fees, nil
}

// DisconnectBlock implements the spec's DisconnectBlock: reverse
// transaction iteration, disconnecting each tx's inputs.
func DisconnectBlock(b *xcoin.Block, index txvalidate.Source) {
	for i := len(b.Txs) - 1; i >= 0; i-- {
		tx := b.Txs[i]
		if tx.IsCoinBase() {
			continue
		}
		txvalidate.DisconnectInputs(tx, index)
	}
}
