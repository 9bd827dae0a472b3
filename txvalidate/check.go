// Package txvalidate implements the context-free and contextual
// checks a transaction must pass before it can enter the mempool or a
// connected block: structural validity, standardness policy, input
// fetch/connect/disconnect against a storage-backed UTXO-equivalent
// index.
package txvalidate

import (
	"github.com/btcsuite/btcd/txscript"

	"github.com/blkchain/xcoin/consensus"
	"github.com/blkchain/xcoin/xcoin"
)

// CheckTransaction runs the context-free structural checks: non-empty
// inputs/outputs (except coinbase), serialized size within bounds,
// output values in range, no duplicated inputs, coinbase script size.
func CheckTransaction(tx *xcoin.Tx) error {
	if len(tx.TxOuts) == 0 {
		return consensus.New(consensus.Malformed, "transaction has no outputs")
	}
	if !tx.IsCoinBase() && len(tx.TxIns) == 0 {
		return consensus.New(consensus.Malformed, "non-coinbase transaction has no inputs")
	}

	if tx.Size() > xcoin.MaxBlockSize {
		return consensus.New(consensus.Malformed, "transaction size %d exceeds max block size", tx.Size())
	}

	var total int64
	for _, out := range tx.TxOuts {
		if out.Value < 0 || out.Value > xcoin.MaxMoney {
			return consensus.New(consensus.Invalid, "output value %d out of range", out.Value)
		}
		total += out.Value
		if total < 0 || total > xcoin.MaxMoney {
			return consensus.New(consensus.Invalid, "sum of output values out of range")
		}
	}

	if !tx.IsCoinBase() {
		seen := make(map[xcoin.OutPoint]bool, len(tx.TxIns))
		for _, in := range tx.TxIns {
			if seen[in.PrevOut] {
				return consensus.New(consensus.Malformed, "duplicate input outpoint %v", in.PrevOut)
			}
			seen[in.PrevOut] = true
			if in.PrevOut.N == 0xffffffff {
				return consensus.New(consensus.Malformed, "non-coinbase input has null outpoint")
			}
		}
	} else {
		n := len(tx.TxIns[0].ScriptSig)
		if n < 2 || n > 100 {
			return consensus.New(consensus.Malformed, "coinbase script size %d out of [2,100]", n)
		}
	}

	return nil
}

// maxStandardScriptSigSize is the policy cap on a relayed input's
// unlocking script, enforced only off test network.
const maxStandardScriptSigSize = 500

// IsStandard runs the relay-policy checks: recognised script
// templates, push-only scriptSigs, no zero-value outputs. testNet
// disables this check entirely, matching the spec's relaxation for
// experimentation.
func IsStandard(tx *xcoin.Tx, testNet bool) error {
	if testNet {
		return nil
	}
	if tx.Version > xcoin.CurrentTxVersion {
		return consensus.New(consensus.PolicyReject, "transaction version %d exceeds current %d", tx.Version, xcoin.CurrentTxVersion)
	}
	for _, in := range tx.TxIns {
		if len(in.ScriptSig) > maxStandardScriptSigSize {
			return consensus.New(consensus.PolicyReject, "scriptSig too large: %d bytes", len(in.ScriptSig))
		}
		if !txscript.IsPushOnlyScript(in.ScriptSig) {
			return consensus.New(consensus.PolicyReject, "scriptSig is not push-only")
		}
	}
	for _, out := range tx.TxOuts {
		if out.Value == 0 {
			return consensus.New(consensus.PolicyReject, "zero-value output")
		}
		if !isRecognizedTemplate(out.ScriptPubKey) {
			return consensus.New(consensus.PolicyReject, "non-standard scriptPubKey")
		}
	}
	return nil
}

// IsFinal reports whether tx's lock_time no longer restricts its
// inclusion at height nBlockHeight with block timestamp nBlockTime.
// LockTime==0 is always final. Otherwise LockTime is compared against
// height (if below LockTimeThreshold) or against the timestamp
// (otherwise); if that comparison alone doesn't clear it, the tx is
// still final if every input opted out of relative locking by setting
// its Sequence to the max value.
func IsFinal(tx *xcoin.Tx, nBlockHeight uint32, nBlockTime int64) bool {
	if tx.LockTime == 0 {
		return true
	}
	threshold := int64(nBlockHeight)
	if tx.LockTime >= xcoin.LockTimeThreshold {
		threshold = nBlockTime
	}
	if int64(tx.LockTime) < threshold {
		return true
	}
	for _, in := range tx.TxIns {
		if in.Sequence != 0xffffffff {
			return false
		}
	}
	return true
}

// AreInputsStandard implements spec.md §4.1's policy step on fetched
// inputs (mempool accept step 9): a pay-to-script-hash previous output
// is only standard to spend if the redeem script it reveals is itself
// a recognised, non-nested template. Grounded on
// original_source/src/main.cpp's AreInputsStandard/Solver — P2SH is
// the one scriptPubKey template whose real spending cost is hidden
// behind the scriptSig, so an attacker can get an arbitrarily
// expensive redeem script accepted into a block via an innocuous-
// looking HASH160...EQUAL output unless relay rejects it here. testNet
// disables this check, matching IsStandard's relaxation.
func AreInputsStandard(tx *xcoin.Tx, fetched []FetchedInput, testNet bool) error {
	if testNet || tx.IsCoinBase() {
		return nil
	}
	for i, f := range fetched {
		in := tx.TxIns[i]
		if txscript.GetScriptClass(f.PrevOutput.ScriptPubKey) != txscript.ScriptHashTy {
			continue
		}
		pushes, err := txscript.PushedData(in.ScriptSig)
		if err != nil || len(pushes) == 0 {
			return consensus.New(consensus.PolicyReject, "non-standard scriptSig redeeming P2SH output %v:%d", in.PrevOut.Hash, in.PrevOut.N)
		}
		redeem := pushes[len(pushes)-1]
		switch txscript.GetScriptClass(redeem) {
		case txscript.ScriptHashTy:
			return consensus.New(consensus.PolicyReject, "nested P2SH redeem script for input %v:%d", in.PrevOut.Hash, in.PrevOut.N)
		case txscript.NonStandardTy:
			return consensus.New(consensus.PolicyReject, "non-standard P2SH redeem script for input %v:%d", in.PrevOut.Hash, in.PrevOut.N)
		}
	}
	return nil
}

// isRecognizedTemplate matches the handful of standard scriptPubKey
// shapes: P2PKH, P2SH, and bare pubkey (compressed or uncompressed).
// Anything else, bare multisig included, is considered non-standard
// for relay purposes.
func isRecognizedTemplate(script []byte) bool {
	switch {
	case len(script) == 25 && script[0] == 0x76 && script[1] == 0xa9 && script[23] == 0x88 && script[24] == 0xac:
		return true // P2PKH
	case len(script) == 23 && script[0] == 0xa9 && script[22] == 0x87:
		return true // P2SH
	case len(script) == 67 && script[0] == 65 && script[66] == 0xac:
		return true // uncompressed P2PK
	case len(script) == 35 && script[0] == 33 && script[34] == 0xac:
		return true // compressed P2PK
	default:
		return false
	}
}
