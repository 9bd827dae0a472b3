package txvalidate

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/blkchain/xcoin/xcoin"
)

// ScriptVerifySignature is the standard-script-template VerifySignature
// implementation: it runs btcd's interpreter against the same P2PKH/
// P2SH/P2WPKH/P2WSH templates Bitcoin-descended scripts use, over the
// tx's wire-compatible fields. ref_height is a consensus field this
// chain checks separately (ConnectBlock/ConnectInputs); it is not part
// of the OP_CHECKSIG preimage, so converting to wire.MsgTx for the
// interpreter loses nothing the script engine needs to see.
func ScriptVerifySignature(prevOutput *xcoin.TxOut, tx *xcoin.Tx, inputIndex int) bool {
	mtx := toWireTx(tx)
	fetcher := txscript.NewCannedPrevOutputFetcher(prevOutput.ScriptPubKey, prevOutput.Value)
	engine, err := txscript.NewEngine(prevOutput.ScriptPubKey, mtx, inputIndex,
		txscript.StandardVerifyFlags, nil, nil, prevOutput.Value, fetcher)
	if err != nil {
		return false
	}
	return engine.Execute() == nil
}

func toWireTx(tx *xcoin.Tx) *wire.MsgTx {
	mtx := wire.NewMsgTx(int32(tx.Version))
	for _, in := range tx.TxIns {
		op := wire.OutPoint{Hash: chainhash.Hash(in.PrevOut.Hash), Index: in.PrevOut.N}
		wtxin := wire.NewTxIn(&op, in.ScriptSig, nil)
		wtxin.Sequence = in.Sequence
		if len(in.Witness) > 0 {
			witness := make(wire.TxWitness, len(in.Witness))
			for i, item := range in.Witness {
				witness[i] = item
			}
			wtxin.Witness = witness
		}
		mtx.AddTxIn(wtxin)
	}
	for _, out := range tx.TxOuts {
		mtx.AddTxOut(wire.NewTxOut(out.Value, out.ScriptPubKey))
	}
	mtx.LockTime = tx.LockTime
	return mtx
}
