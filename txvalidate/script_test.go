package txvalidate

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"golang.org/x/crypto/ripemd160"

	"github.com/blkchain/xcoin/xcoin"
)

func hash160(b []byte) []byte {
	sha := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(sha[:])
	return r.Sum(nil)
}

func p2pkhScript(pubKeyHash []byte) []byte {
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		panic(err)
	}
	return script
}

func Test_ScriptVerifySignature_ValidP2PKHSpend(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	pubKeyHash := hash160(priv.PubKey().SerializeCompressed())
	pkScript := p2pkhScript(pubKeyHash)

	prevOut := &xcoin.TxOut{Value: 5000, ScriptPubKey: pkScript}
	tx := &xcoin.Tx{
		Version: 1,
		TxIns:   xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0}}},
		TxOuts:  xcoin.TxOutList{{Value: 4000, ScriptPubKey: []byte{}}},
	}

	wtx := toWireTx(tx)
	sigScript, err := txscript.SignatureScript(wtx, 0, pkScript, txscript.SigHashAll, priv, true)
	if err != nil {
		t.Fatalf("SignatureScript: %v", err)
	}
	tx.TxIns[0].ScriptSig = sigScript

	if !ScriptVerifySignature(prevOut, tx, 0) {
		t.Fatalf("expected a correctly signed P2PKH spend to verify")
	}
}

func Test_ScriptVerifySignature_RejectsTamperedSignature(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	pubKeyHash := hash160(priv.PubKey().SerializeCompressed())
	pkScript := p2pkhScript(pubKeyHash)

	prevOut := &xcoin.TxOut{Value: 5000, ScriptPubKey: pkScript}
	tx := &xcoin.Tx{
		Version: 1,
		TxIns:   xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0}}},
		TxOuts:  xcoin.TxOutList{{Value: 4000, ScriptPubKey: []byte{}}},
	}

	wtx := toWireTx(tx)
	sigScript, err := txscript.SignatureScript(wtx, 0, pkScript, txscript.SigHashAll, priv, true)
	if err != nil {
		t.Fatalf("SignatureScript: %v", err)
	}
	// Flip a byte inside the DER signature to invalidate it.
	sigScript[2] ^= 0xff
	tx.TxIns[0].ScriptSig = sigScript

	if ScriptVerifySignature(prevOut, tx, 0) {
		t.Fatalf("expected a tampered signature to fail verification")
	}
}
