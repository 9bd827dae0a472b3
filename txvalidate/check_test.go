package txvalidate

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/txscript"

	"github.com/blkchain/xcoin/xcoin"
)

func mkTx(outs ...int64) *xcoin.Tx {
	tx := &xcoin.Tx{
		TxIns: xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: xcoin.Uint256{1}, N: 0}}},
	}
	for _, v := range outs {
		tx.TxOuts = append(tx.TxOuts, &xcoin.TxOut{Value: v, ScriptPubKey: placeholderP2PKHScript()})
	}
	return tx
}

func placeholderP2PKHScript() []byte {
	s := make([]byte, 25)
	s[0], s[1], s[2], s[23], s[24] = 0x76, 0xa9, 20, 0x88, 0xac
	return s
}

func Test_CheckTransaction_RejectsEmptyOutputs(t *testing.T) {
	tx := mkTx()
	if err := CheckTransaction(tx); err == nil {
		t.Fatalf("expected rejection of a transaction with no outputs")
	}
}

func Test_CheckTransaction_RejectsNegativeValue(t *testing.T) {
	tx := mkTx(-1)
	if err := CheckTransaction(tx); err == nil {
		t.Fatalf("expected rejection of a negative output value")
	}
}

func Test_CheckTransaction_RejectsOverMaxMoney(t *testing.T) {
	tx := mkTx(xcoin.MaxMoney + 1)
	if err := CheckTransaction(tx); err == nil {
		t.Fatalf("expected rejection of an output exceeding MaxMoney")
	}
}

func Test_CheckTransaction_RejectsDuplicateInputs(t *testing.T) {
	tx := mkTx(1000)
	tx.TxIns = append(tx.TxIns, &xcoin.TxIn{PrevOut: tx.TxIns[0].PrevOut})
	if err := CheckTransaction(tx); err == nil {
		t.Fatalf("expected rejection of duplicated input outpoints")
	}
}

func Test_CheckTransaction_AcceptsSimpleTx(t *testing.T) {
	tx := mkTx(1000, 2000)
	if err := CheckTransaction(tx); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
}

func Test_CheckTransaction_CoinbaseScriptSizeLimits(t *testing.T) {
	tx := &xcoin.Tx{
		TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}, ScriptSig: []byte{1}}},
		TxOuts: xcoin.TxOutList{{Value: 100, ScriptPubKey: placeholderP2PKHScript()}},
	}
	if err := CheckTransaction(tx); err == nil {
		t.Fatalf("expected rejection of a 1-byte coinbase script")
	}
}

func Test_IsStandard_RejectsNonTemplateScript(t *testing.T) {
	tx := mkTx(1000)
	tx.TxOuts[0].ScriptPubKey = []byte{0x51, 0x52} // not a recognized template
	if err := IsStandard(tx, false); err == nil {
		t.Fatalf("expected non-standard rejection")
	}
}

func Test_IsStandard_TestNetSkipsPolicy(t *testing.T) {
	tx := mkTx(1000)
	tx.TxOuts[0].ScriptPubKey = []byte{0x51, 0x52}
	if err := IsStandard(tx, true); err != nil {
		t.Fatalf("test network should skip standardness policy, got %v", err)
	}
}

// derSigPubkeyScriptSig builds a push<sig> push<pubkey> scriptSig whose
// data bytes are mostly above 0x60, the shape of an ordinary P2PKH
// spend: DER signatures and compressed pubkeys are effectively uniform
// over the byte range, so most of their bytes land above any small
// fixed opcode threshold. A push-only scanner that fails to skip a
// push opcode's data and instead reinterprets those bytes as further
// opcodes will see values in that range and misclassify the script.
func derSigPubkeyScriptSig() []byte {
	sig := bytes.Repeat([]byte{0xaa}, 71)
	pubkey := bytes.Repeat([]byte{0xee}, 33)
	s, err := txscript.NewScriptBuilder().AddData(sig).AddData(pubkey).Script()
	if err != nil {
		panic(err)
	}
	return s
}

func Test_IsStandard_AcceptsOrdinaryP2PKHScriptSig(t *testing.T) {
	tx := mkTx(1000)
	tx.TxIns[0].ScriptSig = derSigPubkeyScriptSig()
	if err := IsStandard(tx, false); err != nil {
		t.Fatalf("an ordinary push<sig> push<pubkey> scriptSig must be standard, got %v", err)
	}
}

func p2shScript(hash160 []byte) []byte {
	s, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).AddData(hash160).AddOp(txscript.OP_EQUAL).Script()
	if err != nil {
		panic(err)
	}
	return s
}

func multisigRedeemScript() []byte {
	pk1 := bytes.Repeat([]byte{0x02}, 33)
	pk2 := bytes.Repeat([]byte{0x03}, 33)
	s, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_1).AddData(pk1).AddData(pk2).AddOp(txscript.OP_2).
		AddOp(txscript.OP_CHECKMULTISIG).Script()
	if err != nil {
		panic(err)
	}
	return s
}

func fetchedP2SHInput(t *testing.T, tx *xcoin.Tx, redeem []byte) []FetchedInput {
	t.Helper()
	// AreInputsStandard only inspects the redeem script's own shape, it
	// never recomputes or checks the hash160 against the scriptPubKey
	// (that binding is the script oracle's job), so a fixed placeholder
	// hash is fine here.
	hash160 := bytes.Repeat([]byte{0x5f}, 20)
	scriptSig, err := txscript.NewScriptBuilder().AddData(redeem).Script()
	if err != nil {
		t.Fatalf("building scriptSig: %v", err)
	}
	tx.TxIns[0].ScriptSig = scriptSig
	prevOut := &xcoin.TxOut{Value: 1000, ScriptPubKey: p2shScript(hash160)}
	return []FetchedInput{{PrevOutput: prevOut}}
}

func Test_AreInputsStandard_AcceptsRecognisedRedeemScript(t *testing.T) {
	tx := mkTx(1000)
	fetched := fetchedP2SHInput(t, tx, multisigRedeemScript())
	if err := AreInputsStandard(tx, fetched, false); err != nil {
		t.Fatalf("a standard multisig redeem script should be accepted, got %v", err)
	}
}

func Test_AreInputsStandard_RejectsNonStandardRedeemScript(t *testing.T) {
	tx := mkTx(1000)
	fetched := fetchedP2SHInput(t, tx, []byte{txscript.OP_DUP, txscript.OP_CHECKSIG, txscript.OP_DROP, txscript.OP_1})
	if err := AreInputsStandard(tx, fetched, false); err == nil {
		t.Fatalf("expected rejection of a non-standard P2SH redeem script")
	}
}

func Test_AreInputsStandard_RejectsNestedP2SH(t *testing.T) {
	tx := mkTx(1000)
	inner := p2shScript(bytes.Repeat([]byte{0x01}, 20))
	fetched := fetchedP2SHInput(t, tx, inner)
	if err := AreInputsStandard(tx, fetched, false); err == nil {
		t.Fatalf("expected rejection of a nested P2SH redeem script")
	}
}

func Test_AreInputsStandard_TestNetSkipsPolicy(t *testing.T) {
	tx := mkTx(1000)
	fetched := fetchedP2SHInput(t, tx, []byte{txscript.OP_DUP, txscript.OP_CHECKSIG, txscript.OP_DROP, txscript.OP_1})
	if err := AreInputsStandard(tx, fetched, true); err != nil {
		t.Fatalf("test network should skip the inputs-standard policy, got %v", err)
	}
}
