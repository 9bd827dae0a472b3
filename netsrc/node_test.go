package netsrc

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/blkchain/xcoin/xcoin"
)

func Test_TxFromMsgTx_PreservesInputsAndOutputs(t *testing.T) {
	var prevHash chainhash.Hash
	prevHash[0] = 9

	mtx := wire.NewMsgTx(2)
	mtx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: prevHash, Index: 3},
		SignatureScript:  []byte{0x01, 0x02},
		Sequence:         0xffffffff,
	})
	mtx.AddTxOut(&wire.TxOut{Value: 5000, PkScript: []byte{0x76, 0xa9}})

	tx := txFromMsgTx(mtx)
	if len(tx.TxIns) != 1 || len(tx.TxOuts) != 1 {
		t.Fatalf("expected 1 input and 1 output, got %d and %d", len(tx.TxIns), len(tx.TxOuts))
	}
	if tx.TxIns[0].PrevOut.N != 3 {
		t.Fatalf("expected prevout index 3, got %d", tx.TxIns[0].PrevOut.N)
	}
	if xcoin.Uint256(prevHash) != tx.TxIns[0].PrevOut.Hash {
		t.Fatalf("prevout hash mismatch")
	}
	if tx.TxOuts[0].Value != 5000 {
		t.Fatalf("expected value 5000, got %d", tx.TxOuts[0].Value)
	}
	if tx.SegWit {
		t.Fatalf("expected SegWit=false for a tx with no witness data")
	}
}

func Test_TxFromMsgTx_DetectsSegWit(t *testing.T) {
	mtx := wire.NewMsgTx(2)
	in := &wire.TxIn{Witness: wire.TxWitness{[]byte{0x01}}}
	mtx.AddTxIn(in)
	mtx.AddTxOut(&wire.TxOut{Value: 1, PkScript: []byte{}})

	tx := txFromMsgTx(mtx)
	if !tx.SegWit {
		t.Fatalf("expected SegWit=true when a witness stack is present")
	}
}

func Test_BlockFromMsgBlock_CopiesHeaderAndTxs(t *testing.T) {
	mb := wire.NewMsgBlock(&wire.BlockHeader{
		Version: 1,
		Bits:    0x1d00ffff,
		Nonce:   42,
	})
	mtx := wire.NewMsgTx(1)
	mtx.AddTxOut(&wire.TxOut{Value: 10, PkScript: []byte{}})
	mb.AddTransaction(mtx)

	blk := blockFromMsgBlock(mb, xcoin.TestNetMagic)
	if blk.Magic != xcoin.TestNetMagic {
		t.Fatalf("expected magic to be preserved")
	}
	if blk.Nonce != 42 || blk.Bits != 0x1d00ffff {
		t.Fatalf("header fields not copied correctly: %+v", blk.BlockHeader)
	}
	if len(blk.Txs) != 1 {
		t.Fatalf("expected 1 tx, got %d", len(blk.Txs))
	}
}

func Test_Dial_FailsFastAgainstClosedPort(t *testing.T) {
	_, err := Dial("127.0.0.1:1", Config{Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatalf("expected Dial against an unreachable port to fail")
	}
}
