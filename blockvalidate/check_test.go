package blockvalidate

import (
	"testing"

	"github.com/blkchain/xcoin/xcoin"
)

func p2pkhScript() []byte {
	s := make([]byte, 25)
	s[0], s[1], s[2], s[23], s[24] = 0x76, 0xa9, 20, 0x88, 0xac
	return s
}

func coinbaseTx(height uint32) *xcoin.Tx {
	return &xcoin.Tx{
		TxIns:     xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}, ScriptSig: make([]byte, 4)}},
		TxOuts:    xcoin.TxOutList{{Value: 100 * xcoin.COIN, ScriptPubKey: p2pkhScript()}},
		RefHeight: height,
	}
}

func mkBlock(bits uint32, txs ...*xcoin.Tx) *xcoin.Block {
	b := &xcoin.Block{
		BlockHeader: &xcoin.BlockHeader{Bits: bits},
		Txs:         xcoin.TxList(txs),
	}
	b.BlockHeader.HashMerkleRoot = b.MerkleRoot()
	return b
}

func Test_CheckBlock_RejectsEmptyBlock(t *testing.T) {
	b := &xcoin.Block{BlockHeader: &xcoin.BlockHeader{}}
	if err := CheckBlock(b, 0); err == nil {
		t.Fatalf("expected rejection of a block with no transactions")
	}
}

func Test_CheckBlock_RejectsMultipleCoinbases(t *testing.T) {
	b := mkBlock(0x207fffff, coinbaseTx(1), coinbaseTx(1))
	if err := CheckBlock(b, 0); err == nil {
		t.Fatalf("expected rejection of a block with two coinbase transactions")
	}
}

func Test_CheckBlock_RejectsBadMerkleRoot(t *testing.T) {
	b := mkBlock(0x207fffff, coinbaseTx(1))
	b.BlockHeader.HashMerkleRoot = xcoin.Uint256{0xff}
	if err := CheckBlock(b, 0); err == nil {
		t.Fatalf("expected rejection of a mismatched merkle root")
	}
}

func Test_CheckBlock_RejectsFarFutureTimestamp(t *testing.T) {
	b := mkBlock(0x207fffff, coinbaseTx(1))
	b.BlockHeader.Time = 1_000_000_000
	if err := CheckBlock(b, 0); err == nil {
		t.Fatalf("expected rejection of a far-future timestamp")
	}
}
