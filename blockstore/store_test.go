package blockstore

import (
	"testing"

	"github.com/blkchain/xcoin/xcoin"
)

func mkBlock(nonce uint32) *xcoin.Block {
	return &xcoin.Block{
		BlockHeader: &xcoin.BlockHeader{Nonce: nonce},
		Txs: xcoin.TxList{
			&xcoin.Tx{TxIns: xcoin.TxInList{{}}, TxOuts: xcoin.TxOutList{{Value: 1}}},
		},
	}
}

func Test_Store_AppendThenReadAt(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, xcoin.TestNetMagic)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	b := mkBlock(42)
	pos, err := s.Append(b)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.ReadAt(pos)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if got.Nonce != 42 {
		t.Fatalf("expected nonce 42, got %d", got.Nonce)
	}
}

func Test_Store_AppendMultiple_SameFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, xcoin.TestNetMagic)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	p1, err := s.Append(mkBlock(1))
	if err != nil {
		t.Fatalf("Append 1: %v", err)
	}
	p2, err := s.Append(mkBlock(2))
	if err != nil {
		t.Fatalf("Append 2: %v", err)
	}
	if p1.File != p2.File {
		t.Fatalf("expected both blocks in the same file, got %d and %d", p1.File, p2.File)
	}
	if p2.Pos <= p1.Pos {
		t.Fatalf("expected the second record to land after the first")
	}

	got2, err := s.ReadAt(p2)
	if err != nil {
		t.Fatalf("ReadAt p2: %v", err)
	}
	if got2.Nonce != 2 {
		t.Fatalf("expected nonce 2, got %d", got2.Nonce)
	}
}

func Test_Load_ReplaysAppendedBlocks(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, xcoin.TestNetMagic)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := uint32(1); i <= 3; i++ {
		if _, err := s.Append(mkBlock(i)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	s.Close()

	var nonces []uint32
	n, err := Load(dir, xcoin.TestNetMagic, func(b *xcoin.Block) error {
		nonces = append(nonces, b.Nonce)
		return nil
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 blocks replayed, got %d", n)
	}
	for i, want := range []uint32{1, 2, 3} {
		if nonces[i] != want {
			t.Fatalf("replay order mismatch at %d: want %d got %d", i, want, nonces[i])
		}
	}
}
