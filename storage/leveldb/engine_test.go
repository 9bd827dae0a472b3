package leveldb

import (
	"testing"

	"github.com/blkchain/xcoin/storage"
	"github.com/blkchain/xcoin/xcoin"
)

func Test_Engine_TxIndex_RoundTrip(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	var hash xcoin.Uint256
	hash[0] = 7

	tx, err := e.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	entry := &storage.TxIndexEntry{
		BlockHash: hash,
		Height:    10,
		Pos:       storage.DiskPos{File: 1, Pos: 500},
		Spent:     []*storage.DiskPos{nil, {File: 2, Pos: 900}},
	}
	if err := tx.UpdateTxIndex(hash, entry); err != nil {
		t.Fatalf("UpdateTxIndex: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tx2, err := e.Begin()
	if err != nil {
		t.Fatalf("Begin 2: %v", err)
	}
	read, ok, err := tx2.ReadTxIndex(hash)
	if err != nil {
		t.Fatalf("ReadTxIndex: %v", err)
	}
	if !ok {
		t.Fatalf("expected entry to be found after commit")
	}
	if read.Height != 10 || read.Pos.Pos != 500 {
		t.Fatalf("round-tripped entry mismatch: %+v", read)
	}
	if read.Spent[0] != nil || read.Spent[1] == nil || read.Spent[1].Pos != 900 {
		t.Fatalf("spent slice mismatch: %+v", read.Spent)
	}
}

func Test_Engine_ContainsTx_FalseBeforeWrite(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	var hash xcoin.Uint256
	hash[0] = 9
	tx, err := e.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	has, err := tx.ContainsTx(hash)
	if err != nil {
		t.Fatalf("ContainsTx: %v", err)
	}
	if has {
		t.Fatalf("expected ContainsTx to be false for an unwritten hash")
	}
}

func Test_Engine_EraseTxIndex(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	var hash xcoin.Uint256
	hash[0] = 3

	tx, _ := e.Begin()
	tx.UpdateTxIndex(hash, &storage.TxIndexEntry{BlockHash: hash})
	tx.Commit()

	tx2, _ := e.Begin()
	tx2.EraseTxIndex(hash)
	if err := tx2.Commit(); err != nil {
		t.Fatalf("Commit erase: %v", err)
	}

	tx3, _ := e.Begin()
	_, ok, err := tx3.ReadTxIndex(hash)
	if err != nil {
		t.Fatalf("ReadTxIndex after erase: %v", err)
	}
	if ok {
		t.Fatalf("expected entry to be gone after erase+commit")
	}
}

func Test_Engine_Abort_DiscardsWrites(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	var hash xcoin.Uint256
	hash[0] = 5

	tx, _ := e.Begin()
	tx.UpdateTxIndex(hash, &storage.TxIndexEntry{BlockHash: hash})
	if err := tx.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	tx2, _ := e.Begin()
	_, ok, err := tx2.ReadTxIndex(hash)
	if err != nil {
		t.Fatalf("ReadTxIndex: %v", err)
	}
	if ok {
		t.Fatalf("aborted write should never have become visible")
	}
}

func Test_Engine_HashBestChain_RoundTrip(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	if _, ok, err := e.HashBestChain(); err != nil || ok {
		t.Fatalf("expected no best-chain hash before any write, ok=%v err=%v", ok, err)
	}

	var hash xcoin.Uint256
	hash[0] = 1
	tx, _ := e.Begin()
	tx.WriteHashBestChain(hash)
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, ok, err := e.HashBestChain()
	if err != nil || !ok {
		t.Fatalf("expected a best-chain hash after commit, ok=%v err=%v", ok, err)
	}
	if got != hash {
		t.Fatalf("hash mismatch: %v != %v", got, hash)
	}
}

func Test_Engine_ReadBlockIndex_ScansAll(t *testing.T) {
	e, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	for i := byte(1); i <= 3; i++ {
		var hash xcoin.Uint256
		hash[0] = i
		tx, _ := e.Begin()
		tx.WriteBlockIndex(&storage.DiskBlockIndex{Hash: hash, Height: uint32(i), ChainWork: []byte{i}})
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit %d: %v", i, err)
		}
	}

	all, err := e.ReadBlockIndex()
	if err != nil {
		t.Fatalf("ReadBlockIndex: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 block index records, got %d", len(all))
	}
}
