package chainio

import (
	"testing"

	"github.com/blkchain/xcoin/blockstore"
	"github.com/blkchain/xcoin/storage"
	"github.com/blkchain/xcoin/storage/leveldb"
	"github.com/blkchain/xcoin/xcoin"
)

func mkTestBlock(nonce uint32) *xcoin.Block {
	return &xcoin.Block{
		BlockHeader: &xcoin.BlockHeader{Nonce: nonce},
		Txs: xcoin.TxList{
			&xcoin.Tx{TxIns: xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}}}, TxOuts: xcoin.TxOutList{{Value: 5000}}},
			&xcoin.Tx{TxIns: xcoin.TxInList{{}}, TxOuts: xcoin.TxOutList{{Value: 10}, {Value: 20}}},
		},
	}
}

// indexFundingTx commits a TxIndex entry with one unspent output for
// the all-zero tx hash, the outpoint mkTestBlock's second tx spends.
func indexFundingTx(t *testing.T, engine *leveldb.Engine) {
	t.Helper()
	stx, err := engine.Begin()
	if err != nil {
		t.Fatalf("Begin funding: %v", err)
	}
	if err := stx.UpdateTxIndex(xcoin.Uint256{}, &storage.TxIndexEntry{Spent: make([]*storage.DiskPos, 1)}); err != nil {
		t.Fatalf("UpdateTxIndex funding: %v", err)
	}
	if err := stx.Commit(); err != nil {
		t.Fatalf("Commit funding: %v", err)
	}
}

func Test_Index_ApplyConnectThenLookup(t *testing.T) {
	engine, err := leveldb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open engine: %v", err)
	}
	defer engine.Close()
	indexFundingTx(t, engine)

	store, err := blockstore.Open(t.TempDir(), xcoin.TestNetMagic)
	if err != nil {
		t.Fatalf("Open blockstore: %v", err)
	}
	defer store.Close()

	b := mkTestBlock(1)
	pos, err := store.Append(b)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	stx, err := engine.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := ApplyConnect(stx, b, 5, pos); err != nil {
		t.Fatalf("ApplyConnect: %v", err)
	}
	if err := stx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ix := New(engine, store)

	secondHash := b.Txs[1].Hash()
	rec, ok := ix.Lookup(secondHash)
	if !ok {
		t.Fatalf("expected to find the second tx in the index")
	}
	if rec.Height != 5 || len(rec.Spent) != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Spent[0] || rec.Spent[1] {
		t.Fatalf("expected both outputs unspent right after connect")
	}

	if !ix.Contains(secondHash) {
		t.Fatalf("expected Contains to report true for an indexed tx")
	}
}

func Test_Index_SpendThenDisconnect(t *testing.T) {
	engine, _ := leveldb.Open(t.TempDir())
	defer engine.Close()
	indexFundingTx(t, engine)
	store, _ := blockstore.Open(t.TempDir(), xcoin.TestNetMagic)
	defer store.Close()

	parent := mkTestBlock(1)
	parentPos, _ := store.Append(parent)

	stx, _ := engine.Begin()
	if err := ApplyConnect(stx, parent, 1, parentPos); err != nil {
		t.Fatalf("ApplyConnect parent: %v", err)
	}
	stx.Commit()

	spendHash := parent.Txs[1].Hash()

	child := &xcoin.Block{
		BlockHeader: &xcoin.BlockHeader{Nonce: 2},
		Txs: xcoin.TxList{
			&xcoin.Tx{TxIns: xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}}}, TxOuts: xcoin.TxOutList{{Value: 5000}}},
			&xcoin.Tx{
				TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: spendHash, N: 0}}},
				TxOuts: xcoin.TxOutList{{Value: 9}},
			},
		},
	}
	childPos, _ := store.Append(child)

	stx2, _ := engine.Begin()
	if err := ApplyConnect(stx2, child, 2, childPos); err != nil {
		t.Fatalf("ApplyConnect child: %v", err)
	}
	stx2.Commit()

	ix := New(engine, store)
	rec, ok := ix.Lookup(spendHash)
	if !ok {
		t.Fatalf("expected to find parent's second tx")
	}
	if !rec.Spent[0] {
		t.Fatalf("expected output 0 to be marked spent after child connected")
	}

	stx3, _ := engine.Begin()
	if err := ApplyDisconnect(stx3, child); err != nil {
		t.Fatalf("ApplyDisconnect: %v", err)
	}
	stx3.Commit()

	rec2, ok := ix.Lookup(spendHash)
	if !ok {
		t.Fatalf("expected parent tx to still be indexed after disconnecting its spender")
	}
	if rec2.Spent[0] {
		t.Fatalf("expected output 0 to be unspent again after disconnect")
	}

	if ix.Contains(child.Txs[1].Hash()) {
		t.Fatalf("expected child's own tx to be erased from the index after disconnect")
	}
}
