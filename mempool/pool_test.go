package mempool

import (
	"testing"

	"github.com/blkchain/xcoin/txvalidate"
	"github.com/blkchain/xcoin/xcoin"
)

type fakeIndex struct {
	txvalidate.MapSource
	confirmed map[xcoin.Uint256]bool
}

func (f fakeIndex) Contains(hash xcoin.Uint256) bool { return f.confirmed[hash] }

func p2pkh() []byte {
	s := make([]byte, 25)
	s[0], s[1], s[2], s[23], s[24] = 0x76, 0xa9, 20, 0x88, 0xac
	return s
}

func Test_Accept_RejectsCoinbase(t *testing.T) {
	p := New(false)
	tx := &xcoin.Tx{
		TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}, ScriptSig: make([]byte, 4)}},
		TxOuts: xcoin.TxOutList{{Value: 1000, ScriptPubKey: p2pkh()}},
	}
	idx := fakeIndex{MapSource: txvalidate.MapSource{}, confirmed: map[xcoin.Uint256]bool{}}
	if _, err := p.Accept(tx, 10, idx, nil, 0, false); err == nil {
		t.Fatalf("expected coinbase rejection")
	}
}

func Test_Accept_RejectsDoubleSpendAgainstPool(t *testing.T) {
	p := New(false)
	prevHash := xcoin.Uint256{1}
	prevTx := &xcoin.Tx{TxOuts: xcoin.TxOutList{{Value: 100000, ScriptPubKey: p2pkh()}}}
	idx := fakeIndex{
		MapSource: txvalidate.MapSource{prevHash: {Tx: prevTx, Height: 1, InBlock: true, Spent: []bool{false}}},
		confirmed: map[xcoin.Uint256]bool{},
	}

	tx1 := &xcoin.Tx{
		TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: prevHash, N: 0}}},
		TxOuts: xcoin.TxOutList{{Value: 90000, ScriptPubKey: p2pkh()}},
	}
	if _, err := p.Accept(tx1, 100, idx, nil, 0, false); err != nil {
		t.Fatalf("tx1 should be accepted: %v", err)
	}

	tx2 := &xcoin.Tx{
		TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: prevHash, N: 0}}},
		TxOuts: xcoin.TxOutList{{Value: 50000, ScriptPubKey: p2pkh()}},
	}
	if _, err := p.Accept(tx2, 100, idx, nil, 0, false); err == nil {
		t.Fatalf("expected rejection of tx2, which conflicts with tx1 in the pool")
	}

	if _, ok := p.Get(tx1.Hash()); !ok {
		t.Fatalf("tx1 should remain in the pool after tx2's rejection")
	}
}

func Test_Accept_RejectsAlreadyConfirmed(t *testing.T) {
	p := New(false)
	tx := &xcoin.Tx{
		TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: xcoin.Uint256{2}, N: 0}}},
		TxOuts: xcoin.TxOutList{{Value: 1000, ScriptPubKey: p2pkh()}},
	}
	idx := fakeIndex{MapSource: txvalidate.MapSource{}, confirmed: map[xcoin.Uint256]bool{tx.Hash(): true}}
	if _, err := p.Accept(tx, 10, idx, nil, 0, false); err == nil {
		t.Fatalf("expected duplicate rejection of an already-confirmed tx")
	}
}

func Test_OrphanPool_RandomEvictionRespectsCap(t *testing.T) {
	op := NewOrphanPool(5)
	for i := 0; i < 10; i++ {
		tx := &xcoin.Tx{
			TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: xcoin.Uint256{byte(i)}, N: 0}}},
			TxOuts: xcoin.TxOutList{{Value: 1000, ScriptPubKey: p2pkh()}},
		}
		op.Add(tx)
	}
	if op.Len() > 5 {
		t.Fatalf("OrphanPool exceeded its cap: %d", op.Len())
	}
}

func Test_OrphanPool_ChildrenOf(t *testing.T) {
	op := NewOrphanPool(10)
	parentHash := xcoin.Uint256{3}
	child := &xcoin.Tx{
		TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: parentHash, N: 0}}},
		TxOuts: xcoin.TxOutList{{Value: 1000, ScriptPubKey: p2pkh()}},
	}
	op.Add(child)
	if children := op.ChildrenOf(parentHash); len(children) != 1 {
		t.Fatalf("ChildrenOf returned %d children, want 1", len(children))
	}
}
