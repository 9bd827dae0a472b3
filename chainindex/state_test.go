package chainindex

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/blkchain/xcoin/xcoin"
)

func mkHeader(prev xcoin.Uint256, nonce uint32) xcoin.BlockHeader {
	return xcoin.BlockHeader{
		PrevHash: prev,
		Bits:     0x207fffff, // regtest-style low-difficulty target
		Nonce:    nonce,
	}
}

func Test_AddToBlockIndex_LinearChain(t *testing.T) {
	cs := NewChainState(&xcoin.MainNetParams)

	genesis := mkHeader(xcoin.Uint256{}, 0)
	g, err := cs.AddToBlockIndex(genesis)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if cs.BestTip() != g {
		t.Fatalf("best tip should be genesis")
	}

	prevHash := genesis.Hash()
	var last Handle = g
	for i := uint32(1); i <= 5; i++ {
		h := mkHeader(prevHash, i)
		handle, err := cs.AddToBlockIndex(h)
		if err != nil {
			t.Fatalf("block %d: %v", i, err)
		}
		last = handle
		prevHash = h.Hash()
	}

	if cs.BestHeight() != 5 {
		t.Fatalf("BestHeight() = %d, want 5", cs.BestHeight())
	}
	if cs.BestTip() != last {
		t.Fatalf("BestTip() did not advance to the latest block")
	}
}

func Test_AddToBlockIndex_UnknownParent(t *testing.T) {
	cs := NewChainState(&xcoin.MainNetParams)
	orphanHeader := mkHeader(xcoin.Uint256{1, 2, 3}, 1)
	if _, err := cs.AddToBlockIndex(orphanHeader); err == nil {
		t.Fatalf("expected MissingParent error for header with unknown parent")
	}
}

func Test_Reorg_SwitchesToHigherWork(t *testing.T) {
	cs := NewChainState(&xcoin.MainNetParams)

	genesis := mkHeader(xcoin.Uint256{}, 0)
	g, _ := cs.AddToBlockIndex(genesis)

	// Branch A: two low-effort blocks.
	a1 := mkHeader(genesis.Hash(), 100)
	ha1, _ := cs.AddToBlockIndex(a1)
	a2 := mkHeader(a1.Hash(), 101)
	ha2, _ := cs.AddToBlockIndex(a2)

	if cs.BestTip() != ha2 {
		t.Fatalf("expected branch A tip to be best after two blocks")
	}

	// Branch B: three blocks off genesis, same difficulty -> more
	// accumulated work, should become the new best tip.
	b1 := mkHeader(genesis.Hash(), 200)
	cs.AddToBlockIndex(b1)
	b2 := mkHeader(b1.Hash(), 201)
	cs.AddToBlockIndex(b2)
	b3 := mkHeader(b2.Hash(), 202)
	hb3, _ := cs.AddToBlockIndex(b3)

	if cs.BestTip() != hb3 {
		t.Fatalf("expected reorg to branch B's tip, got handle for a different node")
	}
	if cs.BestHeight() != 3 {
		t.Fatalf("BestHeight() = %d, want 3", cs.BestHeight())
	}

	plan, err := cs.PlanReorganize(ha2, hb3)
	if err != nil {
		t.Fatalf("PlanReorganize: %v", err)
	}
	if plan.Fork != g {
		t.Fatalf("expected fork at genesis")
	}
	if len(plan.Disconnect) != 2 || plan.Disconnect[0] != ha2 || plan.Disconnect[1] != ha1 {
		t.Fatalf("expected to disconnect branch A's two blocks, descending:\n%s", spew.Sdump(plan))
	}
	if len(plan.Connect) != 3 || plan.Connect[2] != hb3 {
		t.Fatalf("expected to connect branch B's three blocks, ascending to hb3:\n%s", spew.Sdump(plan))
	}
}

func Test_MedianTimePast(t *testing.T) {
	cs := NewChainState(&xcoin.MainNetParams)
	h := mkHeader(xcoin.Uint256{}, 0)
	h.Time = 100
	g, _ := cs.AddToBlockIndex(h)

	prev := h
	handle := g
	for i, tm := range []uint32{110, 90, 130, 120, 140} {
		nh := mkHeader(prev.Hash(), uint32(i+1))
		nh.Time = tm
		handle, _ = cs.AddToBlockIndex(nh)
		prev = nh
	}

	median := cs.MedianTimePast(handle, 6)
	if median != 120 {
		t.Fatalf("MedianTimePast = %d, want 120", median)
	}
}
