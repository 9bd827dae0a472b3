package blockvalidate

import (
	"testing"

	"github.com/blkchain/xcoin/xcoin"
)

func blockWithPrev(prev xcoin.Uint256, nonce uint32) *xcoin.Block {
	return &xcoin.Block{BlockHeader: &xcoin.BlockHeader{PrevHash: prev, Nonce: nonce}}
}

func Test_OrphanPool_PromoteChildren_ChainsThroughGenerations(t *testing.T) {
	p := NewOrphanPool()

	root := xcoin.Uint256{1}
	b1 := blockWithPrev(root, 1)
	b2 := blockWithPrev(b1.Hash(), 2)

	p.Add(b2) // b2 arrives before its parent b1
	p.Add(b1)

	var accepted []xcoin.Uint256
	p.PromoteChildren(root, func(b *xcoin.Block) bool {
		accepted = append(accepted, b.Hash())
		return true
	})

	if len(accepted) != 2 {
		t.Fatalf("expected b1 and then b2 to be promoted in one call, got %d blocks", len(accepted))
	}

	p.PromoteChildren(b1.Hash(), func(b *xcoin.Block) bool {
		accepted = append(accepted, b.Hash())
		return true
	})

	if len(accepted) != 2 {
		t.Fatalf("expected no further promotions after both generations, got %d", len(accepted))
	}
	if p.Len() != 0 {
		t.Fatalf("orphan pool should be empty after full promotion, has %d", p.Len())
	}
}

func Test_OrphanPool_RejectedChildStaysOrphan(t *testing.T) {
	p := NewOrphanPool()
	root := xcoin.Uint256{2}
	b1 := blockWithPrev(root, 1)
	p.Add(b1)

	p.PromoteChildren(root, func(b *xcoin.Block) bool { return false })

	if p.Len() != 1 {
		t.Fatalf("rejected orphan should remain in the pool")
	}
}
