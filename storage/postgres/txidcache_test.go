package postgres

import (
	"testing"

	"github.com/blkchain/xcoin/xcoin"
)

func hashN(n byte) xcoin.Uint256 {
	var h xcoin.Uint256
	h[0] = n
	return h
}

func Test_TxIdCache_AddThenCheck(t *testing.T) {
	c := newTxIdCache(1024)
	h := hashN(1)
	c.add(h, 42, 2)

	id, ok := c.check(h)
	if !ok || id != 42 {
		t.Fatalf("expected hit id=42, got id=%d ok=%v", id, ok)
	}
}

func Test_TxIdCache_EvictsWhenExhausted(t *testing.T) {
	c := newTxIdCache(1024)
	h := hashN(2)
	c.add(h, 7, 1)

	if id, ok := c.check(h); !ok || id != 7 {
		t.Fatalf("expected first check to hit, got id=%d ok=%v", id, ok)
	}
	if _, ok := c.check(h); ok {
		t.Fatalf("expected entry to be evicted after its last output was spent")
	}
}

func Test_TxIdCache_MissForUnknownHash(t *testing.T) {
	c := newTxIdCache(1024)
	if _, ok := c.check(hashN(3)); ok {
		t.Fatalf("expected a miss for a hash never added")
	}
}

func Test_TxIdCache_RecentRingToleratesDuplicateAdd(t *testing.T) {
	c := newTxIdCache(1024)
	h := hashN(4)

	id1 := c.add(h, 11, 1)
	id2 := c.add(h, 999, 1)
	if id1 != 11 || id2 != 11 {
		t.Fatalf("expected a duplicate add within the recent window to return the first id, got %d and %d", id1, id2)
	}
}
