package mempool

import (
	"crypto/rand"
	"sort"

	"github.com/blkchain/xcoin/xcoin"
)

// maxOrphanTxSize bounds an individual orphan's serialized size.
const maxOrphanTxSize = 5000

// OrphanPool holds transactions whose inputs reference a not-yet-seen
// parent transaction. Entries are kept in a key-ordered structure (a
// sorted hash slice alongside the lookup map) so eviction can draw a
// uniform random 256-bit key and take the entry at-or-after it
// (wrapping to the first entry on miss) without a full scan, per the
// random-eviction strategy the arena/handle redesign calls for.
type OrphanPool struct {
	byHash          map[xcoin.Uint256]*xcoin.Tx
	byMissingParent map[xcoin.Uint256][]xcoin.Uint256
	ordered         []xcoin.Uint256 // kept sorted ascending
	maxEntries      int
}

// NewOrphanPool builds an empty pool capped at maxEntries transactions.
func NewOrphanPool(maxEntries int) *OrphanPool {
	return &OrphanPool{
		byHash:          make(map[xcoin.Uint256]*xcoin.Tx),
		byMissingParent: make(map[xcoin.Uint256][]xcoin.Uint256),
		maxEntries:      maxEntries,
	}
}

// Add inserts tx, keyed by hash and by every input's prevout hash it's
// waiting on. Oversized transactions are rejected outright (the spec
// bounds each orphan to 5,000 bytes). If the pool is at capacity,
// random entries are evicted until there's room.
func (p *OrphanPool) Add(tx *xcoin.Tx) bool {
	if tx.Size() > maxOrphanTxSize {
		return false
	}
	hash := tx.Hash()
	if _, exists := p.byHash[hash]; exists {
		return true
	}

	for len(p.byHash) >= p.maxEntries {
		p.evictRandom()
	}

	p.byHash[hash] = tx
	p.insertSorted(hash)
	seen := make(map[xcoin.Uint256]bool)
	for _, in := range tx.TxIns {
		parent := in.PrevOut.Hash
		if seen[parent] {
			continue
		}
		seen[parent] = true
		p.byMissingParent[parent] = append(p.byMissingParent[parent], hash)
	}
	return true
}

// Remove deletes an orphan by hash, cleaning up its missing-parent
// index entries.
func (p *OrphanPool) Remove(hash xcoin.Uint256) {
	tx, ok := p.byHash[hash]
	if !ok {
		return
	}
	delete(p.byHash, hash)
	p.removeSorted(hash)

	seen := make(map[xcoin.Uint256]bool)
	for _, in := range tx.TxIns {
		parent := in.PrevOut.Hash
		if seen[parent] {
			continue
		}
		seen[parent] = true
		lst := p.byMissingParent[parent]
		for i, h := range lst {
			if h == hash {
				lst = append(lst[:i], lst[i+1:]...)
				break
			}
		}
		if len(lst) == 0 {
			delete(p.byMissingParent, parent)
		} else {
			p.byMissingParent[parent] = lst
		}
	}
}

// ChildrenOf returns the orphans waiting on parentHash, without
// removing them.
func (p *OrphanPool) ChildrenOf(parentHash xcoin.Uint256) []*xcoin.Tx {
	hashes := p.byMissingParent[parentHash]
	out := make([]*xcoin.Tx, 0, len(hashes))
	for _, h := range hashes {
		if tx, ok := p.byHash[h]; ok {
			out = append(out, tx)
		}
	}
	return out
}

func (p *OrphanPool) Len() int { return len(p.byHash) }

func (p *OrphanPool) insertSorted(hash xcoin.Uint256) {
	i := sort.Search(len(p.ordered), func(i int) bool { return !lessHash(p.ordered[i], hash) })
	p.ordered = append(p.ordered, xcoin.Uint256{})
	copy(p.ordered[i+1:], p.ordered[i:])
	p.ordered[i] = hash
}

func (p *OrphanPool) removeSorted(hash xcoin.Uint256) {
	i := sort.Search(len(p.ordered), func(i int) bool { return !lessHash(p.ordered[i], hash) })
	if i < len(p.ordered) && p.ordered[i] == hash {
		p.ordered = append(p.ordered[:i], p.ordered[i+1:]...)
	}
}

func lessHash(a, b xcoin.Uint256) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// evictRandom draws a uniform random 256-bit key and evicts the
// lower-bound entry (the first entry >= the key), wrapping to the
// first entry of the whole set on a miss past the end. This gives
// expected-uniform eviction pressure without scanning every entry.
func (p *OrphanPool) evictRandom() {
	if len(p.ordered) == 0 {
		return
	}
	var key xcoin.Uint256
	rand.Read(key[:])

	i := sort.Search(len(p.ordered), func(i int) bool { return !lessHash(p.ordered[i], key) })
	if i >= len(p.ordered) {
		i = 0
	}
	p.Remove(p.ordered[i])
}
