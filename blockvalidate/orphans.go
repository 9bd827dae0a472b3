package blockvalidate

import "github.com/blkchain/xcoin/xcoin"

// OrphanPool holds well-formed blocks whose parent hasn't been seen
// yet, keyed both by hash and by the parent hash they're waiting on.
type OrphanPool struct {
	byHash          map[xcoin.Uint256]*xcoin.Block
	byMissingParent map[xcoin.Uint256][]xcoin.Uint256
}

// NewOrphanPool builds an empty pool.
func NewOrphanPool() *OrphanPool {
	return &OrphanPool{
		byHash:          make(map[xcoin.Uint256]*xcoin.Block),
		byMissingParent: make(map[xcoin.Uint256][]xcoin.Uint256),
	}
}

// Add retains a block whose parent is unknown. Returns false if the
// block's hash is already present.
func (p *OrphanPool) Add(b *xcoin.Block) bool {
	hash := b.Hash()
	if _, exists := p.byHash[hash]; exists {
		return false
	}
	p.byHash[hash] = b
	p.byMissingParent[b.BlockHeader.PrevHash] = append(p.byMissingParent[b.BlockHeader.PrevHash], hash)
	return true
}

// Remove deletes an orphan by hash.
func (p *OrphanPool) Remove(hash xcoin.Uint256) {
	b, ok := p.byHash[hash]
	if !ok {
		return
	}
	delete(p.byHash, hash)
	lst := p.byMissingParent[b.BlockHeader.PrevHash]
	for i, h := range lst {
		if h == hash {
			lst = append(lst[:i], lst[i+1:]...)
			break
		}
	}
	if len(lst) == 0 {
		delete(p.byMissingParent, b.BlockHeader.PrevHash)
	} else {
		p.byMissingParent[b.BlockHeader.PrevHash] = lst
	}
}

func (p *OrphanPool) Len() int { return len(p.byHash) }

// ChildrenOf returns the orphan blocks directly waiting on parentHash.
func (p *OrphanPool) ChildrenOf(parentHash xcoin.Uint256) []*xcoin.Block {
	hashes := p.byMissingParent[parentHash]
	out := make([]*xcoin.Block, 0, len(hashes))
	for _, h := range hashes {
		if b, ok := p.byHash[h]; ok {
			out = append(out, b)
		}
	}
	return out
}

// PromoteChildren runs the work-queue loop described in §4.6: starting
// from a newly-connected block's hash, repeatedly probes
// byMissingParent and hands every freed child to accept, terminating
// when no new children surface. Every child accept takes is removed
// from the pool and its own hash queued, so later generations are
// promoted within the same call; a child accept refuses stays pooled.
func (p *OrphanPool) PromoteChildren(rootHash xcoin.Uint256, accept func(*xcoin.Block) bool) {
	queue := []xcoin.Uint256{rootHash}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		for _, child := range p.ChildrenOf(parent) {
			hash := child.Hash()
			if accept(child) {
				p.Remove(hash)
				queue = append(queue, hash)
			}
		}
	}
}
