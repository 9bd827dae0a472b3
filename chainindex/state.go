package chainindex

import (
	"fmt"
	"log"
	"math/big"
	"sort"
	"sync"

	"github.com/blkchain/xcoin/consensus"
	"github.com/blkchain/xcoin/storage"
	"github.com/blkchain/xcoin/xcoin"
)

// ChainState is the arena of block-index nodes plus the best-chain
// view. It replaces the teacher's raw *blkNode pointer graph and the
// traditional Bitcoin-family process-wide globals (best_tip, mempool,
// block_index_map) with a single aggregate guarded by one coarse
// lock, per the concurrency model: callers hold Lock/Unlock around
// every chain mutation, and the mempool nests its own lock beneath it.
type ChainState struct {
	mu sync.Mutex

	params *xcoin.Params
	arena  []Node
	byHash map[xcoin.Uint256]Handle

	bestTip        Handle
	bestHeight     uint32
	bestChainWork  *big.Int
	bestInvalidWork *big.Int

	// splits suppresses repeated "chain split detected" log lines for
	// a fork point we've already reported.
	splits map[xcoin.Uint256]bool
}

// NewChainState builds an empty state for the given network params. The
// caller is expected to call AddToBlockIndex with the genesis header
// before anything else.
func NewChainState(params *xcoin.Params) *ChainState {
	return &ChainState{
		params:          params,
		byHash:          make(map[xcoin.Uint256]Handle),
		bestTip:         NoHandle,
		bestChainWork:   big.NewInt(0),
		bestInvalidWork: big.NewInt(0),
		splits:          make(map[xcoin.Uint256]bool),
	}
}

// Lock/Unlock expose the main lock to callers (the dispatcher, the
// block/tx processors) that need to hold it across several ChainState
// calls plus a storage-engine transaction.
func (cs *ChainState) Lock()   { cs.mu.Lock() }
func (cs *ChainState) Unlock() { cs.mu.Unlock() }

func (cs *ChainState) node(h Handle) *Node {
	if h == NoHandle || int(h) >= len(cs.arena) {
		return nil
	}
	return &cs.arena[h]
}

// Node returns a copy of the node addressed by h, or nil if h is
// NoHandle or unknown. Safe to call with the lock held or not, since
// nodes are never mutated in place except Status/NextOnBest, both of
// which only change under the main lock.
func (cs *ChainState) Node(h Handle) *Node {
	n := cs.node(h)
	if n == nil {
		return nil
	}
	copyNode := *n
	return &copyNode
}

// Lookup resolves a block hash to its Handle.
func (cs *ChainState) Lookup(hash xcoin.Uint256) (Handle, bool) {
	h, ok := cs.byHash[hash]
	return h, ok
}

// BestTip, BestHeight, BestChainWork, BestInvalidWork implement the
// "Best-chain view" entity of the data model.
func (cs *ChainState) BestTip() Handle            { return cs.bestTip }
func (cs *ChainState) BestHeight() uint32         { return cs.bestHeight }
func (cs *ChainState) BestChainWork() *big.Int    { return new(big.Int).Set(cs.bestChainWork) }
func (cs *ChainState) BestInvalidWork() *big.Int  { return new(big.Int).Set(cs.bestInvalidWork) }

// AncestorBits/AncestorTime implement the Ancestor interface difficulty.go
// needs, by walking Parent handles.
func (cs *ChainState) AncestorBits(node Handle, depth uint32) uint32 {
	n := cs.ancestorAt(node, depth)
	if n == nil {
		return 0
	}
	return n.Header.Bits
}

func (cs *ChainState) AncestorTime(node Handle, depth uint32) uint32 {
	n := cs.ancestorAt(node, depth)
	if n == nil {
		return 0
	}
	return n.Header.Time
}

func (cs *ChainState) ancestorAt(h Handle, depth uint32) *Node {
	n := cs.node(h)
	for i := uint32(0); i < depth && n != nil; i++ {
		n = cs.node(n.Parent)
	}
	return n
}

// IsSuperMajority reports whether at least nRequired of the nToCheck
// blocks ending at (and including) h carry a header version >=
// minVersion, walking Parent handles back from h. Used for the
// historical version-majority upgrade rules.
func (cs *ChainState) IsSuperMajority(minVersion uint32, h Handle, nRequired, nToCheck int) bool {
	found := 0
	n := cs.node(h)
	for i := 0; i < nToCheck && found < nRequired && n != nil; i++ {
		if n.Header.Version >= minVersion {
			found++
		}
		n = cs.node(n.Parent)
	}
	return found >= nRequired
}

// MedianTimePast returns the median Time of the `count` blocks ending
// at (and including) h, used for the "timestamp > median of previous
// 11 blocks" contextual check.
func (cs *ChainState) MedianTimePast(h Handle, count int) uint32 {
	times := make([]uint32, 0, count)
	n := cs.node(h)
	for i := 0; i < count && n != nil; i++ {
		times = append(times, n.Header.Time)
		n = cs.node(n.Parent)
	}
	if len(times) == 0 {
		return 0
	}
	for i := 1; i < len(times); i++ {
		for j := i; j > 0 && times[j-1] > times[j]; j-- {
			times[j-1], times[j] = times[j], times[j-1]
		}
	}
	return times[len(times)/2]
}

// AddToBlockIndex inserts a new node for header, linked to its parent
// (which must already be present unless this is a genesis header, with
// an all-zero PrevHash, added to an empty index), computes its chain_work, and returns its Handle. If the new
// node's chain_work exceeds the current best, it calls setBestChain.
// Per the atomicity boundary in the spec, callers must have already
// committed the corresponding storage transaction before calling this.
func (cs *ChainState) AddToBlockIndex(header xcoin.BlockHeader) (Handle, error) {
	hash := header.Hash()
	if _, exists := cs.byHash[hash]; exists {
		return NoHandle, consensus.New(consensus.Duplicate, "block header %v already indexed", hash)
	}

	n := Node{
		Hash:      hash,
		Header:    header,
		ChainWork: big.NewInt(0),
		Parent:    NoHandle,
		NextOnBest: NoHandle,
	}

	if len(cs.arena) == 0 && header.PrevHash == (xcoin.Uint256{}) {
		// Genesis: height 0, chain_work = its own block_work.
		n.Height = 0
		n.ChainWork = blockWork(header.Bits)
	} else {
		parentHandle, ok := cs.byHash[header.PrevHash]
		if !ok {
			return NoHandle, consensus.New(consensus.MissingParent, "unknown parent %v", header.PrevHash)
		}
		parent := cs.node(parentHandle)
		n.Parent = parentHandle
		n.Height = parent.Height + 1
		n.ChainWork = new(big.Int).Add(parent.ChainWork, blockWork(header.Bits))
	}

	handle := Handle(len(cs.arena))
	cs.arena = append(cs.arena, n)
	cs.byHash[hash] = handle

	if cs.bestTip == NoHandle || n.ChainWork.Cmp(cs.bestChainWork) > 0 {
		cs.setBestChain(handle)
	}
	return handle, nil
}

// setBestChain rewrites the NextOnBest handles along the path from the
// old tip's fork point to the new tip, per AddToBlockIndex's atomicity
// note: this in-memory mutation happens strictly after the caller's
// storage commit. It is the "reorganize" path generalized from the
// teacher's splitCheck: instead of comparing child counts, it compares
// chain_work.
func (cs *ChainState) setBestChain(newTip Handle) {
	oldTip := cs.bestTip
	fork := cs.findFork(oldTip, newTip)

	// Clear NextOnBest along the abandoned branch, down to the fork.
	for h := oldTip; h != NoHandle && h != fork; {
		n := cs.node(h)
		n.NextOnBest = NoHandle
		h = n.Parent
	}

	// Walk from newTip back to the fork, recording the path, then set
	// NextOnBest forward along it.
	path := make([]Handle, 0)
	for h := newTip; h != NoHandle && h != fork; {
		path = append(path, h)
		h = cs.node(h).Parent
	}
	for i := len(path) - 1; i >= 0; i-- {
		cur := path[i]
		var parent Handle
		if i == len(path)-1 {
			parent = fork
		} else {
			parent = path[i+1]
		}
		if parent != NoHandle {
			cs.node(parent).NextOnBest = cur
		}
	}

	tip := cs.node(newTip)
	if oldTip != NoHandle && fork != oldTip {
		if !cs.splits[cs.node(fork).Hash] {
			log.Printf("chain split detected at %v, new best tip %v", cs.node(fork).Hash, tip.Hash)
			cs.splits[cs.node(fork).Hash] = true
		}
	}

	cs.bestTip = newTip
	cs.bestHeight = tip.Height
	cs.bestChainWork = new(big.Int).Set(tip.ChainWork)
}

// findFork returns the handle at which the branches through a and b
// converge, walking both back by height until they match.
func (cs *ChainState) findFork(a, b Handle) Handle {
	if a == NoHandle {
		return NoHandle
	}
	na, nb := cs.node(a), cs.node(b)
	for na.Height > nb.Height {
		a = na.Parent
		na = cs.node(a)
	}
	for nb.Height > na.Height {
		b = nb.Parent
		nb = cs.node(b)
	}
	for a != b {
		a = na.Parent
		b = nb.Parent
		na = cs.node(a)
		nb = cs.node(b)
	}
	return a
}

// ReorgPlan is the (disconnect, connect) block list produced by
// PlanReorganize: disconnect lists blocks from the old tip down to
// (not including) the fork point, in descending height; connect lists
// blocks from just after the fork up to the new tip, in ascending
// height. Postponed holds the tail of the connect side that the
// caller should reconnect one block at a time, in its own storage
// transaction, after committing the rest of the plan — see
// PlanReorganize.
type ReorgPlan struct {
	Fork       Handle
	Disconnect []Handle // descending height, old tip first
	Connect    []Handle // ascending height, fork's child first
	Postponed  []Handle // ascending height, continues after Connect
}

// PlanReorganize computes the reorganize(new_tip) walk described in
// the spec, without mutating any state. from is the tip the caller's
// storage has actually caught up to — not necessarily cs.BestTip(),
// since AddToBlockIndex tracks the best chain by header work alone and
// may already have run ahead of validation by any number of blocks.
// The caller runs this, then performs the actual disconnect/connect
// work against the storage engine inside a single transaction, then
// calls CommitReorg.
//
// Reorganizing is costly in storage load, since it runs inside one
// transaction: the connect side is split at the oldest ancestor that,
// on its own, already carries more chain work than from — anything
// above that point is postponed, to be reconnected one block at a
// time (each in its own transaction) once the main switch has landed.
func (cs *ChainState) PlanReorganize(from, newTip Handle) (*ReorgPlan, error) {
	fork := cs.findFork(from, newTip)
	if fork == NoHandle && from != NoHandle {
		return nil, fmt.Errorf("no common ancestor between %v and %v", cs.node(from).Hash, cs.node(newTip).Hash)
	}

	var disconnect []Handle
	for h := from; h != NoHandle && h != fork; {
		disconnect = append(disconnect, h)
		h = cs.node(h).Parent
	}

	fromWork := big.NewInt(0)
	if from != NoHandle {
		fromWork = cs.node(from).ChainWork
	}

	intermediate := newTip
	var postponedDesc []Handle
	for {
		n := cs.node(intermediate)
		if n == nil || n.Parent == NoHandle {
			break
		}
		parentWork := cs.node(n.Parent).ChainWork
		if parentWork.Cmp(fromWork) <= 0 {
			break
		}
		postponedDesc = append(postponedDesc, intermediate)
		intermediate = n.Parent
	}
	postponed := make([]Handle, len(postponedDesc))
	for i, h := range postponedDesc {
		postponed[len(postponedDesc)-1-i] = h
	}

	var connectRev []Handle
	for h := intermediate; h != NoHandle && h != fork; {
		connectRev = append(connectRev, h)
		h = cs.node(h).Parent
	}
	connect := make([]Handle, len(connectRev))
	for i, h := range connectRev {
		connect[len(connectRev)-1-i] = h
	}

	return &ReorgPlan{Fork: fork, Disconnect: disconnect, Connect: connect, Postponed: postponed}, nil
}

// CommitReorg applies the in-memory NextOnBest/bestTip mutation after
// the caller's storage transaction for the plan has committed. This is
// the "no longer atomic w.r.t. crashes" half of reorganize(): on
// restart after a crash here, the persisted best-chain-hash pointer
// (written inside the storage transaction) is authoritative and the
// in-memory graph is rebuilt from read_block_index() to match it.
func (cs *ChainState) CommitReorg(plan *ReorgPlan, newTip Handle) {
	cs.setBestChain(newTip)
}

// MarkInvalid records a branch as failed (BIP-style BLOCK_FAILED_VALID)
// and, if its chain_work exceeds the recorded best-invalid-work, updates
// that record. An invalid block at a higher-work branch never replaces
// the best chain, per the spec's error-propagation note.
func (cs *ChainState) MarkInvalid(h Handle) {
	n := cs.node(h)
	if n == nil {
		return
	}
	n.Status |= StatusFailedValid
	if n.ChainWork.Cmp(cs.bestInvalidWork) > 0 {
		cs.bestInvalidWork = new(big.Int).Set(n.ChainWork)
	}
}

// Size returns the number of indexed nodes, for diagnostics/tests.
func (cs *ChainState) Size() int { return len(cs.arena) }

// LoadChainState rebuilds a ChainState from every block-index record a
// storage.Engine holds, plus its persisted best-chain-hash pointer.
// This is the single full scan a restarting node performs instead of
// trusting any in-memory structure to have survived the process that
// stopped (or crashed) holding it; the caller gets records and the
// best hash from an Engine via ReadBlockIndex/HashBestChain before the
// rest of the node starts touching ChainState.
func LoadChainState(params *xcoin.Params, records []*storage.DiskBlockIndex, bestHash xcoin.Uint256, haveBest bool) (*ChainState, error) {
	cs := NewChainState(params)
	if len(records) == 0 {
		return cs, nil
	}

	sorted := make([]*storage.DiskBlockIndex, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Height < sorted[j].Height })

	tip := NoHandle
	for _, r := range sorted {
		h, err := cs.addIndexedNode(r)
		if err != nil {
			return nil, err
		}
		if haveBest && r.Hash == bestHash {
			tip = h
		}
	}

	if haveBest {
		if tip == NoHandle {
			return nil, fmt.Errorf("chainindex: best chain hash %v not found among loaded records", bestHash)
		}
		cs.setBestChain(tip)
	}
	return cs, nil
}

// addIndexedNode links a single persisted record into the arena
// without touching the best-chain view; LoadChainState inserts every
// record this way, then sets the best chain once at the end, so that
// loading a record for a losing branch before its winning sibling
// never triggers a spurious reorg against a still-incomplete arena.
func (cs *ChainState) addIndexedNode(r *storage.DiskBlockIndex) (Handle, error) {
	if _, exists := cs.byHash[r.Hash]; exists {
		return NoHandle, fmt.Errorf("chainindex: duplicate block index record %v", r.Hash)
	}

	n := Node{
		Hash:       r.Hash,
		Header:     r.Header,
		Height:     r.Height,
		ChainWork:  new(big.Int).SetBytes(r.ChainWork),
		Parent:     NoHandle,
		NextOnBest: NoHandle,
		File:       r.Pos.File,
		Pos:        r.Pos.Pos,
		Status:     Status(r.Status),
	}
	if parentHandle, ok := cs.byHash[r.ParentHash]; ok {
		n.Parent = parentHandle
	} else if r.Height != 0 {
		return NoHandle, fmt.Errorf("chainindex: unknown parent %v for block %v", r.ParentHash, r.Hash)
	}

	handle := Handle(len(cs.arena))
	cs.arena = append(cs.arena, n)
	cs.byHash[r.Hash] = handle
	return handle, nil
}

// SubmitBlock is the re-acquire-and-revalidate entry point an external
// block producer uses: it mines against expectedParent without
// holding the main lock, then calls SubmitBlock with the result.
// SubmitBlock takes the lock itself, checks the tip hasn't moved out
// from under the solved header, and only then links it in — if some
// other block connected in the meantime, the caller gets an error
// back and goes around again rather than forking off a stale parent.
func (cs *ChainState) SubmitBlock(header xcoin.BlockHeader, expectedParent xcoin.Uint256) (Handle, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.bestTip != NoHandle && cs.node(cs.bestTip).Hash != expectedParent {
		return NoHandle, fmt.Errorf("tip moved to %v since mining started against %v", cs.node(cs.bestTip).Hash, expectedParent)
	}
	return cs.AddToBlockIndex(header)
}
