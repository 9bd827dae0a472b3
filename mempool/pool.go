// Package mempool holds accepted-but-unconfirmed transactions,
// enforces relay policy and fee floors, and tracks orphan
// transactions whose parents haven't arrived yet.
package mempool

import (
	"sync"

	"github.com/decred/dcrd/lru"

	"github.com/blkchain/xcoin/consensus"
	"github.com/blkchain/xcoin/txvalidate"
	"github.com/blkchain/xcoin/xcoin"
)

// recentRejectsCacheSize bounds how many recently-rejected tx hashes
// Accept remembers, so a peer re-announcing the same bad transaction
// doesn't pay for full input-fetch and script verification again on
// every relay.
const recentRejectsCacheSize = 10000

// Pool is the in-memory unconfirmed transaction set. It nests its own
// RWMutex beneath the chain's main lock, consistently: callers that
// also touch ChainState acquire that lock first.
type Pool struct {
	mu            sync.RWMutex
	byHash        map[xcoin.Uint256]*xcoin.Tx
	byOutpoint    map[xcoin.OutPoint]xcoin.Uint256
	recentRejects lru.Cache
	limiter       *FreeTxRateLimiter
	testNet       bool
}

// New builds an empty pool.
func New(testNet bool) *Pool {
	return &Pool{
		byHash:        make(map[xcoin.Uint256]*xcoin.Tx),
		byOutpoint:    make(map[xcoin.OutPoint]xcoin.Uint256),
		recentRejects: lru.NewCache(recentRejectsCacheSize),
		limiter:       NewFreeTxRateLimiter(1.0),
		testNet:       testNet,
	}
}

// TxIndex is the read side of the persistent TxIndex the storage
// engine exposes; Accept consults it via FetchInputs's Source chain.
type TxIndex interface {
	txvalidate.Source
	Contains(hash xcoin.Uint256) bool
}

func (p *Pool) asSource() txvalidate.MapSource {
	out := make(txvalidate.MapSource, len(p.byHash))
	for hash, tx := range p.byHash {
		spent := make([]bool, len(tx.TxOuts))
		for outpoint, spender := range p.byOutpoint {
			if outpoint.Hash == hash {
				_ = spender
				spent[outpoint.N] = true
			}
		}
		out[hash] = &txvalidate.TxRecord{Tx: tx, Spent: spent}
	}
	return out
}

// Accept implements the spec's accept(tx) algorithm. bestHeight is the
// current chain tip height; index is the persistent TxIndex; verify is
// the signature oracle, forwarded to ConnectInputs.
func (p *Pool) Accept(tx *xcoin.Tx, bestHeight uint32, index TxIndex, verify txvalidate.VerifySignature, now int64, walletOriginated bool) (xcoin.Amount, error) {
	if err := txvalidate.CheckTransaction(tx); err != nil {
		return xcoin.Zero(), err
	}

	if tx.RefHeight > bestHeight+xcoin.MempoolMaxRefHeightAhead {
		return xcoin.Zero(), consensus.New(consensus.PolicyReject, "ref_height %d too far ahead of best height %d", tx.RefHeight, bestHeight)
	}
	if tx.IsCoinBase() {
		return xcoin.Zero(), consensus.New(consensus.Invalid, "coinbase transaction cannot enter the mempool").WithScore(100)
	}
	if tx.LockTime >= 1<<31 {
		return xcoin.Zero(), consensus.New(consensus.PolicyReject, "lock_time not representable as int32")
	}
	if err := txvalidate.IsStandard(tx, p.testNet); err != nil {
		return xcoin.Zero(), err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	hash := tx.Hash()
	if _, exists := p.byHash[hash]; exists {
		return xcoin.Zero(), consensus.New(consensus.Duplicate, "tx %v already in mempool", hash)
	}
	if index.Contains(hash) {
		return xcoin.Zero(), consensus.New(consensus.Duplicate, "tx %v already confirmed", hash)
	}
	if p.recentRejects.Contains(hash) {
		return xcoin.Zero(), consensus.New(consensus.Duplicate, "tx %v was recently rejected", hash)
	}

	for _, in := range tx.TxIns {
		if spender, conflict := p.byOutpoint[in.PrevOut]; conflict {
			return xcoin.Zero(), consensus.New(consensus.PolicyReject, "input %v already spent by mempool tx %v (replacement disabled)", in.PrevOut, spender)
		}
	}

	sources := txvalidate.ChainSources{index, p.asSource()}
	fetched, err := txvalidate.FetchInputs(tx, sources)
	if err != nil {
		if _, ok := consensus.IsConsensusError(err); ok {
			p.recentRejects.Add(hash)
		}
		return xcoin.Zero(), err
	}

	if err := txvalidate.AreInputsStandard(tx, fetched, p.testNet); err != nil {
		return xcoin.Zero(), err
	}

	hasTinyOutput := false
	for _, out := range tx.TxOuts {
		if out.Value < xcoin.COIN/100 {
			hasTinyOutput = true
		}
	}
	minFee := MinFee(tx.Size(), RelayBaseFee, true, hasTinyOutput, 0)

	testPool := txvalidate.MapSource{}
	for _, f := range fetched {
		testPool[f.Record.Tx.Hash()] = f.Record
	}
	fee, err := txvalidate.ConnectInputs(tx, fetched, bestHeight, verify, false)
	if err != nil {
		if _, ok := consensus.IsConsensusError(err); ok {
			p.recentRejects.Add(hash)
		}
		return xcoin.Zero(), err
	}

	if fee.Cmp(minFee) < 0 {
		if !p.limiter.AllowAndRecord(now, tx.Size(), walletOriginated) {
			return xcoin.Zero(), consensus.New(consensus.PolicyReject, "free transaction relay rate exceeded")
		}
	}

	p.byHash[hash] = tx
	for _, in := range tx.TxIns {
		p.byOutpoint[in.PrevOut] = hash
	}

	return fee, nil
}

// Remove deletes a tx (e.g. because it was included in a connected
// block, or conflicted with one) from the pool.
func (p *Pool) Remove(hash xcoin.Uint256) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remove(hash)
}

func (p *Pool) remove(hash xcoin.Uint256) {
	tx, ok := p.byHash[hash]
	if !ok {
		return
	}
	delete(p.byHash, hash)
	for _, in := range tx.TxIns {
		if p.byOutpoint[in.PrevOut] == hash {
			delete(p.byOutpoint, in.PrevOut)
		}
	}
}

// Get returns the pooled transaction by hash, if present.
func (p *Pool) Get(hash xcoin.Uint256) (*xcoin.Tx, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tx, ok := p.byHash[hash]
	return tx, ok
}

// Size returns the number of pooled transactions.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byHash)
}

// Hashes returns a snapshot of every pooled tx hash, for inventory
// announcements.
func (p *Pool) Hashes() []xcoin.Uint256 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]xcoin.Uint256, 0, len(p.byHash))
	for h := range p.byHash {
		out = append(out, h)
	}
	return out
}
