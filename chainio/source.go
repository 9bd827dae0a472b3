// Package chainio bridges the consensus-facing storage.Engine and
// blockstore.Store into the txvalidate.Source / mempool.TxIndex
// contracts the validation packages expect, and persists the effects
// of a connected or disconnected block. It is the one place that
// knows both "how a tx is addressed on disk" and "what the validators
// need to look one up" — grounded on the teacher's leveldb.go/db
// packages performing the analogous bridging job for its own model.
package chainio

import (
	"fmt"

	"github.com/blkchain/xcoin/blockstore"
	"github.com/blkchain/xcoin/storage"
	"github.com/blkchain/xcoin/txvalidate"
	"github.com/blkchain/xcoin/xcoin"
)

// Index is the persistent TxIndex: every transaction connected to the
// active chain is reachable through it, addressed by the DiskPos of
// the block that contains it (an Open Question resolution — the
// storage engine contract's TxIndex entries and the block index's
// entries share the same block-level granularity, since the block
// file format never records a finer-grained offset).
type Index struct {
	engine storage.Engine
	blocks *blockstore.Store
}

func New(engine storage.Engine, blocks *blockstore.Store) *Index {
	return &Index{engine: engine, blocks: blocks}
}

// Lookup implements txvalidate.Source by reading the persisted
// TxIndex entry for hash (via a fresh read-only transaction) and then
// pulling the transaction itself out of the block it names.
func (ix *Index) Lookup(hash xcoin.Uint256) (*txvalidate.TxRecord, bool) {
	tx, err := ix.engine.Begin()
	if err != nil {
		return nil, false
	}
	defer tx.Abort()

	entry, ok, err := tx.ReadTxIndex(hash)
	if err != nil || !ok {
		return nil, false
	}

	b, err := ix.blocks.ReadAt(entry.Pos)
	if err != nil {
		return nil, false
	}
	found := findTx(b, hash)
	if found == nil {
		return nil, false
	}

	spent := make([]bool, len(found.TxOuts))
	for i, s := range entry.Spent {
		if i < len(spent) {
			spent[i] = s != nil
		}
	}
	return &txvalidate.TxRecord{Tx: found, Height: entry.Height, InBlock: true, Spent: spent}, true
}

// Contains implements mempool.TxIndex.
func (ix *Index) Contains(hash xcoin.Uint256) bool {
	tx, err := ix.engine.Begin()
	if err != nil {
		return false
	}
	defer tx.Abort()
	has, err := tx.ContainsTx(hash)
	return err == nil && has
}

func findTx(b *xcoin.Block, hash xcoin.Uint256) *xcoin.Tx {
	for _, t := range b.Txs {
		if t.Hash() == hash {
			return t
		}
	}
	return nil
}

// ApplyConnect persists the TxIndex effects of connecting block b at
// height within the given storage transaction: every one of its own
// transactions gets a fresh entry (with an all-unspent Spent vector
// sized to its outputs) and every input it spends gets that
// predecessor's corresponding Spent flag set, mirroring the spec's
// update_tx_index/read-modify-write pattern for connect_block.
func ApplyConnect(stx storage.Tx, b *xcoin.Block, height uint32, pos storage.DiskPos) error {
	hash := b.Hash()
	for _, t := range b.Txs {
		if err := stx.UpdateTxIndex(t.Hash(), &storage.TxIndexEntry{
			BlockHash: hash,
			Height:    height,
			Pos:       pos,
			Spent:     make([]*storage.DiskPos, len(t.TxOuts)),
		}); err != nil {
			return fmt.Errorf("chainio: indexing tx %v: %w", t.Hash(), err)
		}
	}

	for _, t := range b.Txs {
		if t.IsCoinBase() {
			continue
		}
		for _, in := range t.TxIns {
			if err := markSpent(stx, in.PrevOut.Hash, in.PrevOut.N, pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyDisconnect reverses ApplyConnect: every spend this block made
// is un-marked, and the block's own transactions are erased from the
// index (their outputs no longer exist on the active chain).
func ApplyDisconnect(stx storage.Tx, b *xcoin.Block) error {
	for i := len(b.Txs) - 1; i >= 0; i-- {
		t := b.Txs[i]
		if t.IsCoinBase() {
			continue
		}
		for _, in := range t.TxIns {
			if err := markSpent(stx, in.PrevOut.Hash, in.PrevOut.N, storage.DiskPos{}); err != nil {
				return err
			}
		}
	}
	for _, t := range b.Txs {
		if err := stx.EraseTxIndex(t.Hash()); err != nil {
			return fmt.Errorf("chainio: un-indexing tx %v: %w", t.Hash(), err)
		}
	}
	return nil
}

// markSpent flips entry.Spent[n] for hash to pos (spent) or nil
// (unspent, when pos is the zero value), read-modify-writing the
// TxIndex entry.
func markSpent(stx storage.Tx, hash xcoin.Uint256, n uint32, pos storage.DiskPos) error {
	entry, ok, err := stx.ReadTxIndex(hash)
	if err != nil {
		return fmt.Errorf("chainio: reading tx index for %v: %w", hash, err)
	}
	if !ok || int(n) >= len(entry.Spent) {
		return fmt.Errorf("chainio: spend of unknown output %v:%d", hash, n)
	}
	if pos == (storage.DiskPos{}) {
		entry.Spent[n] = nil
	} else {
		p := pos
		entry.Spent[n] = &p
	}
	return stx.UpdateTxIndex(hash, entry)
}
