// Package leveldb is the primary storage.Engine implementation: a
// goleveldb-backed transactional key-value store, plus (in
// corereader.go) a one-time migration reader for a pre-existing
// Bitcoin-Core-compatible datadir.
package leveldb

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/blkchain/xcoin/storage"
	"github.com/blkchain/xcoin/xcoin"
)

// Key prefixes mirror Bitcoin Core's own chainstate/blockindex scheme
// (single-byte tag + payload) closely enough to be recognisable, while
// being specific to this store's record shapes rather than Core's.
const (
	prefixTxIndex    = 't'
	prefixBlockIndex = 'b'
	keyBestChain     = "B"
)

// Engine opens a goleveldb database as the chain manager's persistent
// store. A Tx returned by Begin stages its writes in a leveldb.Batch
// and only touches the database on Commit.
type Engine struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a leveldb database at path.
func Open(path string) (*Engine, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return &Engine{db: db}, nil
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func txIndexKey(hash xcoin.Uint256) []byte {
	k := make([]byte, 0, 33)
	k = append(k, prefixTxIndex)
	return append(k, hash[:]...)
}

func blockIndexKey(hash xcoin.Uint256) []byte {
	k := make([]byte, 0, 33)
	k = append(k, prefixBlockIndex)
	return append(k, hash[:]...)
}

// ReadBlockIndex performs the single full scan chainindex.ChainState
// needs at startup to rebuild its in-memory arena.
func (e *Engine) ReadBlockIndex() ([]*storage.DiskBlockIndex, error) {
	iter := e.db.NewIterator(nil, nil)
	defer iter.Release()

	var out []*storage.DiskBlockIndex
	for iter.Next() {
		k := iter.Key()
		if len(k) == 0 || k[0] != prefixBlockIndex {
			continue
		}
		idx, err := storage.UnmarshalDiskBlockIndex(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("decoding block index record: %w", err)
		}
		out = append(out, idx)
	}
	return out, iter.Error()
}

func (e *Engine) HashBestChain() (xcoin.Uint256, bool, error) {
	v, err := e.db.Get([]byte(keyBestChain), nil)
	if err == leveldb.ErrNotFound {
		return xcoin.Uint256{}, false, nil
	}
	if err != nil {
		return xcoin.Uint256{}, false, err
	}
	var h xcoin.Uint256
	copy(h[:], v)
	return h, true, nil
}

func (e *Engine) Begin() (storage.Tx, error) {
	return &tx{db: e.db, batch: new(leveldb.Batch)}, nil
}

// tx stages writes in a leveldb.Batch. Reads go straight to the
// database, matching goleveldb's lack of snapshot isolation inside an
// un-committed batch — acceptable here because the chain manager's
// main lock already serialises all access to a single Tx at a time.
type tx struct {
	db    *leveldb.DB
	batch *leveldb.Batch
	done  bool
}

func (t *tx) ReadTxIndex(hash xcoin.Uint256) (*storage.TxIndexEntry, bool, error) {
	v, err := t.db.Get(txIndexKey(hash), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	e, err := storage.UnmarshalTxIndexEntry(v)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (t *tx) UpdateTxIndex(hash xcoin.Uint256, entry *storage.TxIndexEntry) error {
	b, err := storage.MarshalTxIndexEntry(entry)
	if err != nil {
		return err
	}
	t.batch.Put(txIndexKey(hash), b)
	return nil
}

func (t *tx) EraseTxIndex(hash xcoin.Uint256) error {
	t.batch.Delete(txIndexKey(hash))
	return nil
}

func (t *tx) ContainsTx(hash xcoin.Uint256) (bool, error) {
	return t.db.Has(txIndexKey(hash), nil)
}

func (t *tx) WriteBlockIndex(idx *storage.DiskBlockIndex) error {
	b, err := storage.MarshalDiskBlockIndex(idx)
	if err != nil {
		return err
	}
	t.batch.Put(blockIndexKey(idx.Hash), b)
	return nil
}

func (t *tx) WriteHashBestChain(hash xcoin.Uint256) error {
	t.batch.Put([]byte(keyBestChain), hash[:])
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("storage: tx already closed")
	}
	t.done = true
	return t.db.Write(t.batch, nil)
}

func (t *tx) Abort() error {
	t.done = true
	t.batch.Reset()
	return nil
}
