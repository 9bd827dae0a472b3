// Package storage defines the transactional key-value contract the
// chain manager stages every block connect/disconnect against. The
// core never talks to a concrete database directly: it stages writes
// inside a Tx, and only once the Tx commits does chainindex mutate its
// in-memory next-on-best-chain links, matching the atomicity boundary
// described for AddToBlockIndex and the reorganize loop.
package storage

import "github.com/blkchain/xcoin/xcoin"

// DiskPos locates a record inside the rolling blockstore file set.
type DiskPos struct {
	File int32
	Pos  int64
}

// TxIndexEntry is the persisted shape of a confirmed transaction: where
// its block lives on disk, and which of its outputs have been spent.
// A nil entry in Spent means the corresponding output is unspent; a
// non-nil entry records the DiskPos of the block holding the spending
// transaction, kept
// only so DisconnectBlock can roll the spend back without a rescan.
type TxIndexEntry struct {
	BlockHash xcoin.Uint256
	Height    uint32
	Pos       DiskPos
	Spent     []*DiskPos
}

// DiskBlockIndex is the persisted shape of a chainindex.Node: enough to
// rebuild the whole index with a full scan at startup, before any
// block body has been read back off disk.
type DiskBlockIndex struct {
	Hash       xcoin.Uint256
	ParentHash xcoin.Uint256
	Header     xcoin.BlockHeader
	Height     uint32
	ChainWork  []byte // big.Int.Bytes(), big-endian, always non-negative
	Status     uint32
	Pos        DiskPos
}

// Tx stages a batch of reads and writes. All writes staged since Begin
// become visible to other readers only on Commit; Abort discards them.
// A Tx is not safe for concurrent use — the chain manager's main lock
// already serializes access to it.
type Tx interface {
	ReadTxIndex(hash xcoin.Uint256) (*TxIndexEntry, bool, error)
	UpdateTxIndex(hash xcoin.Uint256, entry *TxIndexEntry) error
	EraseTxIndex(hash xcoin.Uint256) error
	ContainsTx(hash xcoin.Uint256) (bool, error)

	WriteBlockIndex(idx *DiskBlockIndex) error
	WriteHashBestChain(hash xcoin.Uint256) error

	Commit() error
	Abort() error
}

// Engine opens transactions against the persisted chain state and
// supports the one full scan the chain manager needs at startup to
// rebuild chainindex.ChainState's in-memory arena.
type Engine interface {
	Begin() (Tx, error)
	ReadBlockIndex() ([]*DiskBlockIndex, error)
	HashBestChain() (xcoin.Uint256, bool, error)
	Close() error
}
