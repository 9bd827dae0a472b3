package leveldb

import (
	"bytes"
	"fmt"
	"log"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/blkchain/xcoin/txvalidate"
	"github.com/blkchain/xcoin/xcoin"
)

// CoreBlockHeaderIndex iterates the block-index records of a
// pre-existing Bitcoin-Core-compatible datadir, in height order, so a
// one-time migration loader can rebuild chainindex.ChainState and
// storage.Engine from it without replaying every block body up front.
// This consolidates what used to be two near-identical readers (one
// for the node's own chainstate directory, one nested under a
// migration-specific subpackage) into a single implementation.
type CoreBlockHeaderIndex struct {
	m                    map[int][]*xcoin.IdxBlockHeader
	blocksPath           string
	height, maxHeight, n int
	count                int
}

func (bi *CoreBlockHeaderIndex) Next() bool {
	if len(bi.m) == 0 {
		return false
	}
	if bi.n < len(bi.m[bi.height])-1 {
		bi.n++
	} else if bi.height < bi.maxHeight {
		bi.height++
		bi.n = 0
	} else {
		return false
	}
	return true
}

func (bi *CoreBlockHeaderIndex) BlockHeader() *xcoin.IdxBlockHeader {
	if len(bi.m[bi.height]) == 0 {
		return nil
	}
	return bi.m[bi.height][bi.n]
}

func (bi *CoreBlockHeaderIndex) Start(height int) {
	bi.height = height
}

func (bi *CoreBlockHeaderIndex) Count() int {
	return bi.count
}

func (bi *CoreBlockHeaderIndex) CurrentHeight() int {
	return bi.height
}

// ReadCoreBlockHeaderIndex opens path (Core's "blocks/index" LevelDB
// directory) read-only, decodes every block-index record reachable
// from the "b" key prefix, and eliminates orphans by walking the chain
// backwards from its highest height — the same strategy the original
// Core-compatible readers used, since a long-running full node
// inevitably accumulates headers for blocks that were later
// reorganised away.
func ReadCoreBlockHeaderIndex(path, blocksPath string) (*CoreBlockHeaderIndex, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// n starts at -1 so the first Next() lands on height 0's entry.
	result := &CoreBlockHeaderIndex{
		m:          make(map[int][]*xcoin.IdxBlockHeader, 500000),
		blocksPath: blocksPath,
		n:          -1,
	}

	iter := db.NewIterator(util.BytesPrefix([]byte("b")), nil)
	defer iter.Release()
	for iter.Next() {
		var bh xcoin.IdxBlockHeader
		if err := xcoin.BinRead(&bh, bytes.NewReader(iter.Value())); err != nil {
			return nil, err
		}

		if (uint32(bh.Status) & xcoin.BLOCK_VALID_CHAIN) != xcoin.BLOCK_VALID_CHAIN {
			continue
		}

		h := int(bh.Height)
		if h > result.maxHeight {
			result.maxHeight = h
		}
		result.m[h] = append(result.m[h], &bh)
		result.count++
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	if len(result.m[result.maxHeight]) > 1 {
		return nil, fmt.Errorf("chain is presently at a split at height %d, cannot migrate", result.maxHeight)
	}
	if len(result.m[result.maxHeight]) == 0 {
		return result, nil
	}

	prevHash := result.m[result.maxHeight][0].PrevHash
	for h := result.maxHeight - 1; h > 0; h-- {
		if len(result.m[h]) > 1 {
			var keep []*xcoin.IdxBlockHeader
			for _, bh := range result.m[h] {
				if bh.Hash() == prevHash {
					keep = append(keep, bh)
				} else {
					log.Printf("ignoring orphan block %s at height %d", bh.Hash(), h)
					result.count--
				}
			}
			if len(keep) != 1 {
				return nil, fmt.Errorf("could not find a unique valid parent eliminating orphans at height %d", h)
			}
			result.m[h] = keep
		}
		if len(result.m[h]) > 0 {
			prevHash = result.m[h][0].PrevHash
		}
	}

	return result, nil
}

// ChainStateReader answers UTXO-set membership queries against Core's
// "chainstate" LevelDB directory. cmd/xcoinnode opens one for its
// -chainstate flag and wraps it in a CoreUTXOSource.
type ChainStateReader struct {
	*leveldb.DB
	iterator.Iterator
}

func OpenChainStateReader(path string) (*ChainStateReader, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return &ChainStateReader{DB: db}, nil
}

func (r *ChainStateReader) IsUTXO(hash xcoin.Uint256, n uint32) (bool, error) {
	w := bytes.NewBuffer(make([]byte, 0, 40))
	w.WriteByte('C')
	if err := xcoin.BinWrite(&xcoin.DbOutPoint{Hash: hash, N: n}, w); err != nil {
		return false, err
	}
	return r.Has(w.Bytes(), nil)
}

// IterateUTXOs opens a fresh iterator over the "C"-prefixed outpoint
// keys, for a full one-time UTXO-set import rather than point lookups.
func (r *ChainStateReader) IterateUTXOs() *ChainStateReader {
	iter := r.DB.NewIterator(util.BytesPrefix([]byte("C")), nil)
	return &ChainStateReader{DB: r.DB, Iterator: iter}
}

func (r *ChainStateReader) GetUTXO() (*xcoin.UTXO, error) {
	var u xcoin.UTXO
	if err := xcoin.BinRead(&u.DbOutPoint, bytes.NewReader(r.Key()[1:])); err != nil {
		return nil, err
	}
	if err := xcoin.BinRead(&u, bytes.NewReader(r.Value())); err != nil {
		return nil, err
	}
	return &u, nil
}

// CoreUTXOSource adapts a Core-compatible chainstate snapshot into a
// txvalidate.Source, so a validating node (cmd/xcoinnode with
// -chainstate) can resolve inputs that spend coins older than its own
// transaction index. Chainstate only records
// currently-unspent outputs, one per "C"-prefixed key, so Lookup scans
// every key sharing a txid's prefix and treats any output index with
// no matching key as already spent — exactly chainstate's own
// unspent-only invariant. Its entries carry no ref_height (they
// predate this ledger's demurrage extension), so the synthesized
// record uses the coin's mint height as ref_height, the only anchor
// a pre-migration coin has.
type CoreUTXOSource struct {
	db *leveldb.DB
}

// NewCoreUTXOSource wraps an already-open chainstate reader's
// database handle for per-txid outpoint lookups.
func NewCoreUTXOSource(r *ChainStateReader) *CoreUTXOSource {
	return &CoreUTXOSource{db: r.DB}
}

func (s *CoreUTXOSource) Lookup(hash xcoin.Uint256) (*txvalidate.TxRecord, bool) {
	prefix := make([]byte, 0, 33)
	prefix = append(prefix, 'C')
	prefix = append(prefix, hash[:]...)

	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	type found struct {
		n        uint32
		out      xcoin.TxOut
		height   uint32
		coinbase bool
	}
	var entries []found
	maxN := uint32(0)

	for iter.Next() {
		var outpoint xcoin.DbOutPoint
		if err := xcoin.BinRead(&outpoint, bytes.NewReader(iter.Key()[1:])); err != nil {
			continue
		}
		var u xcoin.UTXO
		if err := xcoin.BinRead(&u, bytes.NewReader(iter.Value())); err != nil {
			continue
		}
		if outpoint.N > maxN {
			maxN = outpoint.N
		}
		entries = append(entries, found{n: outpoint.N, out: u.TxOut, height: uint32(u.Height), coinbase: u.Coinbase})
	}
	if len(entries) == 0 {
		return nil, false
	}

	outs := make(xcoin.TxOutList, maxN+1)
	spent := make([]bool, maxN+1)
	for i := range spent {
		spent[i] = true
	}
	var refHeight uint32
	var coinbase bool
	for _, e := range entries {
		out := e.out
		outs[e.n] = &out
		spent[e.n] = false
		refHeight = e.height
		coinbase = e.coinbase
	}
	for i, o := range outs {
		if o == nil {
			outs[i] = &xcoin.TxOut{}
		}
	}

	tx := &xcoin.Tx{RefHeight: refHeight, TxOuts: outs}
	if coinbase {
		tx.TxIns = xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}}}
	}

	return &txvalidate.TxRecord{
		Tx:      tx,
		Height:  refHeight,
		InBlock: true,
		Spent:   spent,
	}, true
}
