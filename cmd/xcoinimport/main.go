package main

import (
	"flag"
	"log"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/blkchain/xcoin/blockstore"
	"github.com/blkchain/xcoin/blockvalidate"
	"github.com/blkchain/xcoin/budget"
	"github.com/blkchain/xcoin/chainindex"
	"github.com/blkchain/xcoin/rlimit"
	"github.com/blkchain/xcoin/storage"
	"github.com/blkchain/xcoin/storage/leveldb"
	"github.com/blkchain/xcoin/storage/postgres"
	"github.com/blkchain/xcoin/xcoin"
)

// xcoinimport does a one-time bulk replay of a pre-existing
// Core-compatible datadir (its "blocks/index" LevelDB and blk#####.dat
// files) into this node's own storage.Engine and blockstore.Store,
// optionally mirroring every connected block into a Postgres
// read-replica as it goes. It trusts the source chain's own recorded
// validity status and height-ordered, orphan-eliminated header list
// (see leveldb.ReadCoreBlockHeaderIndex) rather than re-deriving a
// fork choice: a one-time migration from a node that already settled
// on a single best chain has no forks left to choose between.
func main() {
	blocksPath := flag.String("blocks", "", "/path/to/source blocks directory (contains index/ and blk#####.dat)")
	indexPath := flag.String("index", "", "/path/to/source blocks/index (levelDb); defaults to <blocks>/index")
	outDatadir := flag.String("out-datadir", "", "/path/to/this node's leveldb block-index directory")
	outBlocksdir := flag.String("out-blocksdir", "", "/path/to/this node's block file directory")
	testNet := flag.Bool("testnet", false, "use testnet magic")
	connstr := flag.String("connstr", "", "optional Postgres connection string for the read-replica writer")
	pgCacheSize := flag.Int("pg-cache-size", 30_000_000, "tx id cache size for the Postgres writer")
	flag.Parse()

	if *blocksPath == "" || *outDatadir == "" || *outBlocksdir == "" {
		log.Fatalf("-blocks, -out-datadir and -out-blocksdir are required")
	}
	if *indexPath == "" {
		*indexPath = filepath.Join(*blocksPath, "index")
	}

	network := xcoin.MainNet
	if *testNet {
		network = xcoin.TestNet
	}
	params := xcoin.ParamsForNetwork(network)

	if err := rlimit.SetRLimit(1024); err != nil {
		log.Printf("could not raise open file rlimit: %v", err)
	}

	interrupt := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("interrupt received, finishing current block then exiting...")
		close(interrupt)
	}()

	log.Printf("reading source block-index headers from %s...", *indexPath)
	headers, err := leveldb.ReadCoreBlockHeaderIndex(*indexPath, *blocksPath)
	if err != nil {
		log.Fatalf("reading source block index: %v", err)
	}
	log.Printf("read %d block headers.", headers.Count())

	srcStore, err := blockstore.Open(*blocksPath, params.Magic)
	if err != nil {
		log.Fatalf("opening source block store: %v", err)
	}
	defer srcStore.Close()

	engine, err := leveldb.Open(*outDatadir)
	if err != nil {
		log.Fatalf("opening destination block index: %v", err)
	}
	defer engine.Close()

	dstStore, err := blockstore.Open(*outBlocksdir, params.Magic)
	if err != nil {
		log.Fatalf("opening destination block store: %v", err)
	}
	defer dstStore.Close()

	var pg *postgres.Writer
	if *connstr != "" {
		pg, err = postgres.NewWriter(*connstr, *pgCacheSize)
		if err != nil {
			log.Fatalf("opening Postgres writer: %v", err)
		}
		defer pg.Close()
	}

	// Resume where a previous, interrupted run left off: skip every
	// header whose block is already in the destination index.
	records, err := engine.ReadBlockIndex()
	if err != nil {
		log.Fatalf("reading destination block index: %v", err)
	}
	seen := make(map[xcoin.Uint256]bool, len(records))
	for _, r := range records {
		seen[r.Hash] = true
	}

	bestHash, haveBest, err := engine.HashBestChain()
	if err != nil {
		log.Fatalf("reading destination best-chain hash: %v", err)
	}
	chain, err := chainindex.LoadChainState(params, records, bestHash, haveBest)
	if err != nil {
		log.Fatalf("rebuilding destination chain state: %v", err)
	}

	imported := 0
	for headers.Next() {
		select {
		case <-interrupt:
			log.Printf("stopping at height %d on interrupt.", headers.CurrentHeight())
			return
		default:
		}

		bh := headers.BlockHeader()
		if bh == nil {
			break
		}
		hash := bh.Hash()
		if seen[hash] {
			continue
		}

		b, err := srcStore.ReadAt(storage.DiskPos{File: int32(bh.FileN), Pos: int64(bh.DataPos)})
		if err != nil {
			log.Fatalf("reading block at height %d: %v", headers.CurrentHeight(), err)
		}

		var parent *chainindex.Node
		height := uint32(headers.CurrentHeight())
		chainWork := blockWork(b.BlockHeader.Bits)
		if height > 0 {
			parentHandle, ok := chain.Lookup(b.BlockHeader.PrevHash)
			if !ok {
				log.Fatalf("height %d: parent %v not found in destination chain", height, b.BlockHeader.PrevHash)
			}
			parent = chain.Node(parentHandle)
			chainWork = new(big.Int).Add(parent.ChainWork, chainWork)
		}

		if err := blockvalidate.CheckBlock(b, int64(b.BlockHeader.Time)); err != nil {
			log.Fatalf("height %d (%v) failed structural checks: %v", height, hash, err)
		}
		if parent != nil {
			if err := blockvalidate.AcceptBlock(chain, parent, b, params.Network, params.GenesisBits, nil); err != nil {
				log.Fatalf("height %d (%v) rejected: %v", height, hash, err)
			}
		}

		pos, err := dstStore.Append(b)
		if err != nil {
			log.Fatalf("writing block at height %d: %v", height, err)
		}

		stx, err := engine.Begin()
		if err != nil {
			log.Fatalf("begin: %v", err)
		}
		if err := stx.WriteBlockIndex(&storage.DiskBlockIndex{
			Hash:       hash,
			ParentHash: b.BlockHeader.PrevHash,
			Header:     *b.BlockHeader,
			Height:     height,
			ChainWork:  chainWork.Bytes(),
			Pos:        pos,
		}); err != nil {
			stx.Abort()
			log.Fatalf("staging block index record at height %d: %v", height, err)
		}
		if err := stx.WriteHashBestChain(hash); err != nil {
			stx.Abort()
			log.Fatalf("staging best-chain hash at height %d: %v", height, err)
		}
		if err := stx.Commit(); err != nil {
			log.Fatalf("committing block index record at height %d: %v", height, err)
		}

		if _, err := chain.AddToBlockIndex(*b.BlockHeader); err != nil {
			log.Fatalf("linking block at height %d into the index: %v", height, err)
		}

		if pg != nil {
			ledger := budget.LedgerForBlock(b)
			if err := pg.WriteConnectedBlock(height, hash, b, ledger); err != nil {
				log.Printf("postgres: writing height %d: %v", height, err)
			}
		}

		imported++
		if imported%10000 == 0 {
			log.Printf("imported %d blocks, now at height %d...", imported, height)
		}
	}

	log.Printf("import done, %d new blocks imported.", imported)
}

func blockWork(bits uint32) *big.Int {
	target := chainindex.CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}
	denom := new(big.Int).Add(target, big.NewInt(1))
	numerator := new(big.Int).Lsh(big.NewInt(1), 256)
	return numerator.Quo(numerator, denom)
}
