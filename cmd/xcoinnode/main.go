package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/blkchain/xcoin/blockstore"
	"github.com/blkchain/xcoin/blockvalidate"
	"github.com/blkchain/xcoin/budget"
	"github.com/blkchain/xcoin/chainindex"
	"github.com/blkchain/xcoin/chainio"
	"github.com/blkchain/xcoin/consensus"
	"github.com/blkchain/xcoin/dispatch"
	"github.com/blkchain/xcoin/mempool"
	"github.com/blkchain/xcoin/netsrc"
	"github.com/blkchain/xcoin/rlimit"
	"github.com/blkchain/xcoin/storage"
	"github.com/blkchain/xcoin/storage/leveldb"
	"github.com/blkchain/xcoin/storage/postgres"
	"github.com/blkchain/xcoin/txvalidate"
	"github.com/blkchain/xcoin/xcoin"
)

func main() {
	datadir := flag.String("datadir", "", "/path/to/leveldb block-index directory")
	blocksdir := flag.String("blocksdir", "", "/path/to/block file directory")
	addr := flag.String("addr", "", "address of a peer to sync from, host:port")
	testnet := flag.Bool("testnet", false, "use testnet parameters")
	connstr := flag.String("connstr", "", "optional Postgres connection string for the read-replica writer")
	pgCacheSize := flag.Int("pg-cache-size", 0, "tx id cache size for the Postgres writer")
	proxy := flag.String("proxy", "", "optional SOCKS5 proxy address for the peer connection")
	timeout := flag.Int("timeout", 30, "peer dial/read timeout in seconds")
	chainstate := flag.String("chainstate", "", "optional /path/to/a Core-compatible chainstate LevelDB, consulted for inputs older than this node's own tx index (e.g. after migrating from a pre-existing datadir without replaying its full history)")
	flag.Parse()

	if *datadir == "" || *blocksdir == "" {
		log.Fatalf("-datadir and -blocksdir are required")
	}
	if *addr == "" {
		log.Fatalf("-addr is required: this node syncs from a single upstream peer")
	}

	network := xcoin.MainNet
	if *testnet {
		network = xcoin.TestNet
	}
	params := xcoin.ParamsForNetwork(network)

	if err := rlimit.SetRLimit(1024); err != nil {
		log.Printf("could not raise open file rlimit: %v", err)
	}

	app, err := newApp(params, *datadir, *blocksdir, *connstr, *pgCacheSize, *chainstate)
	if err != nil {
		log.Fatalf("starting up: %v", err)
	}
	defer app.Close()

	interrupt := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("interrupt received, shutting down...")
		close(interrupt)
	}()

	chainParams := &chaincfg.MainNetParams
	if *testnet {
		chainParams = &chaincfg.TestNet3Params
	}
	node, err := netsrc.Dial(*addr, netsrc.Config{
		ChainParams: chainParams,
		Magic:       params.Magic,
		Timeout:     time.Duration(*timeout) * time.Second,
		Proxy:       *proxy,
	})
	if err != nil {
		log.Fatalf("connecting to %s: %v", *addr, err)
	}
	defer node.Close()

	if app.chain.Size() == 0 {
		log.Printf("empty chain, fetching genesis block %v from %s...", params.GenesisHash, *addr)
		genesis, err := node.GetBlock(params.GenesisHash)
		if err != nil {
			log.Fatalf("fetching genesis block: %v", err)
		}
		if err := app.acceptBlock(genesis); err != nil {
			log.Fatalf("accepting genesis block: %v", err)
		}
	}

	log.Printf("catching up from %s...", *addr)
catchUp:
	for {
		select {
		case <-interrupt:
			return
		default:
		}

		headers, err := node.GetHeaders([]xcoin.Uint256{app.tipHash()})
		if err != nil {
			log.Printf("GetHeaders: %v", err)
			break catchUp
		}
		if len(headers) == 0 {
			break catchUp
		}
		for _, h := range headers {
			b, err := node.GetBlock(h.Hash())
			if err != nil {
				log.Printf("fetching block %v: %v", h.Hash(), err)
				continue
			}
			if err := app.acceptBlock(b); err != nil {
				log.Printf("accepting block %v: %v", b.Hash(), err)
			}
		}
	}
	log.Printf("caught up at height %d, switching to live inventory...", app.chain.BestHeight())

	for {
		select {
		case <-interrupt:
			return
		default:
		}
		b, err := node.WaitForInv(interrupt)
		if err != nil {
			if len(interrupt) == 0 {
				select {
				case <-interrupt:
					return
				default:
					log.Printf("WaitForInv: %v", err)
				}
			}
			continue
		}
		if err := app.acceptBlock(b); err != nil {
			log.Printf("accepting block %v: %v", b.Hash(), err)
		}
	}
}

// App wires every consensus and storage package into a single running
// node: the block-index tree (chainindex), the persistent TxIndex
// (chainio, backed by storage/leveldb and blockstore), the mempool,
// the orphan-block holding pen, the dispatcher's event bus, and an
// optional Postgres read-replica writer.
type App struct {
	params       *xcoin.Params
	engine       *leveldb.Engine
	blocks       *blockstore.Store
	index        *chainio.Index
	chain        *chainindex.ChainState
	pool         *mempool.Pool
	orphans      *blockvalidate.OrphanPool
	bus          *dispatch.EventBus
	dispatcher   *dispatch.Dispatcher
	pg           *postgres.Writer
	posByHash    map[xcoin.Uint256]storage.DiskPos
	validated    chainindex.Handle
	powLimit     uint32
	checkpoints  map[uint32]xcoin.Uint256
	legacyReader *leveldb.ChainStateReader
	legacySource txvalidate.Source
}

func newApp(params *xcoin.Params, datadir, blocksdir, connstr string, pgCacheSize int, chainstatePath string) (*App, error) {
	engine, err := leveldb.Open(datadir)
	if err != nil {
		return nil, fmt.Errorf("opening block index: %w", err)
	}

	blocks, err := blockstore.Open(blocksdir, params.Magic)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("opening block store: %w", err)
	}

	records, err := engine.ReadBlockIndex()
	if err != nil {
		engine.Close()
		blocks.Close()
		return nil, fmt.Errorf("reading block index: %w", err)
	}
	bestHash, haveBest, err := engine.HashBestChain()
	if err != nil {
		engine.Close()
		blocks.Close()
		return nil, fmt.Errorf("reading best chain hash: %w", err)
	}

	chain, err := chainindex.LoadChainState(params, records, bestHash, haveBest)
	if err != nil {
		engine.Close()
		blocks.Close()
		return nil, fmt.Errorf("rebuilding chain state: %w", err)
	}

	posByHash := make(map[xcoin.Uint256]storage.DiskPos, len(records))
	for _, r := range records {
		posByHash[r.Hash] = r.Pos
	}

	validated := chainindex.NoHandle
	if haveBest {
		if h, ok := chain.Lookup(bestHash); ok {
			validated = h
		}
	}

	var pg *postgres.Writer
	if connstr != "" {
		pg, err = postgres.NewWriter(connstr, pgCacheSize)
		if err != nil {
			engine.Close()
			blocks.Close()
			return nil, fmt.Errorf("opening Postgres writer: %w", err)
		}
	}

	bus := dispatch.NewEventBus()

	var legacyReader *leveldb.ChainStateReader
	var legacySource txvalidate.Source
	if chainstatePath != "" {
		legacyReader, err = leveldb.OpenChainStateReader(chainstatePath)
		if err != nil {
			engine.Close()
			blocks.Close()
			if pg != nil {
				pg.Close()
			}
			return nil, fmt.Errorf("opening legacy chainstate: %w", err)
		}
		legacySource = leveldb.NewCoreUTXOSource(legacyReader)
	}

	return &App{
		params:       params,
		engine:       engine,
		blocks:       blocks,
		index:        chainio.New(engine, blocks),
		chain:        chain,
		pool:         mempool.New(params.Network == xcoin.TestNet),
		orphans:      blockvalidate.NewOrphanPool(),
		bus:          bus,
		dispatcher:   dispatch.NewDispatcher(bus),
		pg:           pg,
		posByHash:    posByHash,
		validated:    validated,
		powLimit:     params.GenesisBits,
		checkpoints:  map[uint32]xcoin.Uint256{},
		legacyReader: legacyReader,
		legacySource: legacySource,
	}, nil
}

func (a *App) Close() {
	if a.pg != nil {
		a.pg.Close()
	}
	if a.legacyReader != nil {
		a.legacyReader.Close()
	}
	a.blocks.Close()
	a.engine.Close()
}

func (a *App) tipHash() xcoin.Uint256 {
	a.chain.Lock()
	defer a.chain.Unlock()
	tip := a.chain.BestTip()
	if tip == chainindex.NoHandle {
		return xcoin.Uint256{}
	}
	return a.chain.Node(tip).Hash
}

// acceptBlock runs the full accept pipeline for a freshly received
// block: structural/contextual validation, durable storage of its
// bytes and header-index record, linking it into the block-index
// tree, and (if it extends or overtakes the best chain) activating it
// via activateBestChain. A block whose parent hasn't been seen yet is
// held in the orphan pool instead of rejected outright.
func (a *App) acceptBlock(b *xcoin.Block) error {
	hash := b.Hash()

	a.chain.Lock()
	if _, exists := a.chain.Lookup(hash); exists {
		a.chain.Unlock()
		return nil
	}
	genesis := a.chain.Size() == 0
	var parentNode *chainindex.Node
	if !genesis {
		parentHandle, ok := a.chain.Lookup(b.BlockHeader.PrevHash)
		if !ok {
			a.chain.Unlock()
			a.orphans.Add(b)
			return consensus.New(consensus.MissingParent, "parent %v of block %v not yet known", b.BlockHeader.PrevHash, hash)
		}
		parentNode = a.chain.Node(parentHandle)
	}
	a.chain.Unlock()

	if err := blockvalidate.CheckBlock(b, time.Now().Unix()); err != nil {
		return err
	}
	if !genesis {
		if err := blockvalidate.AcceptBlock(a.chain, parentNode, b, a.params.Network, a.powLimit, a.checkpoints); err != nil {
			return err
		}
	}

	pos, err := a.blocks.Append(b)
	if err != nil {
		return fmt.Errorf("appending block %v to block store: %w", hash, err)
	}

	var height uint32
	var chainWork *big.Int
	if genesis {
		chainWork = blockWork(b.BlockHeader.Bits)
	} else {
		height = parentNode.Height + 1
		chainWork = new(big.Int).Add(parentNode.ChainWork, blockWork(b.BlockHeader.Bits))
	}

	stx, err := a.engine.Begin()
	if err != nil {
		return err
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
		return fmt.Errorf("staging block index record for %v: %w", hash, err)
	}
	if err := stx.Commit(); err != nil {
		return fmt.Errorf("committing block index record for %v: %w", hash, err)
	}

	a.chain.Lock()
	if _, err := a.chain.AddToBlockIndex(*b.BlockHeader); err != nil {
		a.chain.Unlock()
		return fmt.Errorf("linking block %v into the index: %w", hash, err)
	}
	a.chain.Unlock()

	a.posByHash[hash] = pos

	if err := a.activateBestChain(); err != nil {
		return fmt.Errorf("activating best chain through %v: %w", hash, err)
	}

	a.orphans.PromoteChildren(hash, func(child *xcoin.Block) bool {
		return a.acceptBlock(child) == nil
	})

	return nil
}

// activateBestChain catches the persisted TxIndex up to whatever
// chainindex currently considers the best chain by accumulated header
// work, which may have run ahead of validation by any number of
// blocks (a direct extension is the common case; a fork with more
// work triggers a real disconnect/connect reorganisation). All of it
// runs under the chain's main lock. The disconnects and plan.Connect
// run inside a single storage transaction, matching AddToBlockIndex's
// atomicity note: the in-memory best-chain view is only advanced after
// that transaction commits. Blocks in plan.Postponed are then
// connected one at a time, each in its own storage transaction.
func (a *App) activateBestChain() error {
	a.chain.Lock()
	defer a.chain.Unlock()

	target := a.chain.BestTip()
	if target == a.validated {
		return nil
	}

	plan, err := a.chain.PlanReorganize(a.validated, target)
	if err != nil {
		return err
	}

	stx, err := a.engine.Begin()
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			stx.Abort()
		}
	}()

	// Collect the resurrect (disconnected) and delete (connected)
	// block sets while the storage transaction is open, but don't
	// touch the mempool yet: if a later block in this same call fails
	// and stx aborts, mempool mutations already applied for earlier
	// blocks would not roll back with it, leaving the mempool
	// inconsistent with the (aborted) storage state.
	var resurrect, deleteMined []*xcoin.Block

	for _, h := range plan.Disconnect {
		n := a.chain.Node(h)
		b, err := a.blockAt(n)
		if err != nil {
			return err
		}
		blockvalidate.DisconnectBlock(b, a.source())
		if err := chainio.ApplyDisconnect(stx, b); err != nil {
			return err
		}
		resurrect = append(resurrect, b)
	}

	for _, h := range plan.Connect {
		n := a.chain.Node(h)
		b, err := a.blockAt(n)
		if err != nil {
			return err
		}
		bip16Active := b.BlockHeader.Time >= xcoin.BIP16SwitchTime
		if _, err := blockvalidate.ConnectBlock(b, n.Height, a.params.Network, a.source(), a.index.Contains, txvalidate.ScriptVerifySignature, bip16Active); err != nil {
			a.chain.MarkInvalid(h)
			return fmt.Errorf("connecting block %v at height %d: %w", n.Hash, n.Height, err)
		}
		if err := chainio.ApplyConnect(stx, b, n.Height, a.posByHash[n.Hash]); err != nil {
			return err
		}
		deleteMined = append(deleteMined, b)
	}

	// The main transaction's tip is the end of plan.Connect, not
	// necessarily target: a long reorg defers its tail to Postponed,
	// reconnected one block at a time below.
	mainTip := plan.Fork
	if len(plan.Connect) > 0 {
		mainTip = plan.Connect[len(plan.Connect)-1]
	} else if len(plan.Disconnect) == 0 {
		mainTip = a.validated
	}
	mainTipNode := a.chain.Node(mainTip)
	if err := stx.WriteHashBestChain(mainTipNode.Hash); err != nil {
		return err
	}
	if err := stx.Commit(); err != nil {
		return err
	}
	committed = true

	a.chain.CommitReorg(plan, mainTip)
	a.validated = mainTip

	// Only after commit has succeeded does the mempool's view need to
	// track the now-final storage state.
	for _, b := range resurrect {
		a.reinstateMempool(b)
	}
	for _, b := range deleteMined {
		a.removeMinedFromMempool(b)
	}

	if a.pg != nil {
		a.writeThroughToPostgres(plan, mainTipNode)
	}

	a.bus.Publish(dispatch.Event{Kind: dispatch.NewTip, Hash: mainTipNode.Hash, Height: mainTipNode.Height})

	// Postponed reconnects: the blocks above mainTip that already had
	// more chain work than the chain we just switched away from.
	// Errors here are not fatal to the switch already committed above
	// — we stop connecting further and leave the chain at whatever
	// height the postponed walk reached.
	for _, h := range plan.Postponed {
		n := a.chain.Node(h)
		b, err := a.blockAt(n)
		if err != nil {
			log.Printf("postponed reconnect: reading block at height %d: %v", n.Height, err)
			break
		}

		bip16Active := b.BlockHeader.Time >= xcoin.BIP16SwitchTime
		if _, err := blockvalidate.ConnectBlock(b, n.Height, a.params.Network, a.source(), a.index.Contains, txvalidate.ScriptVerifySignature, bip16Active); err != nil {
			a.chain.MarkInvalid(h)
			log.Printf("postponed reconnect: block %v at height %d rejected, stopping: %v", n.Hash, n.Height, err)
			break
		}

		pstx, err := a.engine.Begin()
		if err != nil {
			log.Printf("postponed reconnect: begin: %v", err)
			break
		}
		if err := chainio.ApplyConnect(pstx, b, n.Height, a.posByHash[n.Hash]); err != nil {
			pstx.Abort()
			log.Printf("postponed reconnect: applying block %v: %v", n.Hash, err)
			break
		}
		if err := pstx.WriteHashBestChain(n.Hash); err != nil {
			pstx.Abort()
			log.Printf("postponed reconnect: writing best-chain hash for %v: %v", n.Hash, err)
			break
		}
		if err := pstx.Commit(); err != nil {
			log.Printf("postponed reconnect: commit for %v: %v", n.Hash, err)
			break
		}

		a.chain.CommitReorg(plan, h)
		a.validated = h
		a.removeMinedFromMempool(b)

		if a.pg != nil {
			ledger := budget.LedgerForBlock(b)
			if err := a.pg.WriteConnectedBlock(n.Height, n.Hash, b, ledger); err != nil {
				log.Printf("postgres: writing %v: %v", n.Hash, err)
			}
		}

		a.bus.Publish(dispatch.Event{Kind: dispatch.NewTip, Hash: n.Hash, Height: n.Height})
	}

	return nil
}

// source returns the txvalidate.Source chain block (dis)connection
// consults: the persistent tx index, falling back to a Core-compatible
// chainstate snapshot (if one was supplied via -chainstate) for inputs
// that spend coins older than this run's own index, e.g. a node
// migrated from a pre-existing datadir without a full tx-index replay.
func (a *App) source() txvalidate.Source {
	if a.legacySource == nil {
		return a.index
	}
	return txvalidate.ChainSources{a.index, a.legacySource}
}

// writeThroughToPostgres mirrors a just-committed reorganisation into
// the read-replica, outside the leveldb transaction: losing the write
// here only stales the explorer views, it never corrupts the
// authoritative chain state.
func (a *App) writeThroughToPostgres(plan *chainindex.ReorgPlan, newTip *chainindex.Node) {
	for _, h := range plan.Disconnect {
		n := a.chain.Node(h)
		if err := a.pg.WriteDisconnectedBlock(n.Hash); err != nil {
			log.Printf("postgres: marking %v orphaned: %v", n.Hash, err)
		}
	}
	for _, h := range plan.Connect {
		n := a.chain.Node(h)
		b, err := a.blockAt(n)
		if err != nil {
			log.Printf("postgres: re-reading %v: %v", n.Hash, err)
			continue
		}
		ledger := budget.LedgerForBlock(b)
		if err := a.pg.WriteConnectedBlock(n.Height, n.Hash, b, ledger); err != nil {
			log.Printf("postgres: writing %v: %v", n.Hash, err)
		}
	}
	_ = newTip
}

func (a *App) blockAt(n *chainindex.Node) (*xcoin.Block, error) {
	pos, ok := a.posByHash[n.Hash]
	if !ok {
		return nil, fmt.Errorf("no stored position for block %v", n.Hash)
	}
	return a.blocks.ReadAt(pos)
}

func (a *App) removeMinedFromMempool(b *xcoin.Block) {
	for _, tx := range b.Txs {
		a.pool.Remove(tx.Hash())
	}
}

func (a *App) reinstateMempool(b *xcoin.Block) {
	for _, tx := range b.Txs {
		if tx.IsCoinBase() {
			continue
		}
		if _, err := a.pool.Accept(tx, a.chain.BestHeight(), a.index, txvalidate.ScriptVerifySignature, time.Now().Unix(), false); err != nil {
			log.Printf("could not reinstate tx %v to the mempool after disconnect: %v", tx.Hash(), err)
		}
	}
}

// blockWork computes 2^256 / (target+1) for a compact-bits target,
// duplicating chainindex's unexported helper of the same name: this
// package needs it before a block has a Handle to ask chainindex for
// its chain_work, while staging the header-index record that gives it
// one.
func blockWork(bits uint32) *big.Int {
	target := chainindex.CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}
	denom := new(big.Int).Add(target, big.NewInt(1))
	numerator := new(big.Int).Lsh(big.NewInt(1), 256)
	return numerator.Quo(numerator, denom)
}
