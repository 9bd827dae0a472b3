// Package netsrc is the dispatcher's upstream message source: it
// dials a Bitcoin-wire-compatible peer and turns the wire.Msg* types
// it receives into this module's own xcoin.* types, the way
// btcnode/btcnode.go does for the teacher.
package netsrc

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"

	"github.com/blkchain/xcoin/xcoin"
)

// Node is a single outbound connection to a network peer, decoding
// wire messages into xcoin types as they arrive.
type Node struct {
	*peer.Peer
	addr  string
	magic uint32
	tmout time.Duration

	headersCh chan []*wire.BlockHeader
	blockCh   chan *wire.MsgBlock
	invCh     chan *wire.MsgInv
}

// Addr identifies this connection for dispatch.Dispatcher's
// per-peer reputation tracking.
func (n *Node) Addr() string { return n.addr }

// Config controls how Dial reaches a peer.
type Config struct {
	ChainParams *chaincfg.Params
	Magic       uint32
	Timeout     time.Duration
	Proxy       string // SOCKS5 proxy address; empty dials directly
}

// Dial connects to addr and completes the version/verack handshake,
// returning a Node ready to request headers and blocks.
func Dial(addr string, cfg Config) (*Node, error) {
	if cfg.ChainParams == nil {
		cfg.ChainParams = &chaincfg.MainNetParams
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	n := &Node{addr: addr, magic: cfg.Magic, tmout: cfg.Timeout}

	verackCh := make(chan bool, 1)
	peerCfg := &peer.Config{
		DisableRelayTx:   true,
		UserAgentName:    "xcoin",
		UserAgentVersion: "0.0.1",
		ChainParams:      cfg.ChainParams,
		TrickleInterval:  10 * time.Second,
		Listeners: peer.MessageListeners{
			OnVerAck: func(p *peer.Peer, msg *wire.MsgVerAck) {
				verackCh <- true
			},
			OnBlock: func(_ *peer.Peer, msg *wire.MsgBlock, buf []byte) {
				if n.blockCh != nil {
					n.blockCh <- msg
				}
			},
			OnHeaders: func(p *peer.Peer, msg *wire.MsgHeaders) {
				if n.headersCh != nil {
					n.headersCh <- msg.Headers
				}
			},
			OnInv: func(p *peer.Peer, msg *wire.MsgInv) {
				if n.invCh != nil {
					n.invCh <- msg
				}
			},
		},
	}

	p, err := peer.NewOutboundPeer(peerCfg, addr)
	if err != nil {
		return nil, err
	}

	conn, err := dialer(cfg.Proxy)("tcp", p.Addr())
	if err != nil {
		return nil, err
	}
	p.AssociateConnection(conn)

	select {
	case <-verackCh:
	case <-time.After(cfg.Timeout):
		p.Disconnect()
		return nil, fmt.Errorf("netsrc: handshake with %s timed out", addr)
	}
	n.Peer = p

	return n, nil
}

func (n *Node) Close() error {
	n.Disconnect()
	return nil
}

// GetHeaders requests headers after the given locator, one batch per
// call, mirroring a peer's own getheaders/headers rate limit (2000
// per message). An empty slice with no error means the peer has nothing
// newer than the locator.
func (n *Node) GetHeaders(locatorHashes []xcoin.Uint256) ([]*xcoin.BlockHeader, error) {
	if n.headersCh == nil {
		n.headersCh = make(chan []*wire.BlockHeader)
	}

	locator := make(blockchain.BlockLocator, len(locatorHashes))
	for i, hash := range locatorHashes {
		h := chainhash.Hash(hash)
		locator[i] = &h
	}
	n.PushGetHeadersMsg(locator, &chainhash.Hash{})

	var hdrs []*wire.BlockHeader
	select {
	case hdrs = <-n.headersCh:
	case <-time.After(n.tmout):
		return nil, fmt.Errorf("netsrc: getheaders to %s timed out", n.addr)
	}

	out := make([]*xcoin.BlockHeader, len(hdrs))
	for i, h := range hdrs {
		out[i] = &xcoin.BlockHeader{
			Version:        uint32(h.Version),
			PrevHash:       xcoin.Uint256(h.PrevBlock),
			HashMerkleRoot: xcoin.Uint256(h.MerkleRoot),
			Time:           uint32(h.Timestamp.Unix()),
			Bits:           h.Bits,
			Nonce:          h.Nonce,
		}
	}
	return out, nil
}

// GetBlock fetches a full block (with witness data) by hash.
func (n *Node) GetBlock(hash xcoin.Uint256) (*xcoin.Block, error) {
	if n.blockCh == nil {
		n.blockCh = make(chan *wire.MsgBlock)
	}

	gd := wire.NewMsgGetData()
	gd.AddInvVect(wire.NewInvVect(wire.InvTypeWitnessBlock, (*chainhash.Hash)(&hash)))
	n.QueueMessage(gd, nil)

	var mb *wire.MsgBlock
	select {
	case mb = <-n.blockCh:
	case <-time.After(n.tmout):
		return nil, fmt.Errorf("netsrc: getdata to %s timed out", n.addr)
	}
	return blockFromMsgBlock(mb, n.magic), nil
}

// WaitForInv blocks until the peer announces a new block, then fetches
// and returns it. interrupt, if non-nil, aborts the wait.
func (n *Node) WaitForInv(interrupt <-chan struct{}) (*xcoin.Block, error) {
	if n.invCh == nil {
		n.invCh = make(chan *wire.MsgInv)
	}

	for {
		var msg *wire.MsgInv
		select {
		case msg = <-n.invCh:
		case <-interrupt:
			return nil, fmt.Errorf("netsrc: wait for %s interrupted", n.addr)
		}

		for _, inv := range msg.InvList {
			if inv.Type == wire.InvTypeBlock || inv.Type == wire.InvTypeWitnessBlock {
				return n.GetBlock(xcoin.Uint256(inv.Hash))
			}
		}
	}
}

func txFromMsgTx(mtx *wire.MsgTx) *xcoin.Tx {
	tx := &xcoin.Tx{
		Version:  uint32(mtx.Version),
		TxIns:    make(xcoin.TxInList, 0, len(mtx.TxIn)),
		TxOuts:   make(xcoin.TxOutList, 0, len(mtx.TxOut)),
		LockTime: uint32(mtx.LockTime),
	}
	for _, in := range mtx.TxIn {
		txin := &xcoin.TxIn{
			PrevOut: xcoin.OutPoint{
				Hash: xcoin.Uint256(in.PreviousOutPoint.Hash),
				N:    in.PreviousOutPoint.Index,
			},
			ScriptSig: in.SignatureScript,
			Sequence:  in.Sequence,
			Witness:   make(xcoin.Witness, 0, len(in.Witness)),
		}
		for _, w := range in.Witness {
			txin.Witness = append(txin.Witness, w)
		}
		if !tx.SegWit && len(txin.Witness) > 0 {
			tx.SegWit = true
		}
		tx.TxIns = append(tx.TxIns, txin)
	}
	for _, out := range mtx.TxOut {
		tx.TxOuts = append(tx.TxOuts, &xcoin.TxOut{
			Value:        out.Value,
			ScriptPubKey: out.PkScript,
		})
	}
	return tx
}

func blockFromMsgBlock(mb *wire.MsgBlock, magic uint32) *xcoin.Block {
	blk := &xcoin.Block{
		Magic: magic,
		BlockHeader: &xcoin.BlockHeader{
			Version:        uint32(mb.Header.Version),
			PrevHash:       xcoin.Uint256(mb.Header.PrevBlock),
			HashMerkleRoot: xcoin.Uint256(mb.Header.MerkleRoot),
			Time:           uint32(mb.Header.Timestamp.Unix()),
			Bits:           mb.Header.Bits,
			Nonce:          mb.Header.Nonce,
		},
		Txs: make(xcoin.TxList, 0, len(mb.Transactions)),
	}
	for _, mtx := range mb.Transactions {
		blk.Txs = append(blk.Txs, txFromMsgTx(mtx))
	}
	return blk
}
