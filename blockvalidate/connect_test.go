package blockvalidate

import (
	"testing"

	"github.com/blkchain/xcoin/budget"
	"github.com/blkchain/xcoin/txvalidate"
	"github.com/blkchain/xcoin/xcoin"
)

func Test_ConnectBlock_RejectsOverpayingCoinbase(t *testing.T) {
	height := uint32(10)
	coinbase := &xcoin.Tx{
		TxIns:     xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}, ScriptSig: make([]byte, 4)}},
		TxOuts:    xcoin.TxOutList{{Value: xcoin.MaxMoney, ScriptPubKey: budget.RecipientAt(xcoin.MainNet, height)}},
		RefHeight: height,
	}
	b := &xcoin.Block{BlockHeader: &xcoin.BlockHeader{}, Txs: xcoin.TxList{coinbase}}

	_, err := ConnectBlock(b, height, xcoin.MainNet, txvalidate.MapSource{}, func(xcoin.Uint256) bool { return false }, nil, false)
	if err == nil {
		t.Fatalf("expected rejection of a coinbase paying far more than allowed")
	}
}

func Test_ConnectBlock_RejectsMissingMandatedRecipient(t *testing.T) {
	height := uint32(10)
	dist := budget.InitialDistribution(height)
	perpetual := budget.PerpetualSubsidy()
	allowed := dist.Add(perpetual)

	coinbase := &xcoin.Tx{
		TxIns:     xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}, ScriptSig: make([]byte, 4)}},
		TxOuts:    xcoin.TxOutList{{Value: allowed.ToBaseUnits(), ScriptPubKey: []byte{0x51}}}, // wrong destination
		RefHeight: height,
	}
	b := &xcoin.Block{BlockHeader: &xcoin.BlockHeader{}, Txs: xcoin.TxList{coinbase}}

	_, err := ConnectBlock(b, height, xcoin.MainNet, txvalidate.MapSource{}, func(xcoin.Uint256) bool { return false }, nil, false)
	if err == nil {
		t.Fatalf("expected rejection: coinbase did not pay the mandated recipient")
	}
}

func Test_ConnectBlock_AcceptsCompliantCoinbase(t *testing.T) {
	height := uint32(10)
	dist := budget.InitialDistribution(height)
	perpetual := budget.PerpetualSubsidy()
	allowed := dist.Add(perpetual)

	coinbase := &xcoin.Tx{
		TxIns:     xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}, ScriptSig: make([]byte, 4)}},
		TxOuts:    xcoin.TxOutList{{Value: allowed.ToBaseUnits(), ScriptPubKey: budget.RecipientAt(xcoin.MainNet, height)}},
		RefHeight: height,
	}
	b := &xcoin.Block{BlockHeader: &xcoin.BlockHeader{}, Txs: xcoin.TxList{coinbase}}

	if _, err := ConnectBlock(b, height, xcoin.MainNet, txvalidate.MapSource{}, func(xcoin.Uint256) bool { return false }, nil, false); err != nil {
		t.Fatalf("expected a compliant coinbase to connect cleanly: %v", err)
	}
}
