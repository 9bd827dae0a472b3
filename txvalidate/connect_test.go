package txvalidate

import (
	"testing"

	"github.com/blkchain/xcoin/xcoin"
)

func Test_FetchInputs_MissingParentIsDistinctFromMalformed(t *testing.T) {
	tx := &xcoin.Tx{TxIns: xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: xcoin.Uint256{9}, N: 0}}}}
	_, err := FetchInputs(tx, MapSource{})
	if err == nil {
		t.Fatalf("expected error for unresolved prevout")
	}
}

func Test_ConnectInputs_RejectsDoubleSpend(t *testing.T) {
	prevHash := xcoin.Uint256{5}
	prevTx := &xcoin.Tx{TxOuts: xcoin.TxOutList{{Value: 1000}}}
	record := &TxRecord{Tx: prevTx, Height: 1, InBlock: true, Spent: []bool{true}} // already spent

	tx := &xcoin.Tx{
		TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: prevHash, N: 0}}},
		TxOuts: xcoin.TxOutList{{Value: 900}},
	}

	sources := MapSource{prevHash: record}
	fetched, err := FetchInputs(tx, sources)
	if err != nil {
		t.Fatalf("FetchInputs: %v", err)
	}
	if _, err := ConnectInputs(tx, fetched, 10, nil, true); err == nil {
		t.Fatalf("expected double-spend rejection")
	}
}

func Test_ConnectInputs_RejectsImmatureCoinbase(t *testing.T) {
	prevHash := xcoin.Uint256{6}
	prevTx := &xcoin.Tx{
		TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{N: 0xffffffff}}},
		TxOuts: xcoin.TxOutList{{Value: 1000}},
	}
	record := &TxRecord{Tx: prevTx, Height: 95, InBlock: true, Spent: []bool{false}}

	tx := &xcoin.Tx{
		TxIns:  xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: prevHash, N: 0}}},
		TxOuts: xcoin.TxOutList{{Value: 900}},
	}

	sources := MapSource{prevHash: record}
	fetched, _ := FetchInputs(tx, sources)
	if _, err := ConnectInputs(tx, fetched, 100, nil, true); err == nil {
		t.Fatalf("expected rejection of spending a coinbase with < CoinbaseMaturity confirmations")
	}
}

func Test_ConnectInputs_AcceptsSufficientValue(t *testing.T) {
	prevHash := xcoin.Uint256{7}
	prevTx := &xcoin.Tx{TxOuts: xcoin.TxOutList{{Value: 1000}}, RefHeight: 50}
	record := &TxRecord{Tx: prevTx, Height: 50, InBlock: true, Spent: []bool{false}}

	tx := &xcoin.Tx{
		TxIns:     xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: prevHash, N: 0}}},
		TxOuts:    xcoin.TxOutList{{Value: 900}},
		RefHeight: 50,
	}

	sources := MapSource{prevHash: record}
	fetched, err := FetchInputs(tx, sources)
	if err != nil {
		t.Fatalf("FetchInputs: %v", err)
	}
	fee, err := ConnectInputs(tx, fetched, 50, nil, true)
	if err != nil {
		t.Fatalf("ConnectInputs: %v", err)
	}
	if fee.ToBaseUnits() != 100 {
		t.Fatalf("fee = %d, want 100", fee.ToBaseUnits())
	}
	if !record.Spent[0] {
		t.Fatalf("expected output to be marked spent")
	}
}

func Test_DisconnectInputs_ReversesSpentFlag(t *testing.T) {
	prevHash := xcoin.Uint256{8}
	prevTx := &xcoin.Tx{TxOuts: xcoin.TxOutList{{Value: 1000}}}
	record := &TxRecord{Tx: prevTx, Spent: []bool{true}}
	tx := &xcoin.Tx{TxIns: xcoin.TxInList{{PrevOut: xcoin.OutPoint{Hash: prevHash, N: 0}}}}

	sources := MapSource{prevHash: record}
	DisconnectInputs(tx, sources)
	if record.Spent[0] {
		t.Fatalf("expected spent flag to be cleared")
	}
}
