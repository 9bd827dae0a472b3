package txvalidate

import (
	"github.com/blkchain/xcoin/consensus"
	"github.com/blkchain/xcoin/xcoin"
)

// TxRecord is the contextual information connect_inputs needs about a
// previously-seen transaction: itself, the height of the block that
// contains it (zero if it's still only in the mempool), and a
// per-output spent flag vector mirroring the persisted TxIndex's
// vSpent.
type TxRecord struct {
	Tx       *xcoin.Tx
	Height   uint32
	InBlock  bool
	Spent    []bool
}

// Source resolves a tx hash to its TxRecord. The persistent TxIndex,
// the mempool, and a transient "changes so far in this block" map all
// implement Source; fetchInputs tries them in order.
type Source interface {
	Lookup(hash xcoin.Uint256) (*TxRecord, bool)
}

// MapSource is a Source backed by a plain map, used both for the
// mempool's in-memory set and for the "test pool" of pending changes
// a block or mempool-accept trial run accumulates before committing.
type MapSource map[xcoin.Uint256]*TxRecord

func (m MapSource) Lookup(hash xcoin.Uint256) (*TxRecord, bool) {
	r, ok := m[hash]
	return r, ok
}

// ChainSources tries each Source in order, first match wins. Per the
// spec's fetch_inputs search order: (a) test pool, (b) persistent
// TxIndex, (c) mempool — callers pass sources in that order.
type ChainSources []Source

func (c ChainSources) Lookup(hash xcoin.Uint256) (*TxRecord, bool) {
	for _, s := range c {
		if r, ok := s.Lookup(hash); ok {
			return r, true
		}
	}
	return nil, false
}

// FetchedInput pairs a tx input with its resolved previous output and
// the record it came from, for ConnectInputs to verify.
type FetchedInput struct {
	Record     *TxRecord
	OutputIdx  uint32
	PrevOutput *xcoin.TxOut
}

// FetchInputs resolves every input of tx against sources. A
// structural failure (index out of range, vSpent length mismatch)
// returns a Malformed error; an unresolved prevout hash returns
// MissingParent, which callers should route to the orphan pool rather
// than rejecting outright.
func FetchInputs(tx *xcoin.Tx, sources Source) ([]FetchedInput, error) {
	fetched := make([]FetchedInput, 0, len(tx.TxIns))
	for _, in := range tx.TxIns {
		record, ok := sources.Lookup(in.PrevOut.Hash)
		if !ok {
			return nil, consensus.New(consensus.MissingParent, "unknown prevout tx %v", in.PrevOut.Hash)
		}
		if int(in.PrevOut.N) >= len(record.Tx.TxOuts) || int(in.PrevOut.N) >= len(record.Spent) {
			return nil, consensus.New(consensus.Malformed, "prevout index %d out of range for tx %v", in.PrevOut.N, in.PrevOut.Hash)
		}
		if len(record.Spent) != len(record.Tx.TxOuts) {
			return nil, consensus.New(consensus.Malformed, "spent-vector length mismatch for tx %v", in.PrevOut.Hash)
		}
		fetched = append(fetched, FetchedInput{
			Record:     record,
			OutputIdx:  in.PrevOut.N,
			PrevOutput: record.Tx.TxOuts[in.PrevOut.N],
		})
	}
	return fetched, nil
}

// VerifySignature is the external oracle the spec calls out: the
// script interpreter and ECDSA primitives live outside this module's
// scope. ConnectInputs invokes this function once per input.
type VerifySignature func(prevOutput *xcoin.TxOut, tx *xcoin.Tx, inputIndex int) bool

// ConnectInputs implements connect_inputs: per-input coinbase maturity,
// ref_height monotonicity, double-spend, and present-value sufficiency
// checks, plus (unless skip is true, for blocks at or before the
// newest checkpoint) signature verification. Per spec.md §4.1 step 5,
// the sufficiency check values every input at tx's own ref_height
// (not connectHeight), the same scale tx's raw output values are
// already denominated at — mixing scales here would discount inputs
// without discounting outputs. On success it marks each consumed
// output's Spent flag and returns the tx's fee (valueIn - valueOut,
// valued as of tx.RefHeight); callers present-value the fee forward to
// whatever height they need it at (e.g. the connecting block's
// height).
func ConnectInputs(tx *xcoin.Tx, fetched []FetchedInput, connectHeight uint32, verify VerifySignature, skipScripts bool) (xcoin.Amount, error) {
	var valueIn xcoin.Amount

	for i, f := range fetched {
		in := tx.TxIns[i]

		if f.Record.Tx.IsCoinBase() {
			maturity := connectHeight - f.Record.Height
			if !f.Record.InBlock || maturity < xcoin.CoinbaseMaturity {
				return xcoin.Zero(), consensus.New(consensus.Invalid, "spend of immature coinbase %v", in.PrevOut.Hash).WithScore(100)
			}
		}

		if f.Record.Tx.RefHeight > tx.RefHeight {
			return xcoin.Zero(), consensus.New(consensus.Invalid, "ref_height monotonicity violated: prev %d > this %d", f.Record.Tx.RefHeight, tx.RefHeight).WithScore(100)
		}

		if f.Record.Spent[f.OutputIdx] {
			return xcoin.Zero(), consensus.New(consensus.Invalid, "double spend of %v:%d", in.PrevOut.Hash, f.OutputIdx).WithScore(100)
		}

		depth := int64(tx.RefHeight) - int64(f.Record.Tx.RefHeight)
		pv := xcoin.PresentValue(xcoin.NewAmount(f.PrevOutput.Value), depth)
		valueIn = valueIn.Add(pv)

		if !skipScripts && verify != nil {
			if !verify(f.PrevOutput, tx, i) {
				return xcoin.Zero(), consensus.New(consensus.Invalid, "signature verification failed for input %d", i).WithScore(100)
			}
		}
	}

	var valueOut xcoin.Amount
	for _, out := range tx.TxOuts {
		valueOut = valueOut.Add(xcoin.NewAmount(out.Value))
	}

	if valueIn.Cmp(valueOut) < 0 {
		return xcoin.Zero(), consensus.New(consensus.Invalid, "inputs (%s) insufficient for outputs (%s)", valueIn, valueOut).WithScore(100)
	}

	for _, f := range fetched {
		f.Record.Spent[f.OutputIdx] = true
	}

	return valueIn.Sub(valueOut), nil
}

// DisconnectInputs implements disconnect_inputs: reverses the spent
// flags ConnectInputs set. Absence of a record is tolerated, since a
// reorg may have already removed it from the index.
func DisconnectInputs(tx *xcoin.Tx, sources Source) {
	for _, in := range tx.TxIns {
		record, ok := sources.Lookup(in.PrevOut.Hash)
		if !ok {
			continue
		}
		if int(in.PrevOut.N) < len(record.Spent) {
			record.Spent[in.PrevOut.N] = false
		}
	}
}
