package budget

import (
	"math/big"

	"github.com/blkchain/xcoin/consensus"
	"github.com/blkchain/xcoin/xcoin"
)

// Entry is a single mandated-recipient line: a fraction (Weight /
// total weight of its Budget) of the ratio-adjusted amount, paid to
// Destination (a raw scriptPubKey).
type Entry struct {
	Weight      uint64
	Destination []byte
}

// Budget is a (ratio, entries) pair. Applying it to an amount A
// produces, per entry e, A * ratio * weight_e / sum(weights),
// accumulated by destination.
type Budget struct {
	Ratio   *big.Rat
	Entries []Entry
}

// InitialDistributionBudget builds the single-entry budget mandated
// for a block at height h: its ratio enforces that the mandated share
// equals TitheAmount / initial_distribution(h), and its one entry
// names the schedule recipient for h.
func InitialDistributionBudget(n xcoin.Network, h uint32) Budget {
	dist := InitialDistribution(h)
	ratio := big.NewRat(1, 1)
	if dist.Sign() > 0 {
		ratio = new(big.Rat).Quo(big.NewRat(int64(xcoin.TitheAmount), 1), dist.Rat())
	}
	return Budget{
		Ratio: ratio,
		Entries: []Entry{
			{Weight: 1, Destination: RecipientAt(n, h)},
		},
	}
}

// Apply distributes amount A according to b, returning a map from
// destination (as a string key, since []byte isn't comparable) to the
// Amount owed. Entries producing a zero or negative share are dropped.
func Apply(b Budget, a xcoin.Amount) map[string]xcoin.Amount {
	out := make(map[string]xcoin.Amount)
	var totalWeight uint64
	for _, e := range b.Entries {
		totalWeight += e.Weight
	}
	if totalWeight == 0 {
		return out
	}
	adjusted := new(big.Rat).Mul(a.Rat(), b.Ratio)
	for _, e := range b.Entries {
		share := new(big.Rat).Mul(adjusted, big.NewRat(int64(e.Weight), int64(totalWeight)))
		amt := xcoin.NewAmountRat(share)
		if amt.Sign() <= 0 {
			continue
		}
		key := string(e.Destination)
		out[key] = out[key].Add(amt)
	}
	return out
}

// PaymentLedger accumulates actual present-value payments made to
// destinations across a block's transactions, for comparison against
// a Budget's required shares by VerifyBudget.
type PaymentLedger map[string]xcoin.Amount

// Credit records that destination received amount (already
// present-valued to the block height) somewhere in the block.
func (l PaymentLedger) Credit(destination []byte, amount xcoin.Amount) {
	key := string(destination)
	l[key] = l[key].Add(amount)
}

// LedgerForBlock rebuilds the per-destination payment ledger a
// connected block produced, crediting every output of every
// transaction at its face value. ConnectBlock builds its own ledger
// internally to run VerifyBudget, crediting present-valued amounts
// rather than face values, and doesn't return it; read-replica
// writers that want to persist "who got paid" call this instead of
// threading a ledger out of the consensus hot path.
func LedgerForBlock(b *xcoin.Block) PaymentLedger {
	ledger := PaymentLedger{}
	for _, tx := range b.Txs {
		for _, out := range tx.TxOuts {
			ledger.Credit(out.ScriptPubKey, xcoin.NewAmount(out.Value))
		}
	}
	return ledger
}

// VerifyBudget checks that every entry of b's required destinations
// received at least its computed share in ledger. Surplus and extra
// recipients not named by b are permitted.
func VerifyBudget(b Budget, total xcoin.Amount, ledger PaymentLedger) error {
	required := Apply(b, total)
	for dest, need := range required {
		got, ok := ledger[dest]
		if !ok || got.Cmp(need) < 0 {
			return consensus.New(consensus.Invalid, "mandated recipient underpaid: need %s got %s", need, got).WithScore(100)
		}
	}
	return nil
}
