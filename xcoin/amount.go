package xcoin

import (
	"fmt"
	"math/big"
)

// Amount is a quantity of value denominated at a particular height.
// Stored value demurs: the same Amount is worth fewer base units the
// longer it sits unspent, per PresentValue. We carry the underlying
// arithmetic in big.Rat rather than int64 so that repeated present-value
// applications across many blocks don't accumulate rounding error; the
// only place we round to an int64 base-unit count is at the wire/output
// boundary (ToBaseUnits).
type Amount struct {
	r *big.Rat
}

// demurrageRatio is (R-1)/R, the single-block decay factor.
var demurrageRatio = big.NewRat(DemurrageDenominator-1, DemurrageDenominator)

// inverseDemurrageRatio is R/(R-1), the single-block growth factor
// applied per unit of negative depth (a value recorded at a height
// ahead of the one it's being valued at).
var inverseDemurrageRatio = big.NewRat(DemurrageDenominator, DemurrageDenominator-1)

// NewAmount wraps a base-unit integer amount, valued as of "now" (depth 0).
func NewAmount(baseUnits int64) Amount {
	return Amount{r: new(big.Rat).SetInt64(baseUnits)}
}

// NewAmountRat wraps an already-exact rational amount; used internally
// by callers that compose present-value calculations before rounding.
func NewAmountRat(r *big.Rat) Amount {
	return Amount{r: new(big.Rat).Set(r)}
}

// Zero is the additive identity.
func Zero() Amount {
	return Amount{r: new(big.Rat)}
}

// PresentValue returns the value of an amount v, originally recorded
// depth blocks ago (relative to the height it's being valued at):
//
//	present_value(v, depth) = v * ((R-1)/R)^depth
//
// depth is signed: negative depth means v was recorded at a height
// *ahead* of the one it's being valued at (a future-dated ref_height),
// and yields a value > v via the inverse factor (R/(R-1))^|depth|, per
// spec.md §4.2. A depth of 0 returns v unchanged (the identity
// PresentValue(v, 0) == v, which downstream budget/mempool code relies
// on when a transaction's ref_height equals the connecting height).
func PresentValue(v Amount, depth int64) Amount {
	if depth == 0 || v.rat().Sign() == 0 {
		return Amount{r: new(big.Rat).Set(v.rat())}
	}
	if depth < 0 {
		factor := ratPow(inverseDemurrageRatio, uint64(-depth))
		return Amount{r: new(big.Rat).Mul(v.rat(), factor)}
	}
	factor := ratPow(demurrageRatio, uint64(depth))
	return Amount{r: new(big.Rat).Mul(v.rat(), factor)}
}

// ratPow computes base^exp by repeated squaring, exactly, in big.Rat.
func ratPow(base *big.Rat, exp uint64) *big.Rat {
	result := big.NewRat(1, 1)
	b := new(big.Rat).Set(base)
	for exp > 0 {
		if exp&1 == 1 {
			result.Mul(result, b)
		}
		b.Mul(b, b)
		exp >>= 1
	}
	return result
}

// rat returns the underlying rational, treating the zero Amount{}
// (the map/struct default, as produced by `var a Amount`) as exactly
// zero rather than a nil-pointer trap.
func (a Amount) rat() *big.Rat {
	if a.r == nil {
		return new(big.Rat)
	}
	return a.r
}

// Add returns a + b, exactly.
func (a Amount) Add(b Amount) Amount {
	return Amount{r: new(big.Rat).Add(a.rat(), b.rat())}
}

// Sub returns a - b, exactly.
func (a Amount) Sub(b Amount) Amount {
	return Amount{r: new(big.Rat).Sub(a.rat(), b.rat())}
}

// Cmp compares a to b: -1, 0 or 1.
func (a Amount) Cmp(b Amount) int {
	return a.rat().Cmp(b.rat())
}

// Sign returns -1, 0 or 1 for negative, zero or positive amounts.
func (a Amount) Sign() int {
	return a.rat().Sign()
}

// ToBaseUnits rounds down to the nearest whole base unit. This is the
// only place present-value arithmetic loses precision: consensus code
// must round at the same point the reference calculation does (when a
// value is about to be compared against, or written as, an int64), and
// never re-derive a rounded Amount back into further Rat arithmetic.
func (a Amount) ToBaseUnits() int64 {
	r := a.rat()
	num := new(big.Int).Quo(r.Num(), r.Denom())
	return num.Int64()
}

// Rat exposes the underlying exact value for callers (budget
// verification, demurrage tests) that need to chain further exact
// arithmetic instead of rounding early.
func (a Amount) Rat() *big.Rat {
	return new(big.Rat).Set(a.rat())
}

func (a Amount) String() string {
	return fmt.Sprintf("%d", a.ToBaseUnits())
}
