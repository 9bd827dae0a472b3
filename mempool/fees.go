package mempool

import (
	"math"

	"github.com/blkchain/xcoin/xcoin"
)

// BaseFee selects which of the two historically-distinct fee floors
// (relay vs. mining) a min_fee calculation should use.
type BaseFee int64

const (
	// RelayBaseFee is what a node demands to forward a transaction.
	RelayBaseFee BaseFee = 1000
	// MiningBaseFee is what a miner demands to include a transaction.
	MiningBaseFee BaseFee = 1000
)

const freeSizeThreshold = 10000

// MinFee computes the minimum acceptable fee for a transaction of the
// given serialized size, per the spec's min_fee formula:
//
//	base_fee * (1 + floor(bytes/1000))
//
// free if allowFree and bytes < freeSizeThreshold (how full the current
// block is never makes a transaction free), raised to exactly base_fee
// if any output is below a cent-equivalent, and priced out super-linearly as the
// projected block size approaches MaxBlockSizeGen.
func MinFee(bytes int, base BaseFee, allowFree bool, hasTinyOutput bool, projectedBlockSize int) xcoin.Amount {
	fee := int64(base) * (1 + int64(bytes)/1000)

	if allowFree && bytes < freeSizeThreshold {
		fee = 0
	}

	if hasTinyOutput && fee < int64(base) {
		fee = int64(base)
	}

	half := xcoin.MaxBlockSizeGen / 2
	if projectedBlockSize > half {
		room := xcoin.MaxBlockSizeGen - projectedBlockSize
		if room <= 0 {
			return xcoin.NewAmount(xcoin.MaxMoney) // effectively infinite
		}
		fee = fee * int64(xcoin.MaxBlockSizeGen) / int64(room)
	}

	return xcoin.NewAmount(fee)
}

// FreeTxRateLimiter tracks an exponentially-decayed running count of
// bytes relayed for free, rejecting further free relay once the
// decayed total crosses a threshold. Decay happens lazily on read: we
// store (value, lastUpdate) and multiply by decay^(now-last) once,
// rather than maintaining a ticking background task.
type FreeTxRateLimiter struct {
	bytes      float64
	lastUpdate int64 // unix seconds
	// halfLifeSeconds controls the decay rate; ~10 minutes per spec.
	halfLifeSeconds float64
	limitFactor     float64
}

// NewFreeTxRateLimiter builds a limiter with the spec's ~10-minute
// half-life and a limit factor (multiplier on the 15,000-byte base
// cap) the node operator can tune.
func NewFreeTxRateLimiter(limitFactor float64) *FreeTxRateLimiter {
	return &FreeTxRateLimiter{halfLifeSeconds: 600, limitFactor: limitFactor}
}

func (l *FreeTxRateLimiter) decayTo(now int64) {
	if l.lastUpdate == 0 {
		l.lastUpdate = now
		return
	}
	elapsed := float64(now - l.lastUpdate)
	if elapsed <= 0 {
		return
	}
	// math.Pow carries no consensus-sensitive precision requirement
	// (unlike demurrage's exact-rational arithmetic): this decay only
	// governs a local relay policy heuristic, so stdlib floating point
	// is the right tool here rather than big.Rat.
	decay := math.Pow(2, -elapsed/l.halfLifeSeconds)
	l.bytes *= decay
	l.lastUpdate = now
}

// AllowAndRecord reports whether `size` additional free-relay bytes
// are still under the limit; if so it records them against the
// decayed counter and returns true, else returns false without
// mutating state.
func (l *FreeTxRateLimiter) AllowAndRecord(now int64, size int, walletOriginated bool) bool {
	if walletOriginated {
		return true
	}
	l.decayTo(now)
	limit := 15000.0 * l.limitFactor
	if l.bytes+float64(size) > limit {
		return false
	}
	l.bytes += float64(size)
	return true
}
