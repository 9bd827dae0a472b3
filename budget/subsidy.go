package budget

import "github.com/blkchain/xcoin/xcoin"

// InitialDistribution returns the piecewise-linear ramp from
// (TitheAmount + InitialSubsidy) at height 0 down to just above
// TitheAmount at EqHeight-1, and zero from EqHeight on — the
// initial-distribution component of the block reward.
func InitialDistribution(h uint32) xcoin.Amount {
	if h >= xcoin.EqHeight {
		return xcoin.NewAmount(0)
	}
	// Linear interpolation: tithe + subsidy * (1 - h/EqHeight)
	remaining := xcoin.EqHeight - uint64(h)
	extra := uint64(xcoin.InitialSubsidy) * remaining / uint64(xcoin.EqHeight)
	return xcoin.NewAmount(int64(uint64(xcoin.TitheAmount) + extra))
}

// PerpetualSubsidy is the constant MAX_MONEY/R component of the block
// reward, present at every height (including past EqHeight, where it
// becomes the entire non-fee reward).
func PerpetualSubsidy() xcoin.Amount {
	return xcoin.NewAmount(int64(xcoin.MaxMoney / xcoin.DemurrageDenominator))
}

// BlockValue is the maximum a coinbase at height h may pay out, given
// fees collected in that block: initial_distribution(h) +
// perpetual_subsidy(h) + fees.
func BlockValue(h uint32, fees xcoin.Amount) xcoin.Amount {
	return InitialDistribution(h).Add(PerpetualSubsidy()).Add(fees)
}
