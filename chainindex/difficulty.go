package chainindex

import (
	"math/big"

	"github.com/blkchain/xcoin/xcoin"
)

// firCoefficients is the hard-coded 144-tap symmetric FIR filter used
// to smooth inter-block intervals before the filtered retarget. The
// coefficients sum to 2^31 and are consensus-relevant: changing a
// single entry changes every retarget decision from that height
// onward, so the table is transcribed verbatim rather than
// regenerated from a window function.
var firCoefficients = [xcoin.FIRWindow]int64{
	-845859, -459003, -573589, -703227, -848199, -1008841,
	-1183669, -1372046, -1573247, -1787578, -2011503, -2243311,
	-2482346, -2723079, -2964681, -3202200, -3432186, -3650186,
	-3851924, -4032122, -4185340, -4306430, -4389146, -4427786,
	-4416716, -4349289, -4220031, -4022692, -3751740, -3401468,
	-2966915, -2443070, -1825548, -1110759, -295281, 623307,
	1646668, 2775970, 4011152, 5351560, 6795424, 8340274,
	9982332, 11717130, 13539111, 15441640, 17417389, 19457954,
	21554056, 23695744, 25872220, 28072119, 30283431, 32493814,
	34690317, 36859911, 38989360, 41065293, 43074548, 45004087,
	46841170, 48573558, 50189545, 51678076, 53028839, 54232505,
	55280554, 56165609, 56881415, 57422788, 57785876, 57968085,
	57968084, 57785876, 57422788, 56881415, 56165609, 55280554,
	54232505, 53028839, 51678076, 50189545, 48573558, 46841170,
	45004087, 43074548, 41065293, 38989360, 36859911, 34690317,
	32493814, 30283431, 28072119, 25872220, 23695744, 21554057,
	19457953, 17417389, 15441640, 13539111, 11717130, 9982332,
	8340274, 6795424, 5351560, 4011152, 2775970, 1646668,
	623307, -295281, -1110759, -1825548, -2443070, -2966915,
	-3401468, -3751740, -4022692, -4220031, -4349289, -4416715,
	-4427787, -4389146, -4306430, -4185340, -4032122, -3851924,
	-3650186, -3432186, -3202200, -2964681, -2723079, -2482346,
	-2243311, -2011503, -1787578, -1573247, -1372046, -1183669,
	-1008841, -848199, -703227, -573589, -459003, -845858,
}

// adjustmentCoefficient is the per-spec adjustment coefficient: the text
// says 0.025 but the numeric literal actually used is 0.1025 (41/400),
// preserved verbatim since retargets are consensus-sensitive.
var adjustmentCoefficient = big.NewRat(41, 400)

// clampLegacyLo/Hi bound a legacy retarget to [1/4, 4]x.
var (
	clampLegacyLo = big.NewRat(1, 4)
	clampLegacyHi = big.NewRat(4, 1)
)

// clampFilteredLo/Hi bound the filtered adjustment factor to
// [200/211, 211/200].
var (
	clampFilteredLo = big.NewRat(200, 211)
	clampFilteredHi = big.NewRat(211, 200)
)

// Ancestor is the minimal view of chain history the retarget functions
// need: a block's header plus access to its ancestors by depth. The
// ChainState satisfies this by walking Parent handles.
type Ancestor interface {
	// AncestorBits/AncestorTime return the Bits/Time of the node
	// `depth` blocks before `node` (depth=0 returns node itself).
	AncestorBits(node Handle, depth uint32) uint32
	AncestorTime(node Handle, depth uint32) uint32
}

// NextWorkRequired computes the Bits value the next block after `tip`
// must carry at height tip.Height+1. It takes no block time: the
// testnet minimum-difficulty rule (TestnetMinDifficulty) is applied by
// the caller before this is consulted.
// network selects between MainNet's and TestNet's separate FIR-filter
// activation heights; the one-time hash-crash override only ever fired
// on MainNet, and never applies on TestNet.
func NextWorkRequired(a Ancestor, tip *Node, powLimit uint32, network xcoin.Network) uint32 {
	nextHeight := tip.Height + 1

	threshold := uint32(xcoin.DiffFilterThreshold)
	if network == xcoin.TestNet {
		threshold = xcoin.DiffFilterThresholdTestNet
	}

	if nextHeight < threshold {
		return legacyRetarget(a, tip, nextHeight, powLimit)
	}
	if network == xcoin.MainNet && nextHeight == threshold {
		// One-time adjustment due to the "hash crash" of April/May
		// 2013, which rushed the introduction of the filtered
		// retarget: back off to the difficulty prior to the last
		// legacy adjustment rather than whatever tip happens to
		// carry. MainNet-only: TestNet's filter activation was never
		// rushed by that incident.
		return 0x1b01c13a
	}
	return filteredRetarget(a, tip, nextHeight, powLimit)
}

func legacyRetarget(a Ancestor, tip *Node, nextHeight uint32, powLimit uint32) uint32 {
	if nextHeight%xcoin.LegacyRetargetInterval != 0 {
		return tip.Header.Bits
	}

	// Look back a full interval (2016 blocks), except the very first
	// retarget interval which looks back one block fewer (2015) since
	// genesis itself counts as the first block of the window.
	lookback := uint32(xcoin.LegacyRetargetInterval)
	if nextHeight == xcoin.LegacyRetargetInterval {
		lookback--
	}

	firstTime := a.AncestorTime(tip.Parent, lookback-1)
	actualTimespan := int64(tip.Header.Time) - int64(firstTime)

	const targetTimespan = int64(xcoin.LegacyRetargetInterval) * int64(xcoin.TargetSpacing)
	minSpan := targetTimespan / 4
	maxSpan := targetTimespan * 4
	if actualTimespan < minSpan {
		actualTimespan = minSpan
	}
	if actualTimespan > maxSpan {
		actualTimespan = maxSpan
	}

	oldTarget := CompactToBig(tip.Header.Bits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actualTimespan))
	newTarget.Quo(newTarget, big.NewInt(targetTimespan))

	limit := CompactToBig(powLimit)
	if newTarget.Cmp(limit) > 0 {
		newTarget = limit
	}
	return BigToCompact(newTarget)
}

func filteredRetarget(a Ancestor, tip *Node, nextHeight uint32, powLimit uint32) uint32 {
	if nextHeight%xcoin.FilteredRetargetInterval != 0 {
		return tip.Header.Bits
	}

	// Gather the last FIRWindow inter-block intervals ending at tip,
	// padding with target_spacing when fewer blocks exist than the
	// filter window (i.e. shortly after DiffFilterThreshold).
	deltas := make([]int64, xcoin.FIRWindow)
	prevTime := int64(tip.Header.Time)
	for i := 0; i < xcoin.FIRWindow; i++ {
		depth := uint32(i)
		if tip.Height < depth+1 {
			deltas[i] = xcoin.TargetSpacing
			continue
		}
		t1 := int64(a.AncestorTime(tip.Parent, depth))
		deltas[i] = prevTime - t1
		prevTime = t1
	}

	var weighted big.Int
	for i, d := range deltas {
		term := new(big.Int).Mul(big.NewInt(firCoefficients[i]), big.NewInt(d))
		weighted.Add(&weighted, term)
	}
	tFiltered := new(big.Rat).SetFrac(&weighted, big.NewInt(1<<31))

	// f = 1 - 0.1025 * (t_filtered - target_spacing) / target_spacing
	diff := new(big.Rat).Sub(tFiltered, big.NewRat(xcoin.TargetSpacing, 1))
	diff.Quo(diff, big.NewRat(xcoin.TargetSpacing, 1))
	diff.Mul(diff, adjustmentCoefficient)
	f := new(big.Rat).Sub(big.NewRat(1, 1), diff)

	if f.Cmp(clampFilteredLo) < 0 {
		f = clampFilteredLo
	}
	if f.Cmp(clampFilteredHi) > 0 {
		f = clampFilteredHi
	}

	oldTarget := new(big.Rat).SetInt(CompactToBig(tip.Header.Bits))
	newTarget := new(big.Rat).Quo(oldTarget, f)
	newTargetInt := new(big.Int).Quo(newTarget.Num(), newTarget.Denom())

	limit := CompactToBig(powLimit)
	if newTargetInt.Cmp(limit) > 0 {
		newTargetInt = limit
	}
	return BigToCompact(newTargetInt)
}

// TestnetMinDifficulty reports whether the testnet minimum-difficulty
// relaxation applies to a block at nextTime atop tip: if more than
// 2*target_spacing has elapsed since tip, the block may carry the pow
// limit directly, for that block only.
func TestnetMinDifficulty(tip *Node, nextTime uint32, powLimit uint32) (uint32, bool) {
	if int64(nextTime) > int64(tip.Header.Time)+2*xcoin.TargetSpacing {
		return powLimit, true
	}
	return 0, false
}

// TestnetEffectiveBits walks back through ancestors that were NOT
// minimum-difficulty exceptions, for use as the basis of a subsequent
// non-relaxed retarget, per the testnet rule's "subsequent retargets
// step through non-relaxed ancestors" clause.
func TestnetEffectiveBits(a Ancestor, nodes func(Handle) *Node, tip *Node, powLimit uint32) uint32 {
	cur := tip
	for cur.Height%xcoin.LegacyRetargetInterval != 0 && cur.Header.Bits == powLimit {
		parent := nodes(cur.Parent)
		if parent == nil {
			break
		}
		cur = parent
	}
	return cur.Header.Bits
}
