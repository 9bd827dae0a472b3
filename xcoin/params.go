package xcoin

import "time"

// Network-wide constants. These are consensus-relevant: any node that
// disagrees on these values will fork from the rest of the network.
const (
	// COIN is the number of base units in one display unit.
	COIN = 100_000_000

	// MaxMoney is the maximum representable supply, in base units.
	MaxMoney = 100_000_000 * COIN

	// DemurrageDenominator (R) controls the decay rate of stored
	// value: present_value(v, depth) = v * ((R-1)/R)^depth.
	DemurrageDenominator = 4_000_000_000

	// TitheAmount is the fixed per-block mandated initial-distribution
	// payment, in base units.
	TitheAmount = 2 * COIN

	// InitialSubsidy is the additional per-block subsidy at height 0,
	// on top of TitheAmount; it ramps linearly to zero at EqHeight.
	InitialSubsidy = 100 * COIN

	// EqHeight is the first height with no initial-distribution payment:
	// the ramp (TitheAmount+InitialSubsidy at height 0) falls to just
	// above TitheAmount at EqHeight-1 and is zero from EqHeight on.
	EqHeight = 6_720_000

	// CoinbaseMaturity is the number of confirmations a coinbase
	// output must have, on the same branch, before it can be spent.
	CoinbaseMaturity = 100

	// MaxBlockSize is the maximum serialized size of a block, in bytes.
	MaxBlockSize = 1_000_000

	// MaxBlockSizeGen is the portion of MaxBlockSize mining is allowed
	// to target when building new blocks; past this, the mempool's
	// minimum relay fee increases super-linearly.
	MaxBlockSizeGen = MaxBlockSize / 2

	// MaxBlockSigOps caps the legacy sigop count of a block.
	MaxBlockSigOps = MaxBlockSize / 50

	// TargetSpacing is the intended time, in seconds, between blocks.
	TargetSpacing = 120

	// LegacyRetargetInterval is the block count of a legacy (pre-FIR)
	// difficulty window.
	LegacyRetargetInterval = 2016

	// FilteredRetargetInterval is the block count between FIR-filtered
	// retargets.
	FilteredRetargetInterval = 9

	// FIRWindow is the number of trailing inter-block intervals the FIR
	// filter consumes.
	FIRWindow = 144

	// DiffFilterThreshold is the height at which the difficulty
	// algorithm switches from legacy to FIR-filtered, on MainNet.
	DiffFilterThreshold = 150_000

	// DiffFilterThresholdTestNet is TestNet's separate, earlier
	// switchover height, so a test chain reaches the FIR-filtered
	// retarget without needing to replay 150,000 blocks first.
	DiffFilterThresholdTestNet = 15_000

	// SignedMessagePrefix is prepended to messages before signing, a
	// consensus-relevant literal inherited from the Bitcoin lineage
	// this protocol rebrands.
	SignedMessagePrefix = "Xcoin Signed Message:\n"

	// MempoolMaxRefHeightAhead bounds how far into the future a tx's
	// ref_height may sit relative to the current best height and still
	// be mempool-acceptable.
	MempoolMaxRefHeightAhead = 20

	// BIP16SwitchTime is the block timestamp (unix seconds) from which
	// blockvalidate.ConnectBlock's bip16Active sigop check applies.
	BIP16SwitchTime = 1_333_238_400

	// MaxFutureBlockTime bounds how far ahead of the local adjusted
	// clock a block's timestamp may be and still be accepted.
	MaxFutureBlockTime = 2 * time.Hour

	// CurrentTxVersion is the highest transaction version this node
	// will relay or mine; IsStandard rejects anything newer.
	CurrentTxVersion = 1

	// LockTimeThreshold distinguishes a tx's LockTime field as a block
	// height (below the threshold) from a Unix timestamp (at or above
	// it), per the Bitcoin-lineage convention.
	LockTimeThreshold = 500_000_000
)

// Network identifies which of the two hard-coded parameter sets (and
// therefore which genesis block, magic and address schedule) a node
// is operating under.
type Network uint8

const (
	MainNet Network = iota
	TestNet
)

// Params bundles the values that differ between MainNet and TestNet.
// The 320-entry mandated initial-distribution address schedule is kept
// in package budget (it is a budget-engine concern, not a wire/graph
// one) and looked up by Network rather than embedded here.
type Params struct {
	Network      Network
	Magic        uint32
	GenesisHash  Uint256
	GenesisTime  uint32
	GenesisBits  uint32
	GenesisNonce uint32
}

var mainGenesisHash, _ = Uint256FromString("000000005b1e3d23ecfd2dd4a6e1a35238aa0392c0a8528c40df52376d7efe2c")
var testGenesisHash, _ = Uint256FromString("00000000a52504ffe3420a43bd385ef24f81838921a903460b235d95f37cd65e")

// MainNetParams is the production network parameter set.
var MainNetParams = Params{
	Network:      MainNet,
	Magic:        MainNetMagic,
	GenesisHash:  mainGenesisHash,
	GenesisTime:  1231006505,
	GenesisBits:  0x1d00ffff,
	GenesisNonce: 2083236893,
}

// TestNetParams is the test network parameter set.
var TestNetParams = Params{
	Network:      TestNet,
	Magic:        TestNetMagic,
	GenesisHash:  testGenesisHash,
	GenesisTime:  1296688602,
	GenesisBits:  0x1d00ffff,
	GenesisNonce: 414098458,
}

// ParamsForNetwork resolves the Params for a Network value.
func ParamsForNetwork(n Network) *Params {
	if n == TestNet {
		return &TestNetParams
	}
	return &MainNetParams
}
