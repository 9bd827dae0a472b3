package blockvalidate

import (
	"testing"

	"github.com/blkchain/xcoin/chainindex"
	"github.com/blkchain/xcoin/xcoin"
)

func mkTestNetHeader(prev xcoin.Uint256, bits uint32, t uint32, nonce uint32) xcoin.BlockHeader {
	return xcoin.BlockHeader{
		PrevHash: prev,
		Bits:     bits,
		Time:     t,
		Nonce:    nonce,
	}
}

func Test_CheckDifficultyBits_TestNetMinDifficultyRelaxation(t *testing.T) {
	cs := chainindex.NewChainState(&xcoin.TestNetParams)

	genesisHeader := mkTestNetHeader(xcoin.Uint256{}, 0x1d00ffff, 1_000_000, 0)
	g, err := cs.AddToBlockIndex(genesisHeader)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	parent := cs.Node(g)

	// More than 2*target_spacing after parent: the block may carry
	// powLimit directly regardless of what NextWorkRequired would
	// otherwise compute.
	lateTime := parent.Header.Time + 2*xcoin.TargetSpacing + 1
	header := &xcoin.BlockHeader{
		PrevHash: parent.Hash,
		Bits:     xcoin.TestNetParams.GenesisBits,
		Time:     lateTime,
	}

	if err := checkDifficultyBits(cs, parent, header, xcoin.TestNet, xcoin.TestNetParams.GenesisBits); err != nil {
		t.Fatalf("expected relaxed-difficulty testnet block to be accepted, got %v", err)
	}
}

func Test_CheckDifficultyBits_TestNetRejectsWrongRelaxedBits(t *testing.T) {
	cs := chainindex.NewChainState(&xcoin.TestNetParams)

	genesisHeader := mkTestNetHeader(xcoin.Uint256{}, 0x1c00ffff, 1_000_000, 0)
	g, err := cs.AddToBlockIndex(genesisHeader)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	parent := cs.Node(g)

	lateTime := parent.Header.Time + 2*xcoin.TargetSpacing + 1
	header := &xcoin.BlockHeader{
		PrevHash: parent.Hash,
		Bits:     parent.Header.Bits, // should have relaxed to powLimit instead
		Time:     lateTime,
	}

	if err := checkDifficultyBits(cs, parent, header, xcoin.TestNet, xcoin.TestNetParams.GenesisBits); err == nil {
		t.Fatalf("expected rejection: block should have carried the relaxed min-difficulty bits")
	}
}

func Test_CheckDifficultyBits_MainNetIgnoresRelaxation(t *testing.T) {
	cs := chainindex.NewChainState(&xcoin.MainNetParams)

	genesisHeader := mkTestNetHeader(xcoin.Uint256{}, 0x207fffff, 1_000_000, 0)
	g, err := cs.AddToBlockIndex(genesisHeader)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	parent := cs.Node(g)

	lateTime := parent.Header.Time + 2*xcoin.TargetSpacing + 1
	header := &xcoin.BlockHeader{
		PrevHash: parent.Hash,
		Bits:     parent.Header.Bits,
		Time:     lateTime,
	}

	// MainNet has no minimum-difficulty relaxation: a late block must
	// still satisfy the ordinary retarget, not an arbitrary powLimit.
	if err := checkDifficultyBits(cs, parent, header, xcoin.MainNet, xcoin.MainNetParams.GenesisBits); err != nil {
		t.Fatalf("unchanged bits off-interval should satisfy the ordinary retarget: %v", err)
	}
}
