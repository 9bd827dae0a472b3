package dispatch

import (
	"testing"
	"time"

	"github.com/blkchain/xcoin/consensus"
)

func Test_Reputation_BansAtThreshold(t *testing.T) {
	r := &Reputation{}
	if r.Add(50) {
		t.Fatalf("50 points should not ban")
	}
	if !r.Add(50) {
		t.Fatalf("100 accumulated points should ban")
	}
	if !r.Banned(time.Now()) {
		t.Fatalf("peer should be banned after crossing threshold")
	}
}

func Test_Dispatcher_MisbehavingIgnoresNonConsensusErrors(t *testing.T) {
	d := NewDispatcher(nil)
	if d.Misbehaving("peer1", nil) {
		t.Fatalf("nil error should not trigger a ban")
	}
}

func Test_Dispatcher_MalformedMessageBansImmediately(t *testing.T) {
	d := NewDispatcher(nil)
	malformed := consensus.New(consensus.Malformed, "bad varint")
	d.Misbehaving("peer2", malformed)
	if !d.IsBanned("peer2") {
		t.Fatalf("one malformed message (score 100) should ban immediately")
	}
}

func Test_Dispatcher_PolicyRejectNeverBans(t *testing.T) {
	d := NewDispatcher(nil)
	for i := 0; i < 50; i++ {
		d.Misbehaving("peer4", consensus.New(consensus.PolicyReject, "low fee"))
	}
	if d.IsBanned("peer4") {
		t.Fatalf("PolicyReject carries no DoS score and should never ban")
	}
}

func Test_Dispatcher_ForgetClearsReputation(t *testing.T) {
	d := NewDispatcher(nil)
	d.Misbehaving("peer3", consensus.New(consensus.Invalid, "bad merkle"))
	d.Forget("peer3")
	if d.reputation("peer3").Score() != 0 {
		t.Fatalf("Forget should reset reputation for a peer re-seen later")
	}
}
