// Package dispatch accumulates per-peer misbehavior scores, marks
// peers that cross the threshold as banned, and publishes chain events
// — the message dispatcher component of the system overview, and the
// home for the consensus package's DoS scores once a rejection reaches
// the network boundary. It does not route messages itself: callers
// hand it the errors their mempool/blockvalidate/chainindex calls
// returned.
package dispatch

import (
	"sync"
	"time"

	"github.com/blkchain/xcoin/consensus"
)

// banThreshold mirrors the historical Bitcoin Core default: a peer
// whose accumulated misbehavior score reaches 100 is marked banned for
// banDuration. Closing its connection is left to the transport code,
// which checks IsBanned.
const banThreshold = 100

const banDuration = 24 * time.Hour

// Reputation accumulates a single peer's DoS score across however
// many messages it has sent this session, and tracks whether it's
// currently banned.
type Reputation struct {
	mu        sync.Mutex
	score     int
	bannedUntil time.Time
}

// Add records a rejection's DoS score against the peer. It returns
// true if this addition pushed the peer over the ban threshold.
func (r *Reputation) Add(score int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if score <= 0 {
		return false
	}
	r.score += score
	if r.score >= banThreshold {
		r.bannedUntil = time.Now().Add(banDuration)
		return true
	}
	return false
}

// Banned reports whether the peer is presently within its ban window.
func (r *Reputation) Banned(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return now.Before(r.bannedUntil)
}

// Score returns the current accumulated misbehavior score.
func (r *Reputation) Score() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.score
}

// PeerID is whatever a transport layer uses to address a connection
// (commonly a remote address string); the dispatcher doesn't care.
type PeerID string

// Dispatcher tracks a Reputation per peer; it does not route messages.
// It is deliberately thin: the actual accept/connect logic
// lives in mempool/blockvalidate/chainindex, this just wires DoS
// scores from their returned errors back to the originating peer and
// emits events for accepted items.
type Dispatcher struct {
	mu    sync.Mutex
	peers map[PeerID]*Reputation
	bus   *EventBus
}

// NewDispatcher builds a dispatcher publishing chain events on bus.
func NewDispatcher(bus *EventBus) *Dispatcher {
	return &Dispatcher{peers: make(map[PeerID]*Reputation), bus: bus}
}

func (d *Dispatcher) reputation(peer PeerID) *Reputation {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.peers[peer]
	if !ok {
		r = &Reputation{}
		d.peers[peer] = r
	}
	return r
}

// IsBanned reports whether peer is currently banned; transport code
// should refuse to read further messages from a banned peer.
func (d *Dispatcher) IsBanned(peer PeerID) bool {
	return d.reputation(peer).Banned(time.Now())
}

// Misbehaving charges a peer for err's DoS score (zero if err isn't a
// *consensus.Err, e.g. a Transient storage error). Returns true if
// this pushed the peer over the ban threshold.
func (d *Dispatcher) Misbehaving(peer PeerID, err error) bool {
	ce, ok := consensus.IsConsensusError(err)
	if !ok {
		return false
	}
	return d.reputation(peer).Add(ce.DoSScore)
}

// NotifyNewTip publishes a NewTip event to subscribers.
func (d *Dispatcher) NotifyNewTip(e Event) {
	if d.bus != nil {
		d.bus.Publish(e)
	}
}

// Forget drops a disconnected peer's reputation record; called by the
// transport layer on disconnect so long-lived nodes don't accumulate
// an unbounded map of stale peers.
func (d *Dispatcher) Forget(peer PeerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.peers, peer)
}
