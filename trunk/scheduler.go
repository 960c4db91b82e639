package trunk

import (
	"sync"
	"time"
)

// DefaultTickInterval is the trunk scheduler's fixed tick (spec §4.8
// default 20ms / 50Hz).
const DefaultTickInterval = 20 * time.Millisecond

// Scheduler owns every TrunkPeer and drains them all once per tick,
// emitting at most one meta-frame per host per tick (spec §4.8
// "A single fixed-rate timer ... drains every TrunkPeer").
type Scheduler struct {
	mu    sync.Mutex
	peers map[string]*TrunkPeer
	flush FlushFunc
}

// NewScheduler creates a scheduler that calls flush for every
// non-empty peer on each Tick.
func NewScheduler(flush FlushFunc) *Scheduler {
	return &Scheduler{peers: make(map[string]*TrunkPeer), flush: flush}
}

// Peer returns addr's TrunkPeer, creating it on first reference.
func (s *Scheduler) Peer(addr string, hasTimestamps bool, now time.Time) *TrunkPeer {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.peers[addr]
	if !ok {
		p = NewTrunkPeer(addr, hasTimestamps, now)
		s.peers[addr] = p
	}
	return p
}

// Tick drains every peer's buffered entries into a meta-frame (if any
// are pending), reaps idle peers, and invokes flush for each frame
// produced.
func (s *Scheduler) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for addr, p := range s.peers {
		if p.Idle(now) {
			delete(s.peers, addr)
			continue
		}
		if mf := p.drain(now); mf != nil && s.flush != nil {
			s.flush(addr, mf)
		}
	}
}

// PeerCount reports how many hosts currently have a TrunkPeer, for
// tests/metrics.
func (s *Scheduler) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}
