package callno

import (
	"sync"
	"time"
)

// MinReuseTime is how long a freed call number sits quarantined before
// it's returned to its pool, so a late retransmit of an old frame can't
// be mistaken for traffic on a just-issued call (spec §4.3).
const MinReuseTime = 60 * time.Second

// Manager is the call-number table's public entry point: it combines
// the split allocation pools, the direct-indexed table, and per-peer
// quota tracking into the operations callstate actually needs —
// allocate-for-a-new-call and release-after-teardown.
type Manager struct {
	pools   *Pools
	table   *Table
	peers   *PeerCounts
	now     func() time.Time
	mu      sync.Mutex
	pending []quarantined
}

type quarantined struct {
	callNo  uint16
	trunk   bool
	freedAt time.Time
}

// NewManager builds a Manager over n total call numbers and the given
// per-peer limits. Its clock is time.Now.
func NewManager(n int, limits PeerLimits) *Manager {
	return &Manager{
		pools: NewPools(n),
		table: NewTable(),
		peers: NewPeerCounts(limits),
		now:   time.Now,
	}
}

// Table exposes the underlying direct-indexed table for dispatch lookups.
func (m *Manager) Table() *Table { return m.table }

// Allocate admits a new nonvalidated call from addr and binds a fresh
// scallno to owner. It fails with ErrNonvalidatedQuotaExceeded if addr
// already has too many unauthenticated calls outstanding, or with
// ErrPoolExhausted if the relevant pool (trunk or non-trunk) is empty.
func (m *Manager) Allocate(addr string, trunk bool, owner any) (uint16, error) {
	if err := m.peers.ReserveNonvalidated(addr); err != nil {
		return 0, err
	}

	m.reclaim()

	callNo, err := m.pools.For(trunk).Allocate()
	if err != nil {
		m.peers.ReleaseNonvalidated(addr)
		return 0, err
	}
	if _, err := m.table.Bind(callNo, owner); err != nil {
		m.pools.For(trunk).Free(callNo)
		m.peers.ReleaseNonvalidated(addr)
		return 0, err
	}
	return callNo, nil
}

// Validate promotes addr's reservation for callNo from nonvalidated to
// validated once its call-token/auth handshake completes.
func (m *Manager) Validate(addr string, callNo uint16) error {
	return m.peers.Validate(addr)
}

// Release unbinds callNo's table entry, releases addr's quota
// reservation, and schedules the call number itself for return to its
// pool after MinReuseTime.
func (m *Manager) Release(addr string, callNo uint16, trunk, wasValidated bool) {
	m.table.Unbind(callNo)
	if wasValidated {
		m.peers.ReleaseValidated(addr)
	} else {
		m.peers.ReleaseNonvalidated(addr)
	}

	m.mu.Lock()
	m.pending = append(m.pending, quarantined{callNo: callNo, trunk: trunk, freedAt: m.now()})
	m.mu.Unlock()
}

// reclaim returns quarantined call numbers whose MinReuseTime has
// elapsed back to their pool. Called opportunistically on Allocate so
// no background goroutine is required, mirroring the teacher's
// lazy-sweep style in its replay-protection nonce store.
func (m *Manager) reclaim() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-MinReuseTime)
	kept := m.pending[:0]
	for _, q := range m.pending {
		if q.freedAt.Before(cutoff) {
			m.pools.For(q.trunk).Free(q.callNo)
			continue
		}
		kept = append(kept, q)
	}
	m.pending = kept
}
