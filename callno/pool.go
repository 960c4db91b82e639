// Package callno implements the call-number table: the process-wide pools
// of 15-bit source call numbers (scallnos), the direct-indexed slot table
// they index into, and the per-remote quota tracking that bounds how many
// scallnos a single address may hold (spec §4.3).
package callno

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math/big"
	"sync"

	"github.com/sirupsen/logrus"
)

// Call numbers 0 and 1 are reserved; scallno 0x8000 and above encode the
// "full frame" bit and are never valid call numbers themselves.
const (
	MinCallNo   uint16 = 2
	MaxCallNo   uint16 = 0x7fff
	TableSize          = int(MaxCallNo) + 1
	defaultPool        = 16384 // spec §1: 16384 simultaneous calls on one socket
)

var log = logrus.WithField("package", "callno")

var (
	// ErrPoolExhausted indicates no scallno is available in the requested pool.
	ErrPoolExhausted = errors.New("callno: pool exhausted")
)

// Pool is a Fisher-Yates-Durstenfeld shuffle pool over a contiguous range
// of call numbers (spec §4.3 "Allocation algorithm"). Allocating swaps the
// picked entry to the tail and shrinks the live region; freeing (after
// quarantine) grows it back. This spreads allocation across the whole
// range so retransmissions of an old call number don't collide with a
// freshly allocated one.
type Pool struct {
	mu        sync.Mutex
	order     []uint16 // a permutation of [lo, hi)
	available int      // order[:available] are free
}

// NewPool creates a pool over the half-open range [lo, hi).
func NewPool(lo, hi uint16) *Pool {
	n := int(hi) - int(lo)
	order := make([]uint16, n)
	for i := range order {
		order[i] = lo + uint16(i)
	}
	shuffle(order)
	return &Pool{order: order, available: n}
}

// shuffle performs an in-place Fisher-Yates-Durstenfeld shuffle using
// crypto/rand so initial allocation order isn't predictable to a remote
// attacker probing for freshly issued call numbers.
func shuffle(s []uint16) {
	for i := len(s) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

func randIndex(n int) int {
	if n <= 1 {
		return 0
	}
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		// rand.Int failed; fall back to 8 bytes from rand.Read reduced
		// modulo n rather than panic mid-shuffle.
		var buf [8]byte
		_, _ = rand.Read(buf[:])
		return int(binary.BigEndian.Uint64(buf[:]) % uint64(n))
	}
	return int(v.Int64())
}

// Allocate picks a uniform-random available call number and removes it
// from the free region.
func (p *Pool) Allocate() (uint16, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.available == 0 {
		return 0, ErrPoolExhausted
	}
	idx := randIndex(p.available)
	picked := p.order[idx]
	p.available--
	p.order[idx] = p.order[p.available]
	p.order[p.available] = picked
	return picked, nil
}

// Free returns a call number to the free region. Callers are responsible
// for delaying this until MIN_REUSE_TIME has elapsed (spec §4.3
// "Quarantine"); the pool itself has no notion of time.
func (p *Pool) Free(callno uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.available >= len(p.order) {
		log.WithField("callno", callno).Warn("callno: free called with pool already full")
		return
	}
	p.order[p.available] = callno
	p.available++
}

// Available reports how many call numbers remain free, for metrics/tests.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// Pools holds the two split pools (spec invariant 2): non-trunk call
// numbers in [MinCallNo, n/2) and trunk call numbers in [n/2, n).
type Pools struct {
	NonTrunk *Pool
	Trunk    *Pool
}

// NewPools builds the split pools for a table sized to hold n simultaneous
// calls (default 16384, spec §1/§6 maxcallnumbers).
func NewPools(n int) *Pools {
	if n <= 0 {
		n = defaultPool
	}
	half := uint16(n / 2)
	return &Pools{
		NonTrunk: NewPool(MinCallNo, half),
		Trunk:    NewPool(half, uint16(n)),
	}
}

// For returns the pool a caller should allocate from for a trunk or
// non-trunk call.
func (p *Pools) For(trunk bool) *Pool {
	if trunk {
		return p.Trunk
	}
	return p.NonTrunk
}
