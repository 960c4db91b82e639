package dispatch

import (
	"sort"
	"sync"

	"github.com/iax2core/engine/wire"
)

// Handler processes one decoded datagram for a given peer address. It
// is supplied by the engine and does the actual call-slot lookup,
// frame application, and reply generation.
type Handler func(addr string, kind wire.FrameKind, raw []byte)

// inFlightKey identifies a call whose full frames must stay ordered
// (spec §4.1 "(address, scallno)").
type inFlightKey struct {
	addr    string
	scallno uint16
}

// deferredFrame is a full-frame datagram waiting for its turn.
type deferredFrame struct {
	raw    []byte
	oseqno uint8
}

// Dispatcher routes arriving datagrams to the worker Pool, deferring
// full frames that would otherwise be processed out of order relative
// to another in-flight full frame for the same call (spec §4.1).
type Dispatcher struct {
	pool    *Pool
	handler Handler

	mu       sync.Mutex
	inFlight map[inFlightKey]bool
	deferred map[inFlightKey][]deferredFrame
}

// NewDispatcher wires a worker pool to a handler callback.
func NewDispatcher(pool *Pool, handler Handler) *Dispatcher {
	return &Dispatcher{
		pool:     pool,
		handler:  handler,
		inFlight: make(map[inFlightKey]bool),
		deferred: make(map[inFlightKey][]deferredFrame),
	}
}

// Receive is called once per arriving UDP datagram. Mini, video-mini,
// and meta frames are submitted to the pool immediately; full frames
// are submitted immediately only if no full frame for the same
// (addr, scallno) is already being processed, otherwise they're queued
// in oseqno order (spec §4.1 "deferred... sorted by oseqno").
func (d *Dispatcher) Receive(addr string, raw []byte) {
	kind, err := wire.Sniff(raw)
	if err != nil {
		log.WithError(err).Warn("failed to sniff datagram, dropping")
		return
	}

	if kind != wire.KindFull {
		d.pool.Submit(func() { d.handler(addr, kind, raw) })
		return
	}

	// Header-only parse: ordering only needs scallno/oseqno, both
	// always cleartext. A full ParseFullFrame would also try to decode
	// the IE body, which is AES ciphertext once a call has negotiated
	// encryption (spec §4.9) and would spuriously fail here, dropping a
	// perfectly good frame before the engine ever sees it.
	ff, _, err := wire.ParseFullFrameHeader(raw)
	if err != nil {
		log.WithError(err).Warn("failed to parse full frame header, dropping")
		return
	}

	key := inFlightKey{addr: addr, scallno: ff.SCallNo}

	d.mu.Lock()
	if d.inFlight[key] {
		d.deferred[key] = insertSorted(d.deferred[key], deferredFrame{raw: raw, oseqno: ff.OSeqNo})
		d.mu.Unlock()
		return
	}
	d.inFlight[key] = true
	d.mu.Unlock()

	d.submitFull(addr, key, raw)
}

// submitFull runs one full frame through the handler and, on
// completion, promotes the next queued frame for the same call (if
// any) so per-call ordering is preserved across worker goroutines.
func (d *Dispatcher) submitFull(addr string, key inFlightKey, raw []byte) {
	ok := d.pool.Submit(func() {
		defer d.completeFull(addr, key)
		d.handler(addr, wire.KindFull, raw)
	})
	if !ok {
		// Pool saturated: drop, same as any other datagram (spec §4.1
		// "if no worker is available, the datagram is dropped").
		d.mu.Lock()
		delete(d.inFlight, key)
		d.mu.Unlock()
	}
}

func (d *Dispatcher) completeFull(addr string, key inFlightKey) {
	d.mu.Lock()
	queue := d.deferred[key]
	if len(queue) == 0 {
		delete(d.inFlight, key)
		d.mu.Unlock()
		return
	}
	next := queue[0]
	if len(queue) == 1 {
		delete(d.deferred, key)
	} else {
		d.deferred[key] = queue[1:]
	}
	d.mu.Unlock()

	d.submitFull(addr, key, next.raw)
}

// insertSorted inserts f into q keeping ascending oseqno order (spec
// §4.1 "per-thread queue sorted by oseqno"). Plain unsigned comparison
// is sufficient here: deferred frames queue up within one in-flight
// window, well short of a 256-wraparound.
func insertSorted(q []deferredFrame, f deferredFrame) []deferredFrame {
	i := sort.Search(len(q), func(i int) bool { return q[i].oseqno >= f.oseqno })
	q = append(q, deferredFrame{})
	copy(q[i+1:], q[i:])
	q[i] = f
	return q
}

// PendingCount reports how many full frames are queued behind an
// in-flight frame for addr/scallno, for tests/metrics.
func (d *Dispatcher) PendingCount(addr string, scallno uint16) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.deferred[inFlightKey{addr: addr, scallno: scallno}])
}
