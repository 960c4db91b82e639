package callno

import "sync"

// peerKey identifies a remote endpoint's call number from our point of
// view: the address it sends from plus the call number it put in the
// frame's source field (which becomes our dcallno).
type peerKey struct {
	addr    string
	callNo  uint16
}

// Entry is the table's view of one live call number. It carries just
// enough routing state for frame dispatch to find the right owner;
// the actual call state machine lives in package callstate and is
// referenced opaquely through Owner.
type Entry struct {
	ScallNo uint16
	Owner   any

	PeerAddr   string
	PeerCallNo uint16

	TransferAddr   string
	TransferCallNo uint16
}

// Table is the direct-indexed call-number table (spec §4.3): a fixed
// 32768-slot array addressed by our own scallno, plus two auxiliary
// indexes used to find a slot from a remote address's point of view —
// once during normal dispatch (peerAddr, peerCallno) and once during a
// native call transfer, where the peer temporarily talks to us using a
// different call number than the one it opened the call with.
type Table struct {
	mu         sync.RWMutex
	slots      [TableSize]*Entry
	byPeer     map[peerKey]*Entry
	byTransfer map[peerKey]*Entry
}

// NewTable allocates an empty table.
func NewTable() *Table {
	return &Table{
		byPeer:     make(map[peerKey]*Entry),
		byTransfer: make(map[peerKey]*Entry),
	}
}

// Bind creates a new entry at scallno. It fails if the slot is already
// occupied; a slot must be Unbound before its index can be bound again.
func (t *Table) Bind(scallno uint16, owner any) (*Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.slots[scallno] != nil {
		return nil, ErrSlotInUse
	}
	e := &Entry{ScallNo: scallno, Owner: owner}
	t.slots[scallno] = e
	return e, nil
}

// Get returns the entry bound to scallno, if any.
func (t *Table) Get(scallno uint16) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e := t.slots[scallno]
	return e, e != nil
}

// Unbind removes scallno's entry and every auxiliary index pointing at
// it. The call number itself is not returned to its Pool here — that's
// the caller's job, after MIN_REUSE_TIME quarantine.
func (t *Table) Unbind(scallno uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.slots[scallno]
	if e == nil {
		return
	}
	if e.PeerAddr != "" {
		delete(t.byPeer, peerKey{e.PeerAddr, e.PeerCallNo})
	}
	if e.TransferAddr != "" {
		delete(t.byTransfer, peerKey{e.TransferAddr, e.TransferCallNo})
	}
	t.slots[scallno] = nil
}

// IndexPeer records that scallno is known to peerAddr under peerCallno,
// so future frames arriving from that address with that dcallno can be
// routed without the sender needing to have learned our scallno yet
// (spec §4.3, used before a NEW's ACCEPT has round-tripped).
func (t *Table) IndexPeer(scallno uint16, addr string, peerCallNo uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.slots[scallno]
	if e == nil {
		return
	}
	if e.PeerAddr != "" {
		delete(t.byPeer, peerKey{e.PeerAddr, e.PeerCallNo})
	}
	e.PeerAddr, e.PeerCallNo = addr, peerCallNo
	t.byPeer[peerKey{addr, peerCallNo}] = e
}

// LookupByPeer finds the entry indexed under (addr, peerCallNo).
func (t *Table) LookupByPeer(addr string, peerCallNo uint16) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byPeer[peerKey{addr, peerCallNo}]
	return e, ok
}

// SetTransfer records the alternate (addr, callNo) a call will use for
// the remainder of a native call transfer (spec §4.3's transfer index).
func (t *Table) SetTransfer(scallno uint16, addr string, callNo uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.slots[scallno]
	if e == nil {
		return
	}
	if e.TransferAddr != "" {
		delete(t.byTransfer, peerKey{e.TransferAddr, e.TransferCallNo})
	}
	e.TransferAddr, e.TransferCallNo = addr, callNo
	t.byTransfer[peerKey{addr, callNo}] = e
}

// ClearTransfer removes the transfer index for scallno once a transfer
// completes or is abandoned.
func (t *Table) ClearTransfer(scallno uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.slots[scallno]
	if e == nil || e.TransferAddr == "" {
		return
	}
	delete(t.byTransfer, peerKey{e.TransferAddr, e.TransferCallNo})
	e.TransferAddr, e.TransferCallNo = "", 0
}

// LookupByTransfer finds the entry indexed under a transfer (addr, callNo).
func (t *Table) LookupByTransfer(addr string, callNo uint16) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byTransfer[peerKey{addr, callNo}]
	return e, ok
}
