package registry

import "sync"

// PeerTable is the process-wide peer directory, keyed by name. Go's
// built-in map already amortizes bucket growth, so unlike the
// teacher's bucket-count tuning this needs no low-memory/normal-memory
// sizing knob (see DESIGN.md).
type PeerTable struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

// NewPeerTable creates an empty table.
func NewPeerTable() *PeerTable {
	return &PeerTable{peers: make(map[string]*Peer)}
}

// Put inserts or replaces a peer record.
func (t *PeerTable) Put(p *Peer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[p.Name] = p
}

// Lookup returns a held reference to name's peer record, or nil if
// unknown. Callers must call Release on a non-nil result.
func (t *PeerTable) Lookup(name string) *Peer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[name]
	if !ok {
		return nil
	}
	return p.Hold()
}

// FindByAddr scans for a peer of any Origin currently bound to addr, used
// when a frame's source address (not an asserted username) must
// resolve to a peer, e.g. POKE or an inbound registration refresh.
func (t *PeerTable) FindByAddr(addr string) *Peer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.peers {
		if p.CurrentAddr == addr {
			return p.Hold()
		}
	}
	return nil
}

// Remove deletes name's record entirely.
func (t *PeerTable) Remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, name)
}

// Range calls fn for every peer currently registered; fn must not
// block for long since it runs under the table's read lock.
func (t *PeerTable) Range(fn func(*Peer)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.peers {
		fn(p)
	}
}

// UserTable is the process-wide user directory, keyed by name.
type UserTable struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewUserTable creates an empty table.
func NewUserTable() *UserTable {
	return &UserTable{users: make(map[string]*User)}
}

// Put inserts or replaces a user record.
func (t *UserTable) Put(u *User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users[u.Name] = u
}

// Lookup returns a held reference to name's user record, or nil.
func (t *UserTable) Lookup(name string) *User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.users[name]
	if !ok {
		return nil
	}
	return u.Hold()
}

// Best scans every user for the highest-scoring match against an
// inbound NEW's asserted username and ACL outcome (spec §4.4 step 1).
// It returns nil if no user scores above MatchNone.
func (t *UserTable) Best(username string, aclCheck func(*User) bool) *User {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var best *User
	bestScore := MatchNone
	for _, u := range t.users {
		aclOK := aclCheck != nil && aclCheck(u)
		if score := u.Score(username, aclOK); score > bestScore {
			best, bestScore = u, score
		}
	}
	if best == nil {
		return nil
	}
	return best.Hold()
}

// Remove deletes name's record entirely.
func (t *UserTable) Remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.users, name)
}
