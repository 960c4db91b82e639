package calltoken

import "sync"

// UpgradeTracker implements AUTO policy's one-way upgrade: a peer
// starts OPTIONAL and becomes REQUIRED after its first successful
// validation (spec §4.7 "AUTO starts optional and upgrades to REQUIRED
// on first successful validation").
type UpgradeTracker struct {
	mu       sync.Mutex
	upgraded map[string]bool
}

// NewUpgradeTracker creates an empty tracker.
func NewUpgradeTracker() *UpgradeTracker {
	return &UpgradeTracker{upgraded: make(map[string]bool)}
}

// Upgrade records that addr has completed a successful validation.
func (t *UpgradeTracker) Upgrade(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.upgraded[addr] = true
}

// EffectivePolicy resolves an AUTO-configured peer's current
// requirement for addr; REQUIRED/OPTIONAL/NO pass through unchanged
// since only AUTO depends on history.
func (t *UpgradeTracker) EffectivePolicy(configured Policy, addr string) Policy {
	if configured != PolicyAuto {
		return configured
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.upgraded[addr] {
		return PolicyRequired
	}
	return PolicyOptional
}

// Requires reports whether policy mandates a validated token before a
// call number may be allocated. OPTIONAL still permits an unvalidated
// allocation (spec §4.7 "OPTIONAL is equivalent to not required unless
// the peer's IP is outside the calltoken-ignore list" — the ignore
// list itself belongs to config, out of scope here).
func Requires(p Policy) bool {
	return p == PolicyRequired
}
