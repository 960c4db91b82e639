package registry

import (
	"time"

	"github.com/iax2core/engine/callstate"
)

// Registration is an outbound REGREQ directed at a remote registrar
// (spec §3 Data Model "Registration").
type Registration struct {
	Address  string
	Username string
	Secret   string

	RefreshInterval time.Duration
	State           callstate.RegState

	ApparentAddr string // the address the registrar reports seeing us as, from REGACK
	nextSend     time.Time
}

// NewRegistration creates a registration in RegUnreg, ready for its
// first REGREQ.
func NewRegistration(addr, username, secret string, refresh time.Duration) *Registration {
	return &Registration{
		Address:         addr,
		Username:        username,
		Secret:          secret,
		RefreshInterval: refresh,
		State:           callstate.RegUnreg,
	}
}

// sendInterval is 5/6 of the refresh interval (spec §4.6 "Outbound
// registration"), so a renewal reliably lands before the registrar's
// binding would otherwise expire.
func (r *Registration) sendInterval() time.Duration {
	return r.RefreshInterval * 5 / 6
}

// Sent marks a REGREQ just went out and schedules the next refresh.
func (r *Registration) Sent(now time.Time) {
	r.State = callstate.RegSent
	r.nextSend = now.Add(r.sendInterval())
}

// AuthRequested transitions on REGAUTH, awaiting a credentialed retry.
func (r *Registration) AuthRequested() {
	r.State = callstate.RegAuthSent
}

// Acked transitions on REGACK, recording the registrar's apparent
// address for us.
func (r *Registration) Acked(apparentAddr string, now time.Time) {
	r.State = callstate.RegRegistered
	r.ApparentAddr = apparentAddr
	r.nextSend = now.Add(r.sendInterval())
}

// Rejected transitions on REGREJ.
func (r *Registration) Rejected() {
	r.State = callstate.RegRejected
}

// Due reports whether it's time to (re-)send REGREQ.
func (r *Registration) Due(now time.Time) bool {
	return !r.nextSend.After(now)
}

// ClampRefresh bounds a requested refresh interval to [min, max] (spec
// §4.6 inbound REGREQ step 4).
func ClampRefresh(requested, min, max time.Duration) time.Duration {
	if requested < min {
		return min
	}
	if requested > max {
		return max
	}
	return requested
}
