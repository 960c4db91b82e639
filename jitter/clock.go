package jitter

import "time"

// RxClock establishes the receive-side time base a call measures
// incoming timestamps against: rxcore is the wallclock moment the
// first frame arrived, and every later frame's "now" is expressed as
// an offset in milliseconds from that moment. This keeps Buffer's
// arithmetic entirely in the frame-timestamp domain instead of mixing
// in wallclock.Time comparisons.
type RxClock struct {
	rxcore time.Time
	set    bool
}

// NewRxClock creates an unset clock; it is anchored on the first call
// to Now.
func NewRxClock() *RxClock {
	return &RxClock{}
}

// Now returns the number of milliseconds elapsed since rxcore,
// anchoring rxcore to at if this is the first call.
func (c *RxClock) Now(at time.Time) uint32 {
	if !c.set {
		c.rxcore = at
		c.set = true
		return 0
	}
	return uint32(at.Sub(c.rxcore).Milliseconds())
}

// Reset drops the anchor so the next Now call re-anchors rxcore; used
// alongside Buffer.resync when a large timestamp jump indicates the
// remote restarted its own clock.
func (c *RxClock) Reset() {
	c.set = false
}
