// Package reliable implements IAX2's reliable-delivery layer for full
// frames: unsigned mod-256 sequence number comparisons, the per-call
// retransmit queue with exponential-ish backoff, and VNAK-driven
// selective retransmission (spec §4.5).
package reliable

// window is the half of the 256-value sequence space treated as "ahead"
// of any given reference point (spec invariant 6: "unsigned sliding
// window arithmetic with window ≤ 128").
const window = 128

// SeqLess reports whether a comes strictly before b in the mod-256
// sequence space, using the same half-window convention as the
// retransmit/ack logic: a is "less than" b if the forward distance from
// a to b is within the window and nonzero.
func SeqLess(a, b uint8) bool {
	d := uint8(b - a)
	return d != 0 && d < window
}

// SeqLessEqual reports whether a equals b or precedes it.
func SeqLessEqual(a, b uint8) bool {
	return a == b || SeqLess(a, b)
}

// SeqDistance returns the forward distance from a to b in [0, 255],
// i.e. how many increments of a (mod 256) reach b.
func SeqDistance(a, b uint8) uint8 {
	return b - a
}
