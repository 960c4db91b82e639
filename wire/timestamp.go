package wire

// Mini-frame timestamps only carry the low bits of the 32-bit session
// timestamp (16 bits for audio, 15 for video); the high bits must be
// reconstructed from the last full frame seen on the call (spec §4.2
// "Timestamp extension (decoder)", invariant 9).

const (
	audioRolloverThreshold uint32 = 50000 // ms
	videoRolloverThreshold uint32 = 25000 // ms
)

// ExtendAudioTimestamp reconstructs a full 32-bit timestamp from a mini
// frame's 16-bit low timestamp and the last full-frame timestamp observed
// on the same call.
func ExtendAudioTimestamp(last uint32, miniTS uint16) uint32 {
	upper := last &^ 0xffff
	candidate := upper | uint32(miniTS)

	if last > candidate && last-candidate > audioRolloverThreshold {
		candidate += 0x10000
	} else if candidate > last && candidate-last > audioRolloverThreshold {
		candidate -= 0x10000
	}
	return candidate
}

// ExtendVideoTimestamp reconstructs a full timestamp from a video mini
// frame's 15-bit low timestamp, using a tighter 25s wraparound threshold on
// the upper 17 bits.
func ExtendVideoTimestamp(last uint32, miniTS uint16) uint32 {
	upper := last &^ 0x7fff
	candidate := upper | uint32(miniTS&0x7fff)

	if last > candidate && last-candidate > videoRolloverThreshold {
		candidate += 0x8000
	} else if candidate > last && candidate-last > videoRolloverThreshold {
		candidate -= 0x8000
	}
	return candidate
}

// TimestampPredictor tracks the per-call outgoing timestamp stream and
// implements the emission rule from spec §4.2 "Timestamp emission":
// voice timestamps drift toward wallclock by 10% exponential smoothing of
// the predicted/measured gap, non-voice frames stay monotonic by a floor
// of lastSent+3, and a diverging predictor reseeds from wallclock rounded
// up to a frame-duration multiple.
type TimestampPredictor struct {
	txOffset     int64 // deliveryTime - ts, established on first voice frame
	haveOffset   bool
	lastSent     uint32
	frameDurMs   uint32
	notSilentTx  bool
}

// NewTimestampPredictor creates a predictor for a call whose voice frames
// are frameDurMs milliseconds each (used to round reseed points).
func NewTimestampPredictor(frameDurMs uint32) *TimestampPredictor {
	if frameDurMs == 0 {
		frameDurMs = 20
	}
	return &TimestampPredictor{frameDurMs: frameDurMs}
}

// NextVoice computes the outgoing ts for a voice frame delivered at
// deliveryTimeMs (a monotonic wallclock in milliseconds).
func (p *TimestampPredictor) NextVoice(deliveryTimeMs int64) uint32 {
	if !p.haveOffset {
		p.txOffset = deliveryTimeMs
		p.haveOffset = true
		p.notSilentTx = true
		p.lastSent = 0
		return 0
	}

	predicted := uint32(deliveryTimeMs - p.txOffset)
	if predicted < p.lastSent {
		predicted = p.lastSent
	}

	// Exponential smoothing: drift txOffset 10% toward the gap between
	// what we predicted and what the wallclock actually measured.
	gap := deliveryTimeMs - p.txOffset - int64(predicted)
	p.txOffset += gap / 10

	ts := uint32(deliveryTimeMs - p.txOffset)
	if int64(ts)-int64(p.lastSent) > 640 {
		// Divergence beyond tolerance: reseed from wallclock, rounded up
		// to a frame-duration multiple so silence intervals stay aligned.
		rounded := uint32(deliveryTimeMs) + p.frameDurMs - 1
		rounded -= rounded % p.frameDurMs
		p.txOffset = deliveryTimeMs - int64(rounded)
		ts = rounded
	}

	p.notSilentTx = true
	p.lastSent = ts
	return ts
}

// NextNonVoice computes the outgoing ts for a non-voice (signaling)
// full frame: monotonic, floored at lastSent+3 or the current wallclock
// offset, whichever is larger.
func (p *TimestampPredictor) NextNonVoice(wallclockMs int64) uint32 {
	floor := p.lastSent + 3
	var fromClock uint32
	if p.haveOffset {
		fromClock = uint32(wallclockMs - p.txOffset)
	}
	ts := floor
	if fromClock > ts {
		ts = fromClock
	}
	p.lastSent = ts
	return ts
}

// MarkSilence clears the "not silent" flag on a CNG/non-voice frame (spec
// §4.5 "Silence/CNG"). NextVoice does not read the flag, so the voice
// frame after a silence is timestamped by the same rule as any other and
// the predicted-ts stream is not reseeded.
func (p *TimestampPredictor) MarkSilence() {
	p.notSilentTx = false
}
