// Package jitter implements the per-call jitter buffer: frames are
// inserted by reconstructed timestamp and drained at a caller-driven
// cadence, smoothing network jitter while detecting loss and large
// timing jumps (spec §4.5).
package jitter

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "jitter")

// Result is the outcome of a Get call.
type Result int

const (
	// Empty means the buffer holds no frames at all.
	Empty Result = iota
	// NoFrame means the next frame exists but its timestamp hasn't
	// arrived yet.
	NoFrame
	// OK means a frame was due and is returned.
	OK
	// Interp means the expected next frame is missing; the caller
	// should synthesize concealment audio for this slot.
	Interp
	// Drop means a frame arrived, or was due, too late to play and was
	// discarded instead of returned.
	Drop
)

func (r Result) String() string {
	switch r {
	case Empty:
		return "EMPTY"
	case NoFrame:
		return "NOFRAME"
	case OK:
		return "OK"
	case Interp:
		return "INTERP"
	case Drop:
		return "DROP"
	default:
		return "UNKNOWN"
	}
}

// Frame is one media frame as it sits in the jitter buffer, keyed by
// its reconstructed 32-bit session timestamp (wire.ExtendAudioTimestamp
// output, not a raw mini-frame ts).
type Frame struct {
	Timestamp uint32
	Payload   []byte
	Voice     bool
}

// Config mirrors the spec's configurable jitter-buffer constants.
type Config struct {
	MaxJitterBuf    time.Duration
	ResyncThreshold time.Duration
	MaxContigInterp int
	TargetExtra     time.Duration
	GapForResync    time.Duration
}

// DefaultConfig matches spec §4.5's stated defaults.
var DefaultConfig = Config{
	MaxJitterBuf:    1000 * time.Millisecond,
	ResyncThreshold: 1000 * time.Millisecond,
	MaxContigInterp: 10,
	TargetExtra:     40 * time.Millisecond,
	GapForResync:    5000 * time.Millisecond,
}

// Buffer is a per-call jitter buffer. Not safe for concurrent use; the
// owning CallSlot's lock serializes access (spec §5 "Jitter buffer is
// touched only under the owning slot's lock").
type Buffer struct {
	cfg Config

	frames []Frame // sorted ascending by Timestamp

	havePlayed   bool
	lastPlayedTS uint32
	haveLastVox  bool
	lastVoiceTS  uint32
	contigInterp int
}

// New creates a jitter buffer with the given configuration.
func New(cfg Config) *Buffer {
	return &Buffer{cfg: cfg}
}

// TargetExtra exposes the configured playout cushion so the caller's
// clock layer can add it to its delivery-time estimate before calling
// Get (spec's jitter buffer contract operates on "wallclock offset from
// rxcore", which already includes this cushion).
func (b *Buffer) TargetExtra() time.Duration { return b.cfg.TargetExtra }

// Put inserts a received frame into the buffer in timestamp order. It
// reports Drop if the frame is already too old to ever be played (its
// timestamp is at or before the last frame already delivered to the
// caller), and performs a resync — discarding everything buffered — if
// a voice frame's timestamp has jumped by more than GapForResync from
// the last voice frame seen (spec §4.5 "TS_GAP_FOR_JB_RESYNC").
func (b *Buffer) Put(f Frame) Result {
	if b.havePlayed && f.Timestamp <= b.lastPlayedTS {
		return Drop
	}

	if f.Voice {
		if b.haveLastVox {
			gap := int64(f.Timestamp) - int64(b.lastVoiceTS)
			if gap < 0 {
				gap = -gap
			}
			if gap > b.cfg.GapForResync.Milliseconds() {
				log.WithFields(logrus.Fields{
					"last_voice_ts": b.lastVoiceTS,
					"new_ts":        f.Timestamp,
				}).Info("jitter: resyncing on large timestamp gap")
				b.resync()
			}
		}
		b.lastVoiceTS = f.Timestamp
		b.haveLastVox = true
	}

	idx := sort.Search(len(b.frames), func(i int) bool {
		return b.frames[i].Timestamp >= f.Timestamp
	})
	if idx < len(b.frames) && b.frames[idx].Timestamp == f.Timestamp {
		b.frames[idx] = f // duplicate timestamp: last write wins
		return OK
	}
	b.frames = append(b.frames, Frame{})
	copy(b.frames[idx+1:], b.frames[idx:])
	b.frames[idx] = f
	return OK
}

func (b *Buffer) resync() {
	b.frames = nil
	b.havePlayed = false
	b.contigInterp = 0
}

// Next reports how long the caller should wait before calling Get
// again: zero if a frame is already due at nowMs, or the delay until
// the earliest buffered frame becomes due. A zero duration with Empty
// result means there is nothing buffered to wait for at all.
func (b *Buffer) Next(nowMs uint32) (time.Duration, Result) {
	if len(b.frames) == 0 {
		return 0, Empty
	}
	head := b.frames[0]
	if nowMs >= head.Timestamp {
		return 0, OK
	}
	return time.Duration(head.Timestamp-nowMs) * time.Millisecond, NoFrame
}

// Get drains the buffer for the current playout tick. frameDurationMs
// is the negotiated codec's frame spacing, used to detect a missing
// frame (a gap larger than one frame duration between the last played
// timestamp and the next buffered one).
func (b *Buffer) Get(nowMs uint32, frameDurationMs uint32) (Result, Frame) {
	if len(b.frames) == 0 {
		if b.havePlayed && nowMs-b.lastPlayedTS > uint32(b.cfg.ResyncThreshold.Milliseconds()) {
			b.resync()
		}
		return Empty, Frame{}
	}

	head := b.frames[0]
	if nowMs < head.Timestamp {
		return NoFrame, Frame{}
	}

	if nowMs-head.Timestamp > uint32(b.cfg.MaxJitterBuf.Milliseconds()) {
		b.frames = b.frames[1:]
		return Drop, Frame{}
	}

	if b.havePlayed && frameDurationMs > 0 {
		expected := b.lastPlayedTS + frameDurationMs
		if head.Timestamp > expected && b.contigInterp < b.cfg.MaxContigInterp {
			b.contigInterp++
			b.lastPlayedTS = expected
			b.havePlayed = true
			return Interp, Frame{}
		}
	}

	b.frames = b.frames[1:]
	b.lastPlayedTS = head.Timestamp
	b.havePlayed = true
	b.contigInterp = 0
	return OK, head
}

// Len reports how many frames are currently buffered, for tests/metrics.
func (b *Buffer) Len() int { return len(b.frames) }
