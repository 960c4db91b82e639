package crypto

import (
	"crypto/md5"
	"crypto/rand"
	"errors"
	"math/big"
	"time"
)

// MinRotationInterval and MaxRotationInterval bound the random delay
// between AES key rotations once both sides advertise KEYROTATE (spec
// §4.9 "every 120-300s").
const (
	MinRotationInterval = 120 * time.Second
	MaxRotationInterval = 300 * time.Second
)

var ErrKeyRotateNotNegotiated = errors.New("crypto: key rotation not negotiated for this call")

// RotationScheduler drives a single call's RTKEY timer: it picks a
// random interval in [120s, 300s) after every rotation (its own or the
// peer's), and reports when a fresh local rotation is due.
type RotationScheduler struct {
	enabled  bool
	nextDue  time.Time
	interval func() (time.Duration, error)
}

// NewRotationScheduler creates a scheduler; enabled should reflect
// whether both sides negotiated the KEYROTATE capability bit.
func NewRotationScheduler(enabled bool, now time.Time) *RotationScheduler {
	s := &RotationScheduler{enabled: enabled, interval: randomRotationInterval}
	if enabled {
		s.scheduleNext(now)
	}
	return s
}

func (s *RotationScheduler) scheduleNext(now time.Time) {
	d, err := s.interval()
	if err != nil {
		d = MinRotationInterval // fail safe to the shortest interval
	}
	s.nextDue = now.Add(d)
}

// Due reports whether it's time for us to issue a new RTKEY.
func (s *RotationScheduler) Due(now time.Time) bool {
	return s.enabled && !s.nextDue.After(now)
}

// Rotated resets the timer after a rotation, whichever side triggered
// it — a peer-initiated RTKEY also pushes our own next rotation out,
// since the session just got a fresh key either way.
func (s *RotationScheduler) Rotated(now time.Time) {
	if s.enabled {
		s.scheduleNext(now)
	}
}

// randomRotationInterval picks a uniformly random duration in
// [MinRotationInterval, MaxRotationInterval).
func randomRotationInterval() (time.Duration, error) {
	span := big.NewInt(int64(MaxRotationInterval - MinRotationInterval))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return MinRotationInterval + time.Duration(n.Int64()), nil
}

// GenerateRotationKey picks a 16-byte random value and MD5s it,
// producing the key RTKEY carries on the wire (spec §4.9 "picks a
// 16-byte random, MD5s it, sends RTKEY carrying the new raw key" — S5:
// "k1 = MD5(rand16())"). The pre-image is discarded; only the digest
// ever goes on the wire or gets installed as ecx/dcx.
func GenerateRotationKey() ([]byte, error) {
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	sum := md5.Sum(seed)
	return sum[:], nil
}
