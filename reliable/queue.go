package reliable

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "reliable")

// RetryPolicy controls how a call's unacked full frames are retried
// (spec §4.5). The initial delay is derived from the call's measured
// ping time and then grows geometrically on each retry.
type RetryPolicy struct {
	PingTime    time.Duration // used to derive the first retry delay
	MinRetry    time.Duration
	MaxRetry    time.Duration
	TransferCap time.Duration // ceiling applied to transfer-flagged frames
	MaxRetries  int
}

// DefaultRetryPolicy matches the wire-mandated constants: initial delay
// clamped to [100ms, 10s], ×10 growth per retry, transfer frames capped
// at 1s, destroy after 4 retries.
var DefaultRetryPolicy = RetryPolicy{
	MinRetry:    100 * time.Millisecond,
	MaxRetry:    10 * time.Second,
	TransferCap: time.Second,
	MaxRetries:  4,
}

func (p RetryPolicy) initialDelay() time.Duration {
	d := p.PingTime * 2
	if d < p.MinRetry {
		d = p.MinRetry
	}
	if d > p.MaxRetry {
		d = p.MaxRetry
	}
	return d
}

func (p RetryPolicy) nextDelay(cur time.Duration, transfer bool) time.Duration {
	d := cur * 10
	cap := p.MaxRetry
	if transfer && p.TransferCap < cap {
		cap = p.TransferCap
	}
	if d > cap {
		d = cap
	}
	return d
}

// Pending is one outbound full frame awaiting acknowledgment.
type Pending struct {
	OSeqNo    uint8
	Data      []byte
	Transfer  bool
	Final     bool
	Retries   int
	nextRetry time.Time
	delay     time.Duration

	// EncryptedAt is zero for a frame sent in cleartext, and otherwise
	// the time its IE body was encrypted. A retransmit fired after a
	// key rotation moved EncKeyInstalledAt past this time must decrypt
	// Data's body with the call's mydcx before re-encrypting it under
	// the new ecx (spec §4.9 "Retransmit"); the engine sets this field
	// after Enqueue, it's not touched inside this package.
	EncryptedAt time.Time
}

// Queue is a per-call retransmit queue ordered by insertion (= oseqno
// order, since oseqno increases monotonically per call).
type Queue struct {
	mu     sync.Mutex
	policy RetryPolicy
	frames []*Pending
}

// NewQueue creates an empty queue governed by policy.
func NewQueue(policy RetryPolicy) *Queue {
	return &Queue{policy: policy}
}

// Enqueue adds a freshly sent full frame to the queue, seeding its
// first retry deadline from the policy's initial delay.
func (q *Queue) Enqueue(oseqno uint8, data []byte, transfer, final bool, now time.Time) *Pending {
	q.mu.Lock()
	defer q.mu.Unlock()

	delay := q.policy.initialDelay()
	if transfer && delay > q.policy.TransferCap {
		delay = q.policy.TransferCap
	}
	p := &Pending{
		OSeqNo:    oseqno,
		Data:      data,
		Transfer:  transfer,
		Final:     final,
		nextRetry: now.Add(delay),
		delay:     delay,
	}
	q.frames = append(q.frames, p)
	return p
}

// Ack releases every queued frame whose oseqno precedes iseqno in the
// mod-256 sliding window (spec invariant 3 / "implicit ack"), returning
// the released frames for any bookkeeping the caller wants to do.
func (q *Queue) Ack(iseqno uint8) []*Pending {
	q.mu.Lock()
	defer q.mu.Unlock()

	var released []*Pending
	kept := q.frames[:0]
	for _, p := range q.frames {
		if SeqLess(p.OSeqNo, iseqno) {
			released = append(released, p)
			continue
		}
		kept = append(kept, p)
	}
	q.frames = kept
	return released
}

// Tick advances time for every queued frame, returning the frames due
// for retransmission right now. A frame whose retry budget is
// exhausted is removed from the queue and reported via maxRetries
// instead of being returned for resend.
func (q *Queue) Tick(now time.Time) (due []*Pending, maxRetries []*Pending) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.frames[:0]
	for _, p := range q.frames {
		if now.Before(p.nextRetry) {
			kept = append(kept, p)
			continue
		}
		p.Retries++
		if p.Retries > q.policy.MaxRetries {
			maxRetries = append(maxRetries, p)
			continue
		}
		p.delay = q.policy.nextDelay(p.delay, p.Transfer)
		p.nextRetry = now.Add(p.delay)
		due = append(due, p)
		kept = append(kept, p)
	}
	q.frames = kept
	return due, maxRetries
}

// VNAK returns every queued frame whose oseqno is at or after k in the
// mod-256 window, i.e. every frame the peer is saying it never saw
// (spec §4.5 "On receiving a VNAK with iseqno = k, resend every queued
// frame whose oseqno − k (mod 256) < 128").
func (q *Queue) VNAK(k uint8) []*Pending {
	q.mu.Lock()
	defer q.mu.Unlock()

	var resend []*Pending
	for _, p := range q.frames {
		if p.Retries < 0 {
			continue
		}
		if SeqDistance(k, p.OSeqNo) < window {
			resend = append(resend, p)
		}
	}
	return resend
}

// Len reports how many frames are currently unacked, for tests/metrics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}
