package reliable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueAckReleasesPriorFrames(t *testing.T) {
	// S2: host sends oseqno=5, peer eventually replies iseqno=6.
	q := NewQueue(DefaultRetryPolicy)
	now := time.Unix(0, 0)
	q.Enqueue(5, []byte("frame5"), false, false, now)

	released := q.Ack(6)
	require.Len(t, released, 1)
	assert.Equal(t, uint8(5), released[0].OSeqNo)
	assert.Equal(t, 0, q.Len())
}

func TestQueueTickRetransmitsAfterInitialDelay(t *testing.T) {
	// S2: retrytime=200ms fixed via PingTime=100ms (initialDelay = 200ms).
	policy := DefaultRetryPolicy
	policy.PingTime = 100 * time.Millisecond
	q := NewQueue(policy)

	now := time.Unix(0, 0)
	q.Enqueue(5, []byte("frame5"), false, false, now)

	due, maxRetries := q.Tick(now.Add(100 * time.Millisecond))
	assert.Empty(t, due)
	assert.Empty(t, maxRetries)

	due, maxRetries = q.Tick(now.Add(201 * time.Millisecond))
	require.Len(t, due, 1)
	assert.Empty(t, maxRetries)
	assert.Equal(t, 1, due[0].Retries)

	// Peer's ack finally lands; no more retransmits should fire.
	q.Ack(6)
	due, maxRetries = q.Tick(now.Add(time.Hour))
	assert.Empty(t, due)
	assert.Empty(t, maxRetries)
}

func TestQueueMaxRetriesDestroysFrame(t *testing.T) {
	policy := DefaultRetryPolicy
	policy.MinRetry = time.Millisecond
	policy.MaxRetries = 2
	q := NewQueue(policy)

	now := time.Unix(0, 0)
	q.Enqueue(1, []byte("x"), false, false, now)

	// Drive enough ticks to exceed MaxRetries.
	t1 := now
	for i := 0; i < policy.MaxRetries; i++ {
		t1 = t1.Add(time.Second)
		due, maxRetries := q.Tick(t1)
		require.Len(t, due, 1)
		assert.Empty(t, maxRetries)
	}

	t1 = t1.Add(time.Second)
	due, maxRetries := q.Tick(t1)
	assert.Empty(t, due)
	require.Len(t, maxRetries, 1)
	assert.Equal(t, 0, q.Len())
}

func TestQueueVNAKResendsOnlyUnackedAtOrAfterK(t *testing.T) {
	// S3: host sends 10,11,12; frame 11 is lost; VNAK iseqno=11 requests
	// retransmission of 11 and 12 only.
	q := NewQueue(DefaultRetryPolicy)
	now := time.Unix(0, 0)
	q.Enqueue(10, []byte("f10"), false, false, now)
	q.Enqueue(11, []byte("f11"), false, false, now)
	q.Enqueue(12, []byte("f12"), false, false, now)

	// Frame 10 was acked already (peer's iseqno had reached 11 before the
	// gap), so only 11 and 12 remain queued.
	q.Ack(11)

	resend := q.VNAK(11)
	require.Len(t, resend, 2)
	seqs := []uint8{resend[0].OSeqNo, resend[1].OSeqNo}
	assert.ElementsMatch(t, []uint8{11, 12}, seqs)
}

func TestQueueTransferFramesCapDelayLower(t *testing.T) {
	policy := DefaultRetryPolicy
	policy.PingTime = time.Second // initialDelay would be 2s, clamp to 1s transfer cap
	q := NewQueue(policy)

	now := time.Unix(0, 0)
	p := q.Enqueue(1, []byte("t"), true, false, now)
	assert.Equal(t, time.Second, p.delay)
}
