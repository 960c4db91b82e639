package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQualifyStateDueRespectsFreqOKThenTightensOnTimeout(t *testing.T) {
	start := time.Unix(0, 0)
	q := NewQualifyState(60*time.Second, 10*time.Second)

	assert.True(t, q.Due(start))
	q.Sent(start)
	assert.False(t, q.Due(start.Add(5*time.Second)))

	q.Timeout()
	assert.False(t, q.Reachable())
	assert.False(t, q.Due(start.Add(5*time.Second)))
	assert.True(t, q.Due(start.Add(10*time.Second)))
}

func TestQualifyStatePongSmoothsHistoricMs(t *testing.T) {
	start := time.Unix(100, 0)
	q := NewQualifyState(60*time.Second, 10*time.Second)

	q.Sent(start)
	rtt := q.Pong(start.Add(40 * time.Millisecond))
	assert.InDelta(t, 40, rtt, 0.5)
	assert.InDelta(t, 40, q.HistoricMs(), 0.5)
	assert.True(t, q.Reachable())

	q.Sent(start.Add(time.Minute))
	q.Pong(start.Add(time.Minute).Add(80 * time.Millisecond))
	assert.InDelta(t, 60, q.HistoricMs(), 0.5)
}

func TestQualifyStateExceedsMaxMs(t *testing.T) {
	q := NewQualifyState(0, 0)
	q.historicMs = 150
	assert.True(t, q.ExceedsMaxMs(100))
	assert.False(t, q.ExceedsMaxMs(0))
	assert.False(t, q.ExceedsMaxMs(200))
}
