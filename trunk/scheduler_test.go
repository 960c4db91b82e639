package trunk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iax2core/engine/wire"
)

func TestSchedulerTickFlushesOnePerHost(t *testing.T) {
	var flushed []string
	s := NewScheduler(func(addr string, mf *wire.MetaFrame) {
		flushed = append(flushed, addr)
	})

	now := time.Unix(0, 0)
	p := s.Peer("198.51.100.7:4569", false, now)
	p.Append(1, 0, make([]byte, 20), now)

	s.Tick(now.Add(20 * time.Millisecond))
	require.Len(t, flushed, 1)
	assert.Equal(t, "198.51.100.7:4569", flushed[0])
}

func TestSchedulerTickSkipsEmptyPeers(t *testing.T) {
	var flushed []string
	s := NewScheduler(func(addr string, mf *wire.MetaFrame) {
		flushed = append(flushed, addr)
	})

	now := time.Unix(0, 0)
	s.Peer("198.51.100.7:4569", false, now) // no Append

	s.Tick(now.Add(20 * time.Millisecond))
	assert.Empty(t, flushed)
}

func TestSchedulerReapsIdlePeers(t *testing.T) {
	s := NewScheduler(nil)
	now := time.Unix(0, 0)
	s.Peer("198.51.100.7:4569", false, now)
	require.Equal(t, 1, s.PeerCount())

	s.Tick(now.Add(IdleReap + time.Second))
	assert.Equal(t, 0, s.PeerCount())
}
