package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iax2core/engine/callstate"
)

func TestRegistrationSentSchedulesFiveSixthsRefresh(t *testing.T) {
	start := time.Unix(1000, 0)
	r := NewRegistration("203.0.113.1:4569", "alice", "secret", 60*time.Second)
	assert.Equal(t, callstate.RegUnreg, r.State)

	r.Sent(start)
	assert.Equal(t, callstate.RegSent, r.State)
	assert.False(t, r.Due(start))
	assert.False(t, r.Due(start.Add(49*time.Second)))
	assert.True(t, r.Due(start.Add(50*time.Second)))
}

func TestRegistrationAckedRecordsApparentAddr(t *testing.T) {
	r := NewRegistration("203.0.113.1:4569", "alice", "secret", 60*time.Second)
	now := time.Unix(2000, 0)
	r.Acked("198.51.100.7:31337", now)

	assert.Equal(t, callstate.RegRegistered, r.State)
	assert.Equal(t, "198.51.100.7:31337", r.ApparentAddr)
	assert.True(t, r.Due(now.Add(50*time.Second)))
}

func TestRegistrationAuthRequestedAndRejected(t *testing.T) {
	r := NewRegistration("203.0.113.1:4569", "alice", "secret", 60*time.Second)
	r.AuthRequested()
	assert.Equal(t, callstate.RegAuthSent, r.State)

	r.Rejected()
	assert.Equal(t, callstate.RegRejected, r.State)
}

func TestClampRefresh(t *testing.T) {
	min, max := 60*time.Second, 3600*time.Second
	assert.Equal(t, min, ClampRefresh(10*time.Second, min, max))
	assert.Equal(t, max, ClampRefresh(7200*time.Second, min, max))
	assert.Equal(t, 120*time.Second, ClampRefresh(120*time.Second, min, max))
}
