package callno

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerAllocateBindsTableEntry(t *testing.T) {
	m := NewManager(16, DefaultPeerLimits)
	addr := "10.0.0.1:4569"

	callNo, err := m.Allocate(addr, false, "call-state")
	require.NoError(t, err)

	e, ok := m.Table().Get(callNo)
	require.True(t, ok)
	assert.Equal(t, "call-state", e.Owner)
}

func TestManagerReleaseQuarantinesBeforeReuse(t *testing.T) {
	m := NewManager(6, DefaultPeerLimits) // non-trunk range is just {2}
	addr := "10.0.0.1:4569"

	current := time.Unix(1000, 0)
	m.now = func() time.Time { return current }

	callNo, err := m.Allocate(addr, false, nil)
	require.NoError(t, err)

	m.Release(addr, callNo, false, false)

	// Immediately after release the number is quarantined, not free.
	_, err = m.Allocate(addr, false, nil)
	assert.ErrorIs(t, err, ErrPoolExhausted)

	// Advance past MinReuseTime; the next Allocate call should reclaim it.
	current = current.Add(MinReuseTime + time.Second)
	got, err := m.Allocate(addr, false, nil)
	require.NoError(t, err)
	assert.Equal(t, callNo, got)
}

func TestManagerEnforcesPeerQuota(t *testing.T) {
	// S6: a single remote address is capped well below the process-wide
	// call-number space so one peer can't exhaust it alone.
	m := NewManager(16384, PeerLimits{MaxValidated: 4, MaxNonvalidated: 2})
	addr := "203.0.113.9:4569"

	_, err := m.Allocate(addr, false, nil)
	require.NoError(t, err)
	_, err = m.Allocate(addr, false, nil)
	require.NoError(t, err)

	_, err = m.Allocate(addr, false, nil)
	assert.ErrorIs(t, err, ErrNonvalidatedQuotaExceeded)

	other := "203.0.113.10:4569"
	_, err = m.Allocate(other, false, nil)
	assert.NoError(t, err, "a different remote address must not be affected by addr's quota")
}
