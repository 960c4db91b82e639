package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIERoundTrip(t *testing.T) {
	set := IESet{
		NewStringIE(IEUsername, "alice"),
		NewUint32IE(IECapability, 0x6),
		NewUint16IE(IEVersion, ProtocolVersion),
		NewUint8IE(IECallingPres, 1),
		NewCapability2IE(IECapability2, 1, 0x1FF),
	}

	raw, err := set.Build()
	require.NoError(t, err)

	decoded, err := ParseIEs(raw)
	require.NoError(t, err)
	require.Len(t, decoded, len(set))

	for i := range set {
		assert.Equal(t, set[i].Type, decoded[i].Type)
		assert.Equal(t, set[i].Raw, decoded[i].Raw)
	}
}

func TestParseIEsBadLength(t *testing.T) {
	// type=1, len=10, but only 2 bytes of payload follow.
	raw := []byte{1, 10, 'h', 'i'}
	_, err := ParseIEs(raw)
	assert.ErrorIs(t, err, ErrBadIeLen)
}

func TestSockAddrIE(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("198.51.100.7").To4(), Port: 4569}
	ie := NewSockAddrIE(IEApparentAddr, addr)

	got, err := ie.SockAddr()
	require.NoError(t, err)
	assert.Equal(t, addr.Port, got.Port)
	assert.True(t, addr.IP.Equal(got.IP))
}

func TestDateTimeRoundTrip(t *testing.T) {
	ie := BuildDateTime(2026, 7, 31, 14, 5, 42)
	year, month, day, hour, minute, second, err := ie.DateTime()
	require.NoError(t, err)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 7, month)
	assert.Equal(t, 31, day)
	assert.Equal(t, 14, hour)
	assert.Equal(t, 5, minute)
	// Seconds are only stored at 2-second resolution (5-bit field, <<1).
	assert.Equal(t, 42, second)
}

func TestCapability2RoundTrip(t *testing.T) {
	ie := NewCapability2IE(IEFormat2, 1, uint64(FormatOpus)|uint64(FormatULAW))
	version, bitfield, err := ie.Uint64Capability2()
	require.NoError(t, err)
	assert.Equal(t, byte(1), version)
	assert.Equal(t, uint64(FormatOpus)|uint64(FormatULAW), bitfield)
}
