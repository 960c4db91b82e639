package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iax2core/engine/jitter"
	"github.com/iax2core/engine/wire"
)

func TestNewBridge(t *testing.T) {
	tests := []struct {
		name          string
		format        wire.Format
		wantClockRate uint32
		wantPT        uint8
	}{
		{name: "ulaw", format: wire.FormatULAW, wantClockRate: 8000, wantPT: 0},
		{name: "alaw", format: wire.FormatALAW, wantClockRate: 8000, wantPT: 8},
		{name: "slin16", format: wire.FormatSLIN16, wantClockRate: 16000, wantPT: 96},
		{name: "opus", format: wire.FormatOpus, wantClockRate: 48000, wantPT: 96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBridge(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.wantClockRate, b.clockRate)
			assert.Equal(t, tt.wantPT, b.payloadType)
			assert.NotZero(t, b.SSRC())
		})
	}
}

func TestBridge_Packetize_SequenceAndTimestampAdvance(t *testing.T) {
	b, err := NewBridge(wire.FormatULAW)
	require.NoError(t, err)

	p1, err := b.Packetize(jitter.Frame{Timestamp: 1000, Payload: []byte("abc"), Voice: true}, false)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), p1.SequenceNumber)
	assert.Equal(t, uint32(0), p1.Timestamp)
	assert.Equal(t, []byte("abc"), p1.Payload)

	p2, err := b.Packetize(jitter.Frame{Timestamp: 1020, Payload: []byte("def"), Voice: true}, false)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), p2.SequenceNumber)
	assert.Equal(t, uint32(160), p2.Timestamp) // 20ms @ 8000Hz = 160 samples

	assert.Equal(t, p1.SSRC, p2.SSRC)
}

func TestBridge_Packetize_RejectsEmptyPayload(t *testing.T) {
	b, err := NewBridge(wire.FormatULAW)
	require.NoError(t, err)

	_, err = b.Packetize(jitter.Frame{Timestamp: 1000}, false)
	assert.Error(t, err)
}
