package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtendAudioTimestampNoWrap(t *testing.T) {
	last := uint32(100000)
	got := ExtendAudioTimestamp(last, uint16(last+500))
	assert.Equal(t, last+500, got)
}

func TestExtendAudioTimestampRolloverForward(t *testing.T) {
	last := uint32(65000)
	// mini ts wraps to a small value that is "ahead" of last once extended.
	got := ExtendAudioTimestamp(last, 100)
	assert.Equal(t, uint32(65536+100), got)
}

func TestExtendAudioTimestampRolloverBackward(t *testing.T) {
	last := uint32(70000)
	got := ExtendAudioTimestamp(last, 0xfff0)
	assert.Equal(t, uint32(65520), got)
	assert.Less(t, got, last)
}

func TestExtendVideoTimestamp(t *testing.T) {
	last := uint32(30000)
	got := ExtendVideoTimestamp(last, 100)
	assert.Equal(t, uint32(32768+100), got)
}

func TestTimestampPredictorMonotonic(t *testing.T) {
	p := NewTimestampPredictor(20)
	prev := p.NextVoice(1000)
	for i := 1; i <= 5; i++ {
		cur := p.NextVoice(int64(1000 + i*20))
		assert.Greater(t, cur, prev)
		prev = cur
	}
}

func TestTimestampPredictorNonVoiceMonotonic(t *testing.T) {
	p := NewTimestampPredictor(20)
	p.NextVoice(1000)
	a := p.NextNonVoice(1000)
	b := p.NextNonVoice(1000)
	assert.Greater(t, b, a)
}
