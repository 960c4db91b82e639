package reliable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqLessBasic(t *testing.T) {
	assert.True(t, SeqLess(5, 6))
	assert.False(t, SeqLess(6, 5))
	assert.False(t, SeqLess(5, 5))
}

func TestSeqLessWraparoundAt256(t *testing.T) {
	// 254, 255, 0, 1 must all compare as increasing across the wrap.
	assert.True(t, SeqLess(254, 255))
	assert.True(t, SeqLess(255, 0))
	assert.True(t, SeqLess(0, 1))
	assert.True(t, SeqLess(254, 1))
}

func TestSeqLessHalfWindowBoundary(t *testing.T) {
	// Forward distance of exactly 128 is outside the strict "less than"
	// window (spec invariant 6: window ≤ 128, used as < 128 for VNAK reach).
	assert.False(t, SeqLess(0, 128))
	assert.True(t, SeqLess(0, 127))
}

func TestSeqLessEqual(t *testing.T) {
	assert.True(t, SeqLessEqual(5, 5))
	assert.True(t, SeqLessEqual(5, 6))
	assert.False(t, SeqLessEqual(6, 5))
}

func TestSeqDistance(t *testing.T) {
	assert.Equal(t, uint8(5), SeqDistance(10, 15))
	assert.Equal(t, uint8(1), SeqDistance(255, 0))
}
