package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubclassRoundTrip(t *testing.T) {
	values := []int64{0, 1, 2, 0x7f, -1}
	for i := 0; i <= 62; i++ {
		values = append(values, int64(1)<<uint(i))
	}

	for _, v := range values {
		csub, err := compressSubclass(v)
		require.NoError(t, err, "value %d", v)
		got := uncompressSubclass(csub)
		assert.Equal(t, v, got, "round trip of %d", v)
	}
}

func TestSubclassReservedSentinel(t *testing.T) {
	assert.Equal(t, int64(-1), uncompressSubclass(0xFF))
}

func TestSubclassNotCompressible(t *testing.T) {
	_, err := compressSubclass(0x7f + 3) // not a power of two, above direct range
	assert.Error(t, err)
}
