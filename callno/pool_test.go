package callno

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAllocateExhaustion(t *testing.T) {
	p := NewPool(2, 6) // 4 call numbers: 2,3,4,5
	seen := make(map[uint16]bool)
	for i := 0; i < 4; i++ {
		c, err := p.Allocate()
		require.NoError(t, err)
		assert.False(t, seen[c], "call number reused before any Free")
		assert.GreaterOrEqual(t, c, uint16(2))
		assert.Less(t, c, uint16(6))
		seen[c] = true
	}

	_, err := p.Allocate()
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestPoolFreeReallowsReallocation(t *testing.T) {
	p := NewPool(2, 3) // single call number: 2
	c, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), c)

	_, err = p.Allocate()
	assert.ErrorIs(t, err, ErrPoolExhausted)

	p.Free(c)
	assert.Equal(t, 1, p.Available())

	c2, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), c2)
}

func TestPoolsSplitNonTrunkAndTrunkRanges(t *testing.T) {
	pools := NewPools(16)
	half := uint16(8)

	for i := 0; i < int(half-MinCallNo); i++ {
		c, err := pools.NonTrunk.Allocate()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, c, MinCallNo)
		assert.Less(t, c, half)
	}
	_, err := pools.NonTrunk.Allocate()
	assert.ErrorIs(t, err, ErrPoolExhausted)

	for i := 0; i < 8; i++ {
		c, err := pools.Trunk.Allocate()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, c, half)
		assert.Less(t, c, uint16(16))
	}
}

func TestPoolsForSelectsCorrectPool(t *testing.T) {
	pools := NewPools(16)
	assert.Same(t, pools.Trunk, pools.For(true))
	assert.Same(t, pools.NonTrunk, pools.For(false))
}
