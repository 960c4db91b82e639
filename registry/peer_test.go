package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeerHoldReleaseTracksRefCount(t *testing.T) {
	p := &Peer{Name: "alice"}
	assert.EqualValues(t, 0, p.RefCount())

	p.Hold()
	p.Hold()
	assert.EqualValues(t, 2, p.RefCount())

	p.Release()
	assert.EqualValues(t, 1, p.RefCount())
}
