package calltoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateRoundTrip(t *testing.T) {
	// S1: client echoes the exact token within 9s of issuance.
	current := time.Unix(1700000000, 0)
	g := NewGuard([]byte("server-secret"))
	g.now = func() time.Time { return current }

	token := g.Issue("198.51.100.7", 4569)

	current = current.Add(9 * time.Second)
	err := g.Validate(token, "198.51.100.7", 4569)
	require.NoError(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	current := time.Unix(1700000000, 0)
	g := NewGuard([]byte("server-secret"))
	g.now = func() time.Time { return current }

	token := g.Issue("198.51.100.7", 4569)

	current = current.Add(MaxCallTokenDelay + time.Second)
	err := g.Validate(token, "198.51.100.7", 4569)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateRejectsMismatchedAddress(t *testing.T) {
	current := time.Unix(1700000000, 0)
	g := NewGuard([]byte("server-secret"))
	g.now = func() time.Time { return current }

	token := g.Issue("198.51.100.7", 4569)
	err := g.Validate(token, "203.0.113.1", 4569)
	assert.ErrorIs(t, err, ErrTokenMismatch)
}

func TestValidateRejectsMalformedToken(t *testing.T) {
	g := NewGuard([]byte("secret"))
	err := g.Validate("not-a-token", "198.51.100.7", 4569)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestValidateRejectsFutureTimestamp(t *testing.T) {
	current := time.Unix(1700000000, 0)
	g := NewGuard([]byte("secret"))
	g.now = func() time.Time { return current }
	token := g.Issue("198.51.100.7", 4569)

	current = current.Add(-time.Hour)
	err := g.Validate(token, "198.51.100.7", 4569)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
