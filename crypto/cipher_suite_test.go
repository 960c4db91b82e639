package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegotiateEncryptionANDsMasks(t *testing.T) {
	mask := NegotiateEncryption(EncryptionAES128|EncryptionKeyRotate, EncryptionAES128)
	assert.Equal(t, EncryptionAES128, mask)
}

func TestNegotiateEncryptionNoOverlapYieldsZero(t *testing.T) {
	mask := NegotiateEncryption(EncryptionKeyRotate, EncryptionAES128)
	assert.Zero(t, mask)
}

func TestRequireEncryptionNotForced(t *testing.T) {
	assert.NoError(t, RequireEncryption(0, false))
}

func TestRequireEncryptionForcedWithoutAES128(t *testing.T) {
	err := RequireEncryption(EncryptionKeyRotate, true)
	assert.ErrorIs(t, err, ErrEncryptionRequired)
}

func TestRequireEncryptionForcedWithAES128(t *testing.T) {
	assert.NoError(t, RequireEncryption(EncryptionAES128, true))
}

func TestKeyRotateNegotiated(t *testing.T) {
	assert.True(t, KeyRotateNegotiated(EncryptionAES128|EncryptionKeyRotate))
	assert.False(t, KeyRotateNegotiated(EncryptionAES128))
}
