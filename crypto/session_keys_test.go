package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionKeysStartsIdentical(t *testing.T) {
	now := time.Unix(1000, 0)
	keys := NewSessionKeys([]byte("0123456789abcdef"), now)

	assert.Equal(t, keys.Encrypt, keys.Decrypt)
	assert.Equal(t, keys.Encrypt, keys.MyDecrypt)
	assert.Equal(t, now, keys.InstalledAt)
}

func TestRotateEncryptPreservesPriorKeyAsMyDecrypt(t *testing.T) {
	start := time.Unix(1000, 0)
	keys := NewSessionKeys([]byte("0123456789abcdef"), start)
	oldEncrypt := append([]byte(nil), keys.Encrypt...)

	newKey, err := GenerateRotationKey()
	require.NoError(t, err)

	rotatedAt := start.Add(200 * time.Second)
	keys.RotateEncrypt(newKey, rotatedAt)

	assert.Equal(t, oldEncrypt, keys.MyDecrypt)
	assert.Equal(t, newKey, keys.Encrypt)
	assert.Equal(t, rotatedAt, keys.InstalledAt)
}

// TestSessionKeysRetransmitRoundTrip exercises scenario S5: a
// pre-rotation frame encrypted under the old ecx must still decrypt
// under mydcx after rotation, so it can be re-encrypted under the new
// key before retransmission.
func TestSessionKeysRetransmitRoundTrip(t *testing.T) {
	start := time.Unix(0, 0)
	keys := NewSessionKeys([]byte("0123456789abcdef"), start)

	payload := []byte("pre-rotation frame body")
	ciphertext, err := Encrypt(keys.Encrypt, payload)
	require.NoError(t, err)

	newKey, err := GenerateRotationKey()
	require.NoError(t, err)
	keys.RotateEncrypt(newKey, start.Add(150*time.Second))

	plain, err := Decrypt(keys.MyDecrypt, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, payload, plain)

	reencrypted, err := Encrypt(keys.Encrypt, plain)
	require.NoError(t, err)
	roundTripped, err := Decrypt(keys.Encrypt, reencrypted)
	require.NoError(t, err)
	assert.Equal(t, payload, roundTripped)
}

func TestRotateDecryptInstallsNewKey(t *testing.T) {
	keys := NewSessionKeys([]byte("0123456789abcdef"), time.Unix(0, 0))
	newKey, err := GenerateRotationKey()
	require.NoError(t, err)

	keys.RotateDecrypt(newKey)
	assert.Equal(t, newKey, keys.Decrypt)
}
