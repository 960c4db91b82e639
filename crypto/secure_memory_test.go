package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureWipeZeroesData(t *testing.T) {
	data := []byte("sensitive-session-key")
	require := assert.New(t)
	require.NoError(SecureWipe(data))
	for _, b := range data {
		require.Zero(b)
	}
}

func TestSecureWipeRejectsNil(t *testing.T) {
	assert.Error(t, SecureWipe(nil))
}

func TestZeroBytesIgnoresNilError(t *testing.T) {
	assert.NotPanics(t, func() { ZeroBytes(nil) })
}

func TestWipeSessionKeysZeroesAllThree(t *testing.T) {
	keys := &SessionKeys{
		Encrypt:   []byte("0123456789abcdef"),
		Decrypt:   []byte("fedcba9876543210"),
		MyDecrypt: []byte("aaaaaaaaaaaaaaaa"),
	}
	require := assert.New(t)
	require.NoError(WipeSessionKeys(keys))
	for _, b := range keys.Encrypt {
		require.Zero(b)
	}
	for _, b := range keys.Decrypt {
		require.Zero(b)
	}
	for _, b := range keys.MyDecrypt {
		require.Zero(b)
	}
}

func TestWipeSessionKeysRejectsNil(t *testing.T) {
	assert.Error(t, WipeSessionKeys(nil))
}
