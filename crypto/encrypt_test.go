package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("0123456789abcdef")
}

func TestEncryptRejectsWrongKeySize(t *testing.T) {
	_, err := Encrypt([]byte("short"), []byte("payload"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestEncryptRejectsEmptyPayload(t *testing.T) {
	_, err := Encrypt(testKey(), nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestEncryptPaddingInvariant(t *testing.T) {
	for payloadLen := 1; payloadLen <= 40; payloadLen++ {
		payload := make([]byte, payloadLen)
		ciphertext, err := Encrypt(testKey(), payload)
		require.NoError(t, err)

		// §7 invariant: payloadLen+padLen is a multiple of the block
		// size, and padLen is always in [16, 31].
		padLen := len(ciphertext) - payloadLen
		assert.Zero(t, (payloadLen+padLen)%BlockSize, "payload=%d pad=%d", payloadLen, padLen)
		assert.GreaterOrEqual(t, padLen, BlockSize)
		assert.LessOrEqual(t, padLen, BlockSize+15)
		assert.Zero(t, len(ciphertext)%BlockSize)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey()
	payload := []byte("AUTHREQ/ACCEPT IE body goes here")

	ciphertext, err := Encrypt(key, payload)
	require.NoError(t, err)

	plain, err := Decrypt(key, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, payload, plain)
}

func TestEncryptProducesDistinctPadEachCall(t *testing.T) {
	key := testKey()
	payload := []byte("same payload, different pad")

	first, err := Encrypt(key, payload)
	require.NoError(t, err)
	second, err := Encrypt(key, payload)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "random pad should make repeated encryptions of the same payload differ")
}

func TestDecryptRejectsWrongKeySize(t *testing.T) {
	_, err := Decrypt([]byte("short"), make([]byte, 32))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	_, err := Decrypt(testKey(), make([]byte, 4))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestDecryptRejectsUnalignedCiphertext(t *testing.T) {
	_, err := Decrypt(testKey(), make([]byte, 20))
	assert.ErrorIs(t, err, ErrCiphertextNotBlockAligned)
}
