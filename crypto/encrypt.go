package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

// BlockSize is the AES block size IAX2 encryption chains over.
const BlockSize = aes.BlockSize // 16

var (
	ErrInvalidKeySize = errors.New("crypto: key must be 16 bytes for AES-128")
	ErrEmptyPayload   = errors.New("crypto: cannot encrypt an empty payload")
)

// Encrypt encrypts a full frame's IE payload for the wire (spec §4.9
// "Frame layout"): a random pad of 16 bytes plus 0-15 extra bytes is
// prepended, the extra count chosen so pad+payload fill whole 16-byte
// blocks and recorded in the low nibble of the pad's byte 15; the whole
// buffer is then CBC-chained with a
// zero-initialized chaining block, matching "lastblock initialized to
// zero at each encrypt" — equivalent to CBC with a zero IV, re-derived
// fresh on every call so no IV needs to travel on the wire.
func Encrypt(key, payload []byte) ([]byte, error) {
	logger := NewLogger("Encrypt")

	if len(key) != BlockSize {
		logger.WithField("key_size", len(key)).Error("Encrypt called with wrong key size")
		return nil, ErrInvalidKeySize
	}
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	extra := padExtraFor(len(payload))
	padLen := BlockSize + extra

	plaintext := make([]byte, padLen+len(payload))
	if _, err := rand.Read(plaintext[:padLen]); err != nil {
		return nil, err
	}
	plaintext[BlockSize-1] = (plaintext[BlockSize-1] &^ 0x0f) | byte(extra)
	copy(plaintext[padLen:], payload)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	var iv [BlockSize]byte
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(ciphertext, plaintext)

	logger.WithFields(OperationFields("encrypt", "ok", SecureFieldHash(payload, "payload"))).
		WithField("pad_len", padLen).
		WithField("total_size", len(ciphertext)).
		Debug("frame encrypted")

	return ciphertext, nil
}

// padExtraFor computes the extra 0..15 bytes needed, beyond the
// mandatory 16-byte pad block, so payloadLen+padLen is a multiple of
// 16 (spec §7 invariant "payloadLen + padLen ≡ 0 (mod 16) and
// 16 ≤ padLen ≤ 31").
func padExtraFor(payloadLen int) int {
	return (BlockSize - (payloadLen % BlockSize)) % BlockSize
}
