package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

var (
	ErrCiphertextNotBlockAligned = errors.New("crypto: ciphertext is not a multiple of the block size")
	ErrCiphertextTooShort        = errors.New("crypto: ciphertext shorter than one pad block")
)

// Decrypt reverses Encrypt: CBC-decrypt with a zero chaining block,
// then strip the pad whose length is recorded in the low nibble of
// the 16th byte (spec §4.9).
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	logger := NewLogger("Decrypt").WithCaller()

	if len(key) != BlockSize {
		logger.WithError(ErrInvalidKeySize, "validation", "key_check").Debug("Decrypt called with wrong key size")
		return nil, ErrInvalidKeySize
	}
	if len(ciphertext) < BlockSize {
		return nil, ErrCiphertextTooShort
	}
	if len(ciphertext)%BlockSize != 0 {
		return nil, ErrCiphertextNotBlockAligned
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	var iv [BlockSize]byte
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(plaintext, ciphertext)

	extra := int(plaintext[BlockSize-1] & 0x0f)
	padLen := BlockSize + extra
	if padLen > len(plaintext) {
		return nil, ErrCiphertextTooShort
	}

	result := plaintext[padLen:]
	logger.WithFields(OperationFields("decrypt", "ok", SecureFieldHash(result, "payload"))).
		WithField("pad_len", padLen).
		Debug("frame decrypted")

	return result, nil
}
