package crypto

import (
	"crypto/subtle"
	"errors"
	"runtime"
)

// SecureWipe attempts to securely erase the contents of a byte slice
// containing sensitive data. It returns an error if the byte slice is nil.
//
// This function uses subtle.XORBytes to perform a constant-time XOR operation
// that the compiler cannot optimize away. XORing data with itself (x XOR x = 0)
// securely zeros the data while providing resistance to compiler optimizations.
func SecureWipe(data []byte) error {
	if data == nil {
		return errors.New("cannot wipe nil data")
	}

	// Overwrite the data with zeros using XOR operation
	// subtle.XORBytes performs constant-time XOR that compilers cannot optimize away
	// XORing data with itself: x XOR x = 0
	subtle.XORBytes(data, data, data)

	// Prevent compiler from optimizing out the zeroing
	runtime.KeepAlive(data)

	return nil
}

// ZeroBytes erases the contents of a byte slice containing sensitive data.
// This is a convenience function that ignores the error from SecureWipe.
func ZeroBytes(data []byte) {
	_ = SecureWipe(data)
}

// WipeSessionKeys securely erases a call's encrypt/decrypt/mydcx keys.
// This should be called when a CallSlot is destroyed (spec §4.9).
func WipeSessionKeys(keys *SessionKeys) error {
	if keys == nil {
		return errors.New("cannot wipe nil SessionKeys")
	}
	ZeroBytes(keys.Encrypt)
	ZeroBytes(keys.Decrypt)
	ZeroBytes(keys.MyDecrypt)
	return nil
}
