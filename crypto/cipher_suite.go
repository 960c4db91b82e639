package crypto

import "errors"

// Encryption mask bits (spec §4.9 "Negotiation"): the offered
// encryption mask is a bitfield; currently one cipher (AES-128) plus a
// KEYROTATE capability bit.
const (
	EncryptionAES128   uint16 = 1 << 0
	EncryptionKeyRotate uint16 = 1 << 1
)

var ErrEncryptionRequired = errors.New("crypto: call requires encryption but none was negotiated")

// NegotiateEncryption ANDs a local and peer-offered encryption mask
// together. A zero result means no encryption was agreed; whether
// that's acceptable is a force-encrypt policy decision the caller
// makes with RequireEncryption, not this function.
func NegotiateEncryption(local, peer uint16) (mask uint16) {
	return local & peer
}

// RequireEncryption enforces force-encryption policy (spec §4.9
// "Force-encrypt"): a call that ends up with no AES-128 bit in its
// negotiated mask must be rejected when forced is true.
func RequireEncryption(mask uint16, forced bool) error {
	if forced && mask&EncryptionAES128 == 0 {
		return ErrEncryptionRequired
	}
	return nil
}

// KeyRotateNegotiated reports whether both sides support key rotation
// within an already-negotiated mask.
func KeyRotateNegotiated(mask uint16) bool {
	return mask&EncryptionKeyRotate != 0
}
