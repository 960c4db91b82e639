// Package crypto implements IAX2's call encryption and authentication
// primitives (spec §4.9): AES-128-CBC frame encryption with a custom
// random pad and mid-call key rotation, MD5-challenge key derivation,
// and RSA keypair handling for RSA-signed challenge authentication.
//
// # Frame encryption
//
// Encrypt and Decrypt implement the wire's pad-then-CBC-chain scheme:
// a random pad of 16 bytes plus 0-15 extra bytes (the low nibble of the
// pad's byte 15 records the extra count, chosen so pad and payload fill
// whole blocks) is prepended to the payload before
// AES-128-CBC with a zero chaining block, reinitialized fresh on every
// call so no IV travels on the wire:
//
//	ciphertext, err := crypto.Encrypt(sessionKeys.Encrypt, payload)
//	plaintext, err := crypto.Decrypt(sessionKeys.Decrypt, ciphertext)
//
// # Key derivation and rotation
//
// SessionKeys tracks a call's encrypt/decrypt/mydcx triple, all
// initially derived from the same MD5-challenge digest:
//
//	keys := crypto.NewSessionKeys(md5Digest, now)
//	// ... 120-300s later, once RotationScheduler reports Due:
//	newKey, _ := crypto.GenerateRotationKey()
//	keys.RotateEncrypt(newKey, now)
//
// # Authentication
//
// MD5-challenge and RSA-signed-challenge verification live in
// callstate (VerifyAuthRep), which imports nothing from this package:
// it checks MD5 results itself and RSA signatures through a callback
// the engine builds from VerifyChallengeSignature, and the MD5 session
// key comes from callstate.DeriveMD5EncryptionKey. RSA key material
// itself — generation, PEM
// encode/decode for the `inkeys`/`outkey` configuration keys — lives
// here in keypair.go.
//
// # Secure memory
//
// SecureWipe and WipeSessionKeys zero key material once a call's
// encryption state is no longer needed.
package crypto
