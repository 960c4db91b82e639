package crypto

import "time"

// SessionKeys holds a call's live AES-128 encryption state (spec §4.9
// "Key derivation"): an encrypt key (ecx), a decrypt key (dcx), and a
// separate "mydcx" used to decrypt our own retransmit queue when a
// saved frame must be re-timestamped and re-sent.
type SessionKeys struct {
	Encrypt   []byte // ecx: 16 bytes, used for frames we send
	Decrypt   []byte // dcx: 16 bytes, used for frames we receive
	MyDecrypt []byte // mydcx: decrypts our own previously-encrypted retransmit queue

	InstalledAt time.Time
}

// NewSessionKeys derives the initial ecx/dcx/mydcx triple from an
// MD5-challenge auth exchange: both legs compute the same 16-byte key
// from MD5(challenge||secret), so ecx, dcx, and mydcx start identical
// and only diverge once a key rotation changes one side's ecx/dcx
// without yet reaching the other.
func NewSessionKeys(md5Key []byte, now time.Time) *SessionKeys {
	key := make([]byte, len(md5Key))
	copy(key, md5Key)
	return &SessionKeys{
		Encrypt:     append([]byte(nil), key...),
		Decrypt:     append([]byte(nil), key...),
		MyDecrypt:   append([]byte(nil), key...),
		InstalledAt: now,
	}
}

// RotateEncrypt installs a freshly rotated key as our encrypt key,
// preserving the prior key as mydcx so in-flight retransmits already
// encrypted under it can still be decrypted, rewritten, and
// re-encrypted under the new key (spec §4.9 "Retransmit").
func (k *SessionKeys) RotateEncrypt(newKey []byte, now time.Time) {
	k.MyDecrypt = k.Encrypt
	k.Encrypt = append([]byte(nil), newKey...)
	k.InstalledAt = now
}

// RotateDecrypt installs a freshly rotated key as our decrypt key on
// RTKEY arrival from the peer (spec §4.9 "the receiver installs it as
// the new decrypt key on RTKEY arrival").
func (k *SessionKeys) RotateDecrypt(newKey []byte) {
	k.Decrypt = append([]byte(nil), newKey...)
}
