package crypto

import "errors"

// ProtocolVersion is the wire protocol version carried in the
// VERSION(16) IE (spec §8 IE TLV types). IAX2 fixes this at 2; this
// engine rejects anything else rather than attempting version
// negotiation, since no newer version is defined.
const ProtocolVersion = 2

var ErrUnsupportedProtocolVersion = errors.New("crypto: unsupported IAX protocol version")

// CheckProtocolVersion validates an inbound VERSION IE value.
func CheckProtocolVersion(v uint16) error {
	if v != ProtocolVersion {
		return ErrUnsupportedProtocolVersion
	}
	return nil
}

// Capabilities holds what a NEW/ACCEPT exchange negotiates for
// encryption alongside codec selection: the encryption mask (spec §4.9
// "Negotiation"). The protocol version is not part of it; it is checked
// on its own by CheckProtocolVersion.
type Capabilities struct {
	EncryptionMask uint16
}

// Negotiate combines a local offer with a peer's offer into the
// capabilities both sides will actually use.
func Negotiate(local, peer Capabilities) Capabilities {
	return Capabilities{EncryptionMask: NegotiateEncryption(local.EncryptionMask, peer.EncryptionMask)}
}
