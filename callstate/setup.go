package callstate

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/iax2core/engine/wire"
)

// Credentials is the subset of a matched User/Peer record that setup
// needs: the shared secret for plaintext/MD5 auth, which methods are
// allowed, and an RSA verifier callback (package crypto owns key
// storage; callstate only needs a yes/no answer).
type Credentials struct {
	Secret      string
	AuthMethods uint16 // bitmask: PLAINTEXT|MD5|RSA, see wire.Auth*
	VerifyRSA   func(challenge string, signature []byte) bool
}

// BeginInboundAuth transitions a freshly arrived NEW into
// AUTHENTICATING, storing the challenge the caller generated (spec §4.4
// step 1). Callers are expected to have already validated the call
// token (package calltoken) before reaching here.
func (s *CallSlot) BeginInboundAuth(username, challenge string, methods uint16) {
	s.Username = username
	s.Challenge = challenge
	s.AuthMethods = methods
	s.State = StateAuthenticating
}

// VerifyAuthRep checks an AUTHREP reply against the matched
// credentials, preferring whichever method the peer actually used.
// On success the slot is ready to proceed to codec negotiation and
// ACCEPT (spec §4.4 step 2).
func (s *CallSlot) VerifyAuthRep(creds Credentials, md5Result string, rsaSig []byte) error {
	if md5Result != "" && creds.AuthMethods&wire.AuthMD5 != 0 {
		if md5Digest(s.Challenge, creds.Secret) == md5Result {
			return nil
		}
		return ErrAuthFailed
	}
	if len(rsaSig) > 0 && creds.AuthMethods&wire.AuthRSA != 0 {
		if creds.VerifyRSA != nil && creds.VerifyRSA(s.Challenge, rsaSig) {
			return nil
		}
		return ErrAuthFailed
	}
	return ErrAuthFailed
}

// md5Digest computes the wire-mandated MD5(challenge||secret) hex
// digest (spec §4.4/§4.9).
func md5Digest(challenge, secret string) string {
	sum := md5.Sum([]byte(challenge + secret))
	return hex.EncodeToString(sum[:])
}

// DeriveMD5EncryptionKey returns the 16-byte encryption key an
// MD5-authenticated session uses, which is simply the raw digest bytes
// (spec §4.9 "the encryption key equals the MD5 digest of
// challenge||secret").
func DeriveMD5EncryptionKey(challenge, secret string) []byte {
	sum := md5.Sum([]byte(challenge + secret))
	return sum[:]
}

// NegotiateCodec picks the call's format per spec §4.4 step 3 /
// RegState-independent of auth outcome. reqFormat is the single format
// the caller explicitly requested (IE FORMAT); it takes precedence
// under CodecPriorityReqOnly.
func (s *CallSlot) NegotiateCodec(reqFormat, callerCap, calleeCap wire.Format, callerPrefs, calleePrefs []byte) (wire.Format, error) {
	switch s.CodecPriority {
	case CodecPriorityReqOnly:
		if reqFormat&calleeCap != 0 {
			return reqFormat, nil
		}
		return 0, ErrNoCommonCodec
	case CodecPriorityDisabled:
		best, ok := wire.HighestPriorityBit(callerCap & calleeCap)
		if !ok {
			return 0, ErrNoCommonCodec
		}
		return best, nil
	case CodecPriorityCallee:
		best, ok := wire.BestOf(calleePrefs, callerCap, calleeCap)
		if !ok {
			return 0, ErrNoCommonCodec
		}
		return best, nil
	default: // CodecPriorityCaller
		best, ok := wire.BestOf(callerPrefs, callerCap, calleeCap)
		if !ok {
			return 0, ErrNoCommonCodec
		}
		return best, nil
	}
}

// Accept negotiates the call's format and moves the slot to StateUp /
// UpPendingMedia, the point at which ACCEPT is sent or received (spec
// §4.4 steps 1 and 3; §4.4 "Setup flow (outgoing)" step 3).
func (s *CallSlot) Accept(format wire.Format, now time.Time) {
	s.Format = format
	s.State = StateUp
	s.UpSub = UpPendingMedia
	s.touch(now)
}

// BuildOutboundAuthResponse derives a response to an AUTHREQ, preferring
// RSA, then MD5, then plaintext, matching spec §4.4 "Setup flow
// (outgoing)" step 2. sign is used only when RSA is offered and
// available locally.
func BuildOutboundAuthResponse(offered uint16, challenge, secret string, sign func(challenge string) []byte) (md5Result string, rsaSig []byte, plaintext string) {
	switch {
	case offered&wire.AuthRSA != 0 && sign != nil:
		return "", sign(challenge), ""
	case offered&wire.AuthMD5 != 0:
		return md5Digest(challenge, secret), nil, ""
	default:
		return "", nil, secret
	}
}
