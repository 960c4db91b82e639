package callstate

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iax2core/engine/jitter"
	"github.com/iax2core/engine/reliable"
	"github.com/iax2core/engine/wire"
)

func newTestSlot() *CallSlot {
	return NewCallSlot(100, "198.51.100.7:4569", false, reliable.DefaultRetryPolicy, jitter.DefaultConfig, 20, time.Unix(0, 0))
}

func TestBeginInboundAuthTransitionsState(t *testing.T) {
	s := newTestSlot()
	s.BeginInboundAuth("alice", "challenge123", wire.AuthMD5)
	assert.Equal(t, StateAuthenticating, s.State)
	assert.Equal(t, "alice", s.Username)
}

func TestVerifyAuthRepMD5Success(t *testing.T) {
	s := newTestSlot()
	s.BeginInboundAuth("alice", "ch1", wire.AuthMD5)

	digest := md5Digest("ch1", "supersecret")
	creds := Credentials{Secret: "supersecret", AuthMethods: wire.AuthMD5}

	err := s.VerifyAuthRep(creds, digest, nil)
	assert.NoError(t, err)
}

func TestVerifyAuthRepMD5Failure(t *testing.T) {
	s := newTestSlot()
	s.BeginInboundAuth("alice", "ch1", wire.AuthMD5)

	creds := Credentials{Secret: "supersecret", AuthMethods: wire.AuthMD5}
	err := s.VerifyAuthRep(creds, "wrongdigest", nil)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestVerifyAuthRepRSA(t *testing.T) {
	s := newTestSlot()
	s.BeginInboundAuth("bob", "ch2", wire.AuthRSA)

	creds := Credentials{
		AuthMethods: wire.AuthRSA,
		VerifyRSA: func(challenge string, sig []byte) bool {
			return challenge == "ch2" && string(sig) == "validsig"
		},
	}

	require.NoError(t, s.VerifyAuthRep(creds, "", []byte("validsig")))
	assert.ErrorIs(t, s.VerifyAuthRep(creds, "", []byte("badsig")), ErrAuthFailed)
}

func TestDeriveMD5EncryptionKeyMatchesDigestBytes(t *testing.T) {
	key := DeriveMD5EncryptionKey("ch1", "secret")
	assert.Len(t, key, 16)
	assert.Equal(t, md5Digest("ch1", "secret"), hex.EncodeToString(key))
}

func TestNegotiateCodecReqOnly(t *testing.T) {
	s := newTestSlot()
	s.CodecPriority = CodecPriorityReqOnly

	got, err := s.NegotiateCodec(wire.FormatULAW, 0, wire.FormatULAW|wire.FormatGSM, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, wire.FormatULAW, got)

	_, err = s.NegotiateCodec(wire.FormatG723_1, 0, wire.FormatULAW, nil, nil)
	assert.ErrorIs(t, err, ErrNoCommonCodec)
}

func TestNegotiateCodecDisabledPicksHighestBit(t *testing.T) {
	s := newTestSlot()
	s.CodecPriority = CodecPriorityDisabled

	got, err := s.NegotiateCodec(0, wire.FormatG723_1|wire.FormatOpus, wire.FormatOpus|wire.FormatULAW, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, wire.FormatOpus, got)
}

func TestNegotiateCodecCallerPreferenceOrder(t *testing.T) {
	s := newTestSlot()
	s.CodecPriority = CodecPriorityCaller

	prefs := wire.DecodeCodecPrefs(wire.EncodeCodecPrefs([]byte{2, 1, 0})) // ULAW,GSM,G723.1
	got, err := s.NegotiateCodec(0, wire.FormatULAW|wire.FormatGSM, wire.FormatULAW|wire.FormatGSM, prefs, nil)
	require.NoError(t, err)
	assert.Equal(t, wire.FormatULAW, got)
}

func TestAcceptMovesToUpPendingMedia(t *testing.T) {
	s := newTestSlot()
	s.State = StateWaitAccept
	s.Accept(wire.FormatULAW, time.Unix(10, 0))

	assert.Equal(t, StateUp, s.State)
	assert.Equal(t, UpPendingMedia, s.UpSub)

	s.MarkMediaFlowing()
	assert.Equal(t, UpMediaFlowing, s.UpSub)
}

func TestBuildOutboundAuthResponsePrefersRSA(t *testing.T) {
	md5r, rsa, plain := BuildOutboundAuthResponse(wire.AuthRSA|wire.AuthMD5, "ch", "secret", func(c string) []byte {
		return []byte("sig-" + c)
	})
	assert.Empty(t, md5r)
	assert.Empty(t, plain)
	assert.Equal(t, "sig-ch", string(rsa))
}

func TestBuildOutboundAuthResponseFallsBackToMD5(t *testing.T) {
	md5r, rsa, plain := BuildOutboundAuthResponse(wire.AuthMD5, "ch", "secret", nil)
	assert.Nil(t, rsa)
	assert.Empty(t, plain)
	assert.Equal(t, md5Digest("ch", "secret"), md5r)
}

func TestBuildOutboundAuthResponseFallsBackToPlaintext(t *testing.T) {
	md5r, rsa, plain := BuildOutboundAuthResponse(wire.AuthPlaintext, "ch", "secret", nil)
	assert.Nil(t, rsa)
	assert.Empty(t, md5r)
	assert.Equal(t, "secret", plain)
}
