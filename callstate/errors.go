package callstate

import "errors"

var (
	ErrBadState         = errors.New("callstate: operation not valid in current state")
	ErrAuthFailed       = errors.New("callstate: authentication failed")
	ErrNoCommonCodec    = errors.New("callstate: no common codec between offered and allowed capability")
	ErrUnsupportedAuth  = errors.New("callstate: no mutually supported authentication method")
	ErrMaxRetries       = errors.New("callstate: destroyed after exhausting retransmit retries")
	ErrEncryptionForced = errors.New("callstate: call requires encryption but none was negotiated")
)
