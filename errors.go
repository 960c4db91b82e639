package engine

import "errors"

var (
	// ErrNilChannel is returned by New when constructed without a
	// ChannelAPI implementation; the engine has nowhere to deliver
	// accepted calls or media without one.
	ErrNilChannel = errors.New("engine: channel implementation is required")

	// ErrUnknownCall is returned by lookups against a scallno the
	// call-number table has no entry for.
	ErrUnknownCall = errors.New("engine: unknown call number")
)
