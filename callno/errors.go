package callno

import "errors"

var (
	// ErrSlotInUse is returned when attempting to bind an already-occupied slot.
	ErrSlotInUse = errors.New("callno: slot already in use")
	// ErrSlotFree is returned when looking up a call number with no bound slot.
	ErrSlotFree = errors.New("callno: no slot bound to call number")
	// ErrPeerLimitExceeded indicates a remote address already holds its
	// configured maximum number of open call numbers.
	ErrPeerLimitExceeded = errors.New("callno: peer call-number limit exceeded")
	// ErrNonvalidatedQuotaExceeded indicates a remote address has too many
	// calls in flight that haven't yet completed the call-token handshake.
	ErrNonvalidatedQuotaExceeded = errors.New("callno: nonvalidated call quota exceeded")
)
