package wire

import "errors"

// Parse errors as named in spec §4.2 and §7. Callers inspect these with
// errors.Is to decide whether to reply INVAL/REJECT or silently drop.
var (
	// ErrTooShort indicates the datagram is smaller than its declared header.
	ErrTooShort = errors.New("wire: frame shorter than declared header")
	// ErrBadIeLen indicates a TLV length field would read past the frame end.
	ErrBadIeLen = errors.New("wire: ie length exceeds frame bounds")
	// ErrUnknownMeta indicates a meta-frame metacmd byte is not recognized.
	ErrUnknownMeta = errors.New("wire: unrecognized meta command")
	// ErrBadVersion indicates the full frame's protocol version IE is not 2.
	ErrBadVersion = errors.New("wire: unsupported protocol version")
)
