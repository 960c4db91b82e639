// Package wire implements the IAX2 binary protocol: parsing and
// serialization of full, mini, video-mini, and meta/trunk frames, the
// subclass and timestamp compression schemes, and the information
// element (IE) TLV encoding used inside full frames.
//
// The package is deliberately low-level: it has no notion of a call,
// a peer, or a socket. It turns bytes into frames and frames into
// bytes. Everything above it (callno, callstate, dispatch, ...) is
// built on these types.
//
// Frame family is disambiguated by the first 16-bit word of the
// datagram, per RFC 5456:
//
//	scallno & 0x8000 set                 -> full frame
//	word == 0 && next byte is a metacmd  -> meta frame (trunk/video super-frame)
//	otherwise                            -> mini frame (audio or video)
package wire
