package media

import "github.com/iax2core/engine/wire"

// ClockRateFor returns the RTP clock rate (Hz) conventionally used for
// a single-bit IAX2 voice Format, so a bridged RTP stream's timestamp
// units match what an external mixer/SDP endpoint expects. Formats not
// listed default to 8000, the common narrowband rate.
func ClockRateFor(f wire.Format) uint32 {
	switch f {
	case wire.FormatSLIN16, wire.FormatSiren14, wire.FormatG719, wire.FormatSpeex16:
		return 16000
	case wire.FormatSLIN16_2:
		return 32000
	case wire.FormatSLIN192:
		return 192000
	case wire.FormatOpus:
		return 48000
	default:
		return 8000
	}
}

// PayloadTypeFor maps a single-bit IAX2 voice Format to a static RTP
// payload type where RFC 3551 defines one, and to the dynamic-range
// base (96) otherwise — mirroring the teacher's AudioPacketizer, which
// always stamped PayloadType 96 for its single (Opus-only) codec path.
func PayloadTypeFor(f wire.Format) uint8 {
	switch f {
	case wire.FormatULAW:
		return 0
	case wire.FormatALAW:
		return 8
	case wire.FormatGSM:
		return 3
	case wire.FormatG723_1:
		return 4
	case wire.FormatG729A:
		return 18
	default:
		return 96
	}
}
