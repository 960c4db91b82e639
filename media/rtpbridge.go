package media

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"

	"github.com/iax2core/engine/jitter"
	"github.com/iax2core/engine/wire"
)

var log = logrus.WithField("package", "media")

// Bridge turns jitter-buffer-released IAX2 voice frames into RTP
// packets for one call leg. It owns an SSRC and a monotonically
// advancing sequence number, exactly the state the teacher's
// AudioPacketizer tracks for ToxAV's Opus stream (av/rtp/packet.go);
// here the "clock rate" and payload type vary by the call's
// negotiated wire.Format instead of being fixed to Opus.
type Bridge struct {
	mu             sync.Mutex
	ssrc           uint32
	sequenceNumber uint16
	clockRate      uint32
	payloadType    uint8
	baseTS         uint32 // first IAX2 ms timestamp seen, for RTP-unit rebasing
	haveBase       bool
}

// NewBridge creates a Bridge for a call negotiated to format f. A
// fresh random SSRC is generated the same way the teacher generates
// one for ToxAV (crypto/rand, not math/rand, since an SSRC collision
// with another stream on the same mixer is attacker-observable).
func NewBridge(f wire.Format) (*Bridge, error) {
	ssrc, err := randomSSRC()
	if err != nil {
		return nil, fmt.Errorf("media: generate ssrc: %w", err)
	}
	return &Bridge{
		ssrc:        ssrc,
		clockRate:   ClockRateFor(f),
		payloadType: PayloadTypeFor(f),
	}, nil
}

func randomSSRC() (uint32, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Packetize converts one jitter-buffer frame released with Result OK
// into an RTP packet. The frame's reconstructed IAX2 millisecond
// timestamp is rebased to start at zero and scaled to the stream's RTP
// clock rate; the payload is carried through unmodified.
func (b *Bridge) Packetize(f jitter.Frame, marker bool) (*rtp.Packet, error) {
	if len(f.Payload) == 0 {
		return nil, fmt.Errorf("media: cannot packetize an empty voice frame")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.haveBase {
		b.baseTS = f.Timestamp
		b.haveBase = true
	}
	elapsedMs := f.Timestamp - b.baseTS
	rtpTS := uint32(uint64(elapsedMs) * uint64(b.clockRate) / 1000)

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         marker,
			PayloadType:    b.payloadType,
			SequenceNumber: b.sequenceNumber,
			Timestamp:      rtpTS,
			SSRC:           b.ssrc,
		},
		Payload: f.Payload,
	}
	b.sequenceNumber++

	log.WithFields(logrus.Fields{
		"ssrc":     b.ssrc,
		"seq":      pkt.SequenceNumber,
		"rtp_ts":   rtpTS,
		"iax2_ts":  f.Timestamp,
		"pkt_size": len(f.Payload),
	}).Debug("bridged IAX2 voice frame to RTP")

	return pkt, nil
}

// SSRC reports the bridge's synchronization source identifier.
func (b *Bridge) SSRC() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ssrc
}
