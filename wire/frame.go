package wire

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"
)

// FrameKind identifies which of the four wire families a datagram belongs to.
type FrameKind int

const (
	KindFull FrameKind = iota
	KindMiniAudio
	KindMiniVideo
	KindMeta
)

// FrameType is the "type" byte of a full frame header (the Asterisk
// ast_frame subclass family: voice, video, control, IAX signaling, ...).
type FrameType byte

const (
	FrameTypeDTMFEnd   FrameType = 1
	FrameTypeVoice     FrameType = 2
	FrameTypeVideo     FrameType = 3
	FrameTypeControl   FrameType = 4
	FrameTypeNull      FrameType = 5
	FrameTypeIAX       FrameType = 6
	FrameTypeText      FrameType = 7
	FrameTypeImage     FrameType = 8
	FrameTypeHTML      FrameType = 9
	FrameTypeCNG       FrameType = 10
	FrameTypeModem     FrameType = 11
	FrameTypeDTMFBegin FrameType = 12
)

// IAXCommand enumerates the AST_FRAME_IAX subclasses this engine must
// dispatch (spec §4.4).
type IAXCommand byte

const (
	CmdNew       IAXCommand = 1
	CmdPing      IAXCommand = 2
	CmdPong      IAXCommand = 3
	CmdAck       IAXCommand = 4
	CmdHangup    IAXCommand = 5
	CmdReject    IAXCommand = 6
	CmdAccept    IAXCommand = 7
	CmdAuthReq   IAXCommand = 8
	CmdAuthRep   IAXCommand = 9
	CmdInval     IAXCommand = 10
	CmdLagRq     IAXCommand = 11
	CmdLagRp     IAXCommand = 12
	CmdRegReq    IAXCommand = 13
	CmdRegAuth   IAXCommand = 14
	CmdRegAck    IAXCommand = 15
	CmdRegRej    IAXCommand = 16
	CmdRegRel    IAXCommand = 17
	CmdVnak      IAXCommand = 18
	CmdDpReq     IAXCommand = 19
	CmdDpRep     IAXCommand = 20
	CmdDial      IAXCommand = 21
	CmdTxReq     IAXCommand = 22
	CmdTxCnt     IAXCommand = 23
	CmdTxAcc     IAXCommand = 24
	CmdTxReady   IAXCommand = 25
	CmdTxRel     IAXCommand = 26
	CmdTxRej     IAXCommand = 27
	CmdQuelch    IAXCommand = 28
	CmdUnquelch  IAXCommand = 29
	CmdPoke      IAXCommand = 30
	CmdPage      IAXCommand = 31
	CmdMWI       IAXCommand = 32
	CmdUnsupport IAXCommand = 33
	CmdTransfer  IAXCommand = 34
	CmdProvision IAXCommand = 35
	CmdFwDownl   IAXCommand = 36
	CmdFwData    IAXCommand = 37
	CmdTxMedia   IAXCommand = 38
	CmdRtKey     IAXCommand = 39
	CmdCallToken IAXCommand = 40
)

// MetaCmd identifies the kind of meta frame (the only two in current use).
type MetaCmd byte

const (
	MetaTrunk MetaCmd = 0
	MetaVideo MetaCmd = 1
)

// retransBit marks the 16th bit of the dcallno word when this full frame is
// a retransmission (spec §6 frame table).
const (
	scallnoFullBit uint16 = 0x8000
	dcallnoMask    uint16 = 0x7fff
	retransBit     uint16 = 0x8000
)

// FullFrame is a reliable IAX2 frame: 12-byte header plus IE payload.
type FullFrame struct {
	SCallNo     uint16 // 15-bit source call number
	DCallNo     uint16 // 15-bit destination call number
	Retransmit  bool
	Timestamp   uint32
	OSeqNo      uint8
	ISeqNo      uint8
	Type        FrameType
	Subclass    int64 // decompressed subclass value; -1 means "none"
	IEs         IESet
}

// MiniFrame is an unreliable audio frame: 4-byte header plus opaque payload.
type MiniFrame struct {
	SCallNo   uint16
	Timestamp uint16 // low 16 bits of the session timestamp
	Payload   []byte
}

// VideoMiniFrame is an unreliable video frame with a 15-bit timestamp and a
// mark bit (RTP-style frame-boundary marker).
type VideoMiniFrame struct {
	SCallNo   uint16
	Timestamp uint16 // low 15 bits valid
	Mark      bool
	Payload   []byte
}

// TrunkEntry is one call's contribution to a meta-trunk frame.
type TrunkEntry struct {
	CallNo    uint16
	Timestamp uint16 // only present when the MetaFrame carries per-entry timestamps
	Payload   []byte
}

// MetaFrame aggregates many calls' mini frames to the same remote host into
// a single datagram (spec §4.8).
type MetaFrame struct {
	Cmd            MetaCmd
	CmdData        byte
	Timestamp      uint32
	HasEntryStamps bool // cmddata bit: per-entry 16-bit timestamps present
	Entries        []TrunkEntry
}

var log = logrus.WithField("package", "wire")

// Sniff inspects the first bytes of a datagram and reports which frame
// family it belongs to, without fully parsing it.
func Sniff(data []byte) (FrameKind, error) {
	if len(data) < 4 {
		return 0, ErrTooShort
	}
	word0 := binary.BigEndian.Uint16(data[0:2])
	if word0&scallnoFullBit != 0 {
		return KindFull, nil
	}
	if word0 == 0 {
		// Either a meta frame, or a video mini frame (both lead with a
		// zero word; a video mini frame's scallno word has bit15 set in
		// the *second* word, a meta frame's second byte is the metacmd).
		if len(data) < 6 {
			return 0, ErrTooShort
		}
		second := binary.BigEndian.Uint16(data[2:4])
		if second&scallnoFullBit != 0 {
			return KindMiniVideo, nil
		}
		return KindMeta, nil
	}
	return KindMiniAudio, nil
}

// ParseFullFrameHeader decodes just a full frame's 12-byte header,
// returning the remaining bytes unparsed. Those bytes are an IE TLV
// stream only when the call hasn't negotiated encryption (or hasn't
// reached auth yet); once a decrypt key exists they're its AES-128-CBC
// ciphertext instead, and only the caller holding that key — a
// CallSlot, via the engine — can turn them back into IEs (spec §4.9).
// This split also lets the dispatcher peek scallno/oseqno for ordering
// without needing to decrypt anything.
func ParseFullFrameHeader(data []byte) (*FullFrame, []byte, error) {
	if len(data) < 12 {
		return nil, nil, ErrTooShort
	}
	word0 := binary.BigEndian.Uint16(data[0:2])
	word1 := binary.BigEndian.Uint16(data[2:4])
	f := &FullFrame{
		SCallNo:    word0 &^ scallnoFullBit,
		DCallNo:    word1 &^ retransBit,
		Retransmit: word1&retransBit != 0,
		Timestamp:  binary.BigEndian.Uint32(data[4:8]),
		OSeqNo:     data[8],
		ISeqNo:     data[9],
		Type:       FrameType(data[10]),
	}
	f.Subclass = uncompressSubclass(data[11])
	return f, data[12:], nil
}

// ParseFullFrame decodes a 12-byte-header full frame and its IE
// payload, assuming the payload is cleartext. Used where a call's
// encryption status doesn't matter (tests); the dispatcher's ordering
// peek and the engine's receive path call ParseFullFrameHeader instead.
func ParseFullFrame(data []byte) (*FullFrame, error) {
	f, body, err := ParseFullFrameHeader(data)
	if err != nil {
		return nil, err
	}
	ies, err := ParseIEs(body)
	if err != nil {
		return nil, err
	}
	f.IEs = ies
	return f, nil
}

// HeaderBytes encodes just the 12-byte header, the portion that always
// travels in cleartext even once a call has negotiated encryption
// (spec §4.9 "Frame layout" — scallno/dcallno/timestamp/seqnos/type/
// subclass are never part of the encrypted blob). Callers that need to
// encrypt the IE body separately (the engine's send path) build the
// frame from this plus an encrypted IEs.Build() themselves instead of
// calling Serialize.
func (f *FullFrame) HeaderBytes() ([]byte, error) {
	csub, err := compressSubclass(f.Subclass)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 12)
	scallno := f.SCallNo | scallnoFullBit
	binary.BigEndian.PutUint16(buf[0:2], scallno)
	dcallno := f.DCallNo & dcallnoMask
	if f.Retransmit {
		dcallno |= retransBit
	}
	binary.BigEndian.PutUint16(buf[2:4], dcallno)
	binary.BigEndian.PutUint32(buf[4:8], f.Timestamp)
	buf[8] = f.OSeqNo
	buf[9] = f.ISeqNo
	buf[10] = byte(f.Type)
	buf[11] = csub
	return buf, nil
}

// Serialize encodes a full frame back to wire bytes, IEs in cleartext.
func (f *FullFrame) Serialize() ([]byte, error) {
	header, err := f.HeaderBytes()
	if err != nil {
		return nil, err
	}
	ieBytes, err := f.IEs.Build()
	if err != nil {
		return nil, err
	}
	return append(header, ieBytes...), nil
}

// ParseMiniFrame decodes a 4-byte-header audio mini frame.
func ParseMiniFrame(data []byte) (*MiniFrame, error) {
	if len(data) < 4 {
		return nil, ErrTooShort
	}
	word0 := binary.BigEndian.Uint16(data[0:2])
	return &MiniFrame{
		SCallNo:   word0 &^ scallnoFullBit,
		Timestamp: binary.BigEndian.Uint16(data[2:4]),
		Payload:   append([]byte(nil), data[4:]...),
	}, nil
}

// Serialize encodes an audio mini frame.
func (m *MiniFrame) Serialize() ([]byte, error) {
	buf := make([]byte, 4+len(m.Payload))
	binary.BigEndian.PutUint16(buf[0:2], m.SCallNo&^scallnoFullBit)
	binary.BigEndian.PutUint16(buf[2:4], m.Timestamp)
	copy(buf[4:], m.Payload)
	return buf, nil
}

// ParseVideoMiniFrame decodes a 6-byte-header video mini frame: a leading
// zero word, then scallno with bit15 set, then a 16-bit ts/mark word.
func ParseVideoMiniFrame(data []byte) (*VideoMiniFrame, error) {
	if len(data) < 6 {
		return nil, ErrTooShort
	}
	scWord := binary.BigEndian.Uint16(data[2:4])
	tsWord := binary.BigEndian.Uint16(data[4:6])
	return &VideoMiniFrame{
		SCallNo:   scWord &^ scallnoFullBit,
		Timestamp: tsWord &^ 0x8000,
		Mark:      tsWord&0x8000 != 0,
		Payload:   append([]byte(nil), data[6:]...),
	}, nil
}

// Serialize encodes a video mini frame.
func (v *VideoMiniFrame) Serialize() ([]byte, error) {
	buf := make([]byte, 6+len(v.Payload))
	binary.BigEndian.PutUint16(buf[0:2], 0)
	binary.BigEndian.PutUint16(buf[2:4], v.SCallNo|scallnoFullBit)
	tsWord := v.Timestamp & 0x7fff
	if v.Mark {
		tsWord |= 0x8000
	}
	binary.BigEndian.PutUint16(buf[4:6], tsWord)
	copy(buf[6:], v.Payload)
	return buf, nil
}

// ParseMetaFrame decodes a meta/trunk super-frame. hasStamps governs how
// each TrunkEntry is laid out: entries always carry callno(16)+len(16), and
// carry a 16-bit per-entry timestamp in addition when hasStamps is set, per
// the CmdData bit negotiated out-of-band (trunktimestamps config option).
func ParseMetaFrame(data []byte, hasStamps bool) (*MetaFrame, error) {
	if len(data) < 8 {
		return nil, ErrTooShort
	}
	mf := &MetaFrame{
		Cmd:            MetaCmd(data[2]),
		CmdData:        data[3],
		Timestamp:      binary.BigEndian.Uint32(data[4:8]),
		HasEntryStamps: hasStamps,
	}
	if mf.Cmd != MetaTrunk && mf.Cmd != MetaVideo {
		return nil, ErrUnknownMeta
	}

	off := 8
	for off < len(data) {
		hdr := 4
		if hasStamps {
			hdr = 6
		}
		if off+hdr > len(data) {
			return nil, ErrBadIeLen
		}
		callno := binary.BigEndian.Uint16(data[off : off+2])
		var ts uint16
		pos := off + 2
		if hasStamps {
			ts = binary.BigEndian.Uint16(data[pos : pos+2])
			pos += 2
		}
		entryLen := binary.BigEndian.Uint16(data[pos : pos+2])
		pos += 2
		if pos+int(entryLen) > len(data) {
			return nil, ErrBadIeLen
		}
		mf.Entries = append(mf.Entries, TrunkEntry{
			CallNo:    callno &^ scallnoFullBit,
			Timestamp: ts,
			Payload:   append([]byte(nil), data[pos:pos+int(entryLen)]...),
		})
		off = pos + int(entryLen)
	}
	return mf, nil
}

// Serialize encodes a meta/trunk frame and all its entries.
func (mf *MetaFrame) Serialize() ([]byte, error) {
	size := 8
	for _, e := range mf.Entries {
		size += 4 + len(e.Payload)
		if mf.HasEntryStamps {
			size += 2
		}
	}
	buf := make([]byte, size)
	binary.BigEndian.PutUint16(buf[0:2], 0)
	buf[2] = byte(mf.Cmd)
	buf[3] = mf.CmdData
	binary.BigEndian.PutUint32(buf[4:8], mf.Timestamp)

	off := 8
	for _, e := range mf.Entries {
		binary.BigEndian.PutUint16(buf[off:off+2], e.CallNo)
		off += 2
		if mf.HasEntryStamps {
			binary.BigEndian.PutUint16(buf[off:off+2], e.Timestamp)
			off += 2
		}
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(len(e.Payload)))
		off += 2
		copy(buf[off:], e.Payload)
		off += len(e.Payload)
	}
	return buf, nil
}
