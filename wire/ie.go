package wire

import (
	"encoding/binary"
	"fmt"
	"net"
)

// IEType is the 1-byte TLV type tag of an information element (spec §6).
type IEType byte

const (
	IECalledNumber  IEType = 1
	IECallingNumber IEType = 2
	IECallingANI    IEType = 3
	IECallingName   IEType = 4
	IECalledContext IEType = 5
	IEUsername      IEType = 6
	IEPassword      IEType = 7
	IECapability    IEType = 8
	IEFormat        IEType = 9
	IELanguage      IEType = 10
	IEVersion       IEType = 11
	IEDNID          IEType = 13
	IEAuthMethods   IEType = 14
	IEChallenge     IEType = 15
	IEMD5Result     IEType = 16
	IERSAResult     IEType = 17
	IEApparentAddr  IEType = 18
	IERefresh       IEType = 19
	IECause         IEType = 22
	IEUnknownCmd    IEType = 23
	IETransferID    IEType = 27
	IERDNIS         IEType = 28
	IEDatetime      IEType = 31
	IECallingPres   IEType = 38
	IECauseCode     IEType = 42
	IEEncryption    IEType = 43
	IEEncKey        IEType = 44 // raw rotated key carried by an RTKEY frame (spec §4.9 "Key rotation")
	IECodecPrefs    IEType = 45
	IERRJitter      IEType = 46
	IERRLoss        IEType = 47
	IERRPkts        IEType = 48
	IERRDelay       IEType = 49
	IERRDropped     IEType = 50
	IERROoo         IEType = 51
	IEVariable      IEType = 52
	IECallToken     IEType = 54
	IECapability2   IEType = 55
	IEFormat2       IEType = 56
	IECallingANI2   IEType = 57
)

// Protocol version carried in IEVersion; must be exactly 2.
const ProtocolVersion uint16 = 2

// AuthMethods bitfield values for IEAuthMethods (spec §6).
const (
	AuthPlaintext uint16 = 1
	AuthMD5       uint16 = 2
	AuthRSA       uint16 = 4
)

// IE is a single decoded information element. Known string/int/raw types
// are read through the accessor methods below; Raw always holds the
// undecoded payload, so a type this package doesn't special-case still
// round-trips unchanged.
type IE struct {
	Type IEType
	Raw  []byte
}

// IESet is an ordered collection of IEs as carried by one full frame.
type IESet []IE

// Get returns the first IE of the given type, if present.
func (s IESet) Get(t IEType) (IE, bool) {
	for _, ie := range s {
		if ie.Type == t {
			return ie, true
		}
	}
	return IE{}, false
}

// String returns an IE's raw payload interpreted as a string IE.
func (ie IE) String() string { return string(ie.Raw) }

// Uint8 returns an IE's raw payload interpreted as a 1-byte integer.
func (ie IE) Uint8() (byte, error) {
	if len(ie.Raw) != 1 {
		return 0, fmt.Errorf("wire: ie %d is not 1 byte", ie.Type)
	}
	return ie.Raw[0], nil
}

// Uint16 returns an IE's raw payload interpreted as a network-order 2-byte integer.
func (ie IE) Uint16() (uint16, error) {
	if len(ie.Raw) != 2 {
		return 0, fmt.Errorf("wire: ie %d is not 2 bytes", ie.Type)
	}
	return binary.BigEndian.Uint16(ie.Raw), nil
}

// Uint32 returns an IE's raw payload interpreted as a network-order 4-byte integer.
func (ie IE) Uint32() (uint32, error) {
	if len(ie.Raw) != 4 {
		return 0, fmt.Errorf("wire: ie %d is not 4 bytes", ie.Type)
	}
	return binary.BigEndian.Uint32(ie.Raw), nil
}

// Uint64Capability2 decodes an IECapability2/IEFormat2 payload: a 1-byte
// version followed by a big-endian 64-bit bitfield.
func (ie IE) Uint64Capability2() (version byte, bitfield uint64, err error) {
	if len(ie.Raw) != 9 {
		return 0, 0, fmt.Errorf("wire: ie %d is not a 9-byte versioned capability", ie.Type)
	}
	return ie.Raw[0], binary.BigEndian.Uint64(ie.Raw[1:]), nil
}

// SockAddr decodes an IEApparentAddr-shaped IE: a 16-byte sockaddr_in or a
// longer sockaddr_in6, distinguished purely by length (spec §4.2).
func (ie IE) SockAddr() (*net.UDPAddr, error) {
	switch len(ie.Raw) {
	case 16:
		port := binary.BigEndian.Uint16(ie.Raw[2:4])
		ip := net.IP(append([]byte(nil), ie.Raw[4:8]...))
		return &net.UDPAddr{IP: ip, Port: int(port)}, nil
	case 28:
		port := binary.BigEndian.Uint16(ie.Raw[2:4])
		ip := net.IP(append([]byte(nil), ie.Raw[8:24]...))
		return &net.UDPAddr{IP: ip, Port: int(port)}, nil
	default:
		return nil, fmt.Errorf("wire: ie %d has invalid sockaddr length %d", ie.Type, len(ie.Raw))
	}
}

// DateTime decodes an IEDatetime payload: a 32-bit value packing
// 7 bits year-since-2000, 4 bits month, 5 bits day, 5 bits hour, 6 bits
// minute, 5 bits (seconds/2), per the Asterisk wire format.
func (ie IE) DateTime() (year, month, day, hour, minute, second int, err error) {
	v, uerr := ie.Uint32()
	if uerr != nil {
		return 0, 0, 0, 0, 0, 0, uerr
	}
	second = int(v&0x1f) << 1
	minute = int((v >> 5) & 0x3f)
	hour = int((v >> 11) & 0x1f)
	day = int((v >> 16) & 0x1f)
	month = int((v>>21)&0x0f) - 1
	year = int((v>>25)&0x7f) + 2000
	return
}

// BuildDateTime packs a calendar time into an IEDatetime payload.
func BuildDateTime(year, month, day, hour, minute, second int) IE {
	v := uint32(second>>1) & 0x1f
	v |= uint32(minute&0x3f) << 5
	v |= uint32(hour&0x1f) << 11
	v |= uint32(day&0x1f) << 16
	v |= uint32((month+1)&0x0f) << 21
	v |= uint32((year-2000)&0x7f) << 25
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, v)
	return IE{Type: IEDatetime, Raw: raw}
}

// NewStringIE builds a string-valued IE.
func NewStringIE(t IEType, s string) IE { return IE{Type: t, Raw: []byte(s)} }

// NewUint8IE builds a 1-byte integer IE.
func NewUint8IE(t IEType, v byte) IE { return IE{Type: t, Raw: []byte{v}} }

// NewRawIE builds an IE carrying an opaque byte payload unchanged, used
// for IEEncKey's rotated AES key (spec §4.9 "Key rotation") where the
// value isn't a string or fixed-width integer.
func NewRawIE(t IEType, raw []byte) IE {
	return IE{Type: t, Raw: append([]byte(nil), raw...)}
}

// NewUint16IE builds a 2-byte network-order integer IE.
func NewUint16IE(t IEType, v uint16) IE {
	raw := make([]byte, 2)
	binary.BigEndian.PutUint16(raw, v)
	return IE{Type: t, Raw: raw}
}

// NewUint32IE builds a 4-byte network-order integer IE.
func NewUint32IE(t IEType, v uint32) IE {
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, v)
	return IE{Type: t, Raw: raw}
}

// NewCapability2IE builds a versioned 64-bit capability/format IE.
func NewCapability2IE(t IEType, version byte, bitfield uint64) IE {
	raw := make([]byte, 9)
	raw[0] = version
	binary.BigEndian.PutUint64(raw[1:], bitfield)
	return IE{Type: t, Raw: raw}
}

// NewSockAddrIE builds an IPv4 sockaddr_in-shaped IE (the 16-byte legacy
// form; IPv6 peers are carried in the longer form emitted by callers that
// know they're addressing a v6 peer).
func NewSockAddrIE(t IEType, addr *net.UDPAddr) IE {
	raw := make([]byte, 16)
	raw[0] = 2 // AF_INET
	binary.BigEndian.PutUint16(raw[2:4], uint16(addr.Port))
	ip4 := addr.IP.To4()
	if ip4 != nil {
		copy(raw[4:8], ip4)
	}
	return IE{Type: t, Raw: raw}
}

// ParseIEs decodes a TLV stream. Per spec §4.2/§7, an IE whose declared
// length would read past the end of the frame aborts the entire parse with
// ErrBadIeLen rather than skipping just that IE (confirmed against
// the original parser's behavior in original_source/channels/iax2/parser.c).
func ParseIEs(data []byte) (IESet, error) {
	var out IESet
	off := 0
	for off < len(data) {
		if off+2 > len(data) {
			return nil, ErrBadIeLen
		}
		t := IEType(data[off])
		l := int(data[off+1])
		off += 2
		if off+l > len(data) {
			return nil, ErrBadIeLen
		}
		out = append(out, IE{Type: t, Raw: append([]byte(nil), data[off:off+l]...)})
		off += l
	}
	return out, nil
}

// Build serializes an IESet back to TLV bytes. encode(decode(x)) == x holds
// for any well-formed IE payload (spec §8 invariant 5) because Raw is
// carried through unmodified.
func (s IESet) Build() ([]byte, error) {
	size := 0
	for _, ie := range s {
		if len(ie.Raw) > 255 {
			return nil, fmt.Errorf("wire: ie %d payload too large (%d bytes)", ie.Type, len(ie.Raw))
		}
		size += 2 + len(ie.Raw)
	}
	buf := make([]byte, size)
	off := 0
	for _, ie := range s {
		buf[off] = byte(ie.Type)
		buf[off+1] = byte(len(ie.Raw))
		off += 2
		copy(buf[off:], ie.Raw)
		off += len(ie.Raw)
	}
	return buf, nil
}
