package wire

import (
	"fmt"
	"math/bits"
)

// compressedPowerBit marks a csub byte as "power-of-two encoded": the
// remaining 7 bits are log2 of a single set bit in a 64-bit subclass field
// (spec §4.2 "Subclass compression"). 0xFF is the reserved "no subclass"
// sentinel and decodes to -1.
const compressedPowerBit byte = 0x80

// uncompressSubclass expands a wire csub byte into its logical value.
func uncompressSubclass(csub byte) int64 {
	if csub == 0xFF {
		return -1
	}
	if csub&compressedPowerBit != 0 {
		shift := csub &^ compressedPowerBit
		return int64(1) << uint(shift)
	}
	return int64(csub)
}

// compressSubclass packs a logical subclass value into a single wire byte.
// Values in [0,127] are written directly; values that are a single bit above
// bit 6 of a 64-bit bitfield are written as log2(value)|0x80; -1 encodes as
// the reserved 0xFF sentinel. Anything else cannot be represented.
func compressSubclass(value int64) (byte, error) {
	if value == -1 {
		return 0xFF, nil
	}
	if value < 0 {
		return 0, fmt.Errorf("wire: negative subclass %d is not representable", value)
	}
	if value <= 0x7f {
		return byte(value), nil
	}
	if bits.OnesCount64(uint64(value)) == 1 {
		shift := bits.TrailingZeros64(uint64(value))
		if shift <= 62 {
			return compressedPowerBit | byte(shift), nil
		}
	}
	return 0, fmt.Errorf("wire: subclass %d is not compressible", value)
}
