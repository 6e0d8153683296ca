package ics

import (
	"encoding/binary"
	"math/bits"
)

// swapBytes reverses the byte order of every width-byte word of buf in
// place. len(buf) must be a multiple of width. This is a per-element-width
// pass, not a blind byte reversal of the whole buffer.
func swapBytes(buf []byte, width int) {
	switch width {
	case 1:
		return
	case 2:
		for i := 0; i+2 <= len(buf); i += 2 {
			binary.LittleEndian.PutUint16(buf[i:], bits.ReverseBytes16(binary.LittleEndian.Uint16(buf[i:])))
		}
	case 4:
		for i := 0; i+4 <= len(buf); i += 4 {
			binary.LittleEndian.PutUint32(buf[i:], bits.ReverseBytes32(binary.LittleEndian.Uint32(buf[i:])))
		}
	case 8:
		for i := 0; i+8 <= len(buf); i += 8 {
			binary.LittleEndian.PutUint64(buf[i:], bits.ReverseBytes64(binary.LittleEndian.Uint64(buf[i:])))
		}
	default:
		for i := 0; i+width <= len(buf); i += width {
			for l, r := i, i+width-1; l < r; l, r = l+1, r-1 {
				buf[l], buf[r] = buf[r], buf[l]
			}
		}
	}
}
