package slcan

import "fmt"

// hexUpper is the lookup table used to emit frame bytes as uppercase ASCII,
// grounded on the original firmware's HEX2ASCII_LUT.
const hexUpper = "0123456789ABCDEF"

// hexDecodeLUT maps an ASCII byte to its nibble value. Entries for bytes
// outside [0-9A-Fa-f] are left at 0xFF and rejected explicitly by decodeHex,
// replacing the original firmware's unchecked array indexing (Design Notes:
// keep the lookup-table approach, add bounds checking).
var hexDecodeLUT = buildHexDecodeLUT()

func buildHexDecodeLUT() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 0xFF
	}
	for d := byte(0); d <= 9; d++ {
		t['0'+d] = d
	}
	for d := byte(0); d <= 5; d++ {
		t['A'+d] = 10 + d
		t['a'+d] = 10 + d
	}
	return t
}

// decodeHex decodes a single hex digit byte, rejecting anything outside
// [0-9A-Fa-f].
func decodeHex(b byte) (byte, error) {
	v := hexDecodeLUT[b]
	if v == 0xFF {
		return 0, fmt.Errorf("slcan: invalid hex digit %q", b)
	}
	return v, nil
}

// decodeHexRun decodes n hex digits starting at buf[0] into a uint32,
// most-significant nibble first.
func decodeHexRun(buf []byte, n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		d, err := decodeHex(buf[i])
		if err != nil {
			return 0, err
		}
		v = v<<4 | uint32(d)
	}
	return v, nil
}
