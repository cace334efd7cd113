package classfile

import (
	"fmt"
	"unicode/utf16"
)

// decodeModifiedUTF8 decodes the modified UTF-8 used by CONSTANT_Utf8: NUL is
// encoded as C0 80, supplementary characters as surrogate pairs of three-byte
// sequences, and four-byte forms never appear.
func decodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			if c == 0 {
				return "", fmt.Errorf("%w: raw NUL byte in Utf8 constant", ErrMalformed)
			}
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w: bad two-byte sequence in Utf8 constant", ErrMalformed)
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w: bad three-byte sequence in Utf8 constant", ErrMalformed)
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("%w: invalid byte 0x%02X in Utf8 constant", ErrMalformed, c)
		}
	}
	return string(utf16.Decode(units)), nil
}

// EncodeModifiedUTF8 encodes s the way CONSTANT_Utf8 stores it.
func EncodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u != 0 && u < 0x80:
			out = append(out, byte(u))
		case u < 0x800:
			out = append(out, 0xC0|byte(u>>6), 0x80|byte(u&0x3F))
		default:
			out = append(out, 0xE0|byte(u>>12), 0x80|byte((u>>6)&0x3F), 0x80|byte(u&0x3F))
		}
	}
	return out
}

