package classfile

import (
	"encoding/binary"
	"fmt"
)

// reader walks a class file held in memory. Every read checks bounds and
// fails with ErrMalformed rather than panicking on truncated input.
type reader struct {
	data   []byte
	offset int
}

func (r *reader) need(n int) error {
	if n < 0 || r.offset+n > len(r.data) {
		return fmt.Errorf("%w: unexpected end of data at offset %d (need %d bytes, have %d)",
			ErrMalformed, r.offset, n, len(r.data)-r.offset)
	}
	return nil
}

func (r *reader) u1() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.offset]
	r.offset++
	return v, nil
}

func (r *reader) u2() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.offset:])
	r.offset += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v, nil
}

func (r *reader) u8() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return v, nil
}

// bytes returns a copy of the next n bytes.
func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.data[r.offset:r.offset+n])
	r.offset += n
	return b, nil
}

func (r *reader) remaining() int {
	return len(r.data) - r.offset
}
