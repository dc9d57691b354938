package wire

import (
	"encoding/binary"
	"unicode/utf8"
)

// Reader consumes canonical primitives from a byte buffer. Reads
// never advance past a failure, so Offset points at the byte that
// could not be read.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the position of the next unread byte.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Uint reads a little-endian unsigned integer of the given byte
// width. Width must be 1, 2, 4, or 8.
func (r *Reader) Uint(width int) (uint64, error) {
	switch width {
	case 1:
		v, err := r.U8()
		return uint64(v), err
	case 2:
		v, err := r.U16()
		return uint64(v), err
	case 4:
		v, err := r.U32()
		return uint64(v), err
	case 8:
		return r.U64()
	default:
		return 0, ErrBadWidth
	}
}

// Bool reads one canonical bool byte: 0x00 or 0x01.
func (r *Reader) Bool() (bool, error) {
	b, err := r.U8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

// Bytes reads a u16 length prefix and the declared number of bytes.
// The returned slice is a copy.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.U16()
	if err != nil {
		return nil, err
	}
	if int(n) > r.Remaining() {
		return nil, ErrLengthMismatch
	}
	b, _ := r.take(int(n))
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Str reads a length-prefixed byte sequence and validates utf-8.
func (r *Reader) Str() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidString
	}
	return string(b), nil
}
