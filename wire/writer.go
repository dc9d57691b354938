package wire

import "encoding/binary"

// Writer appends canonical primitives to a growing buffer. Integers
// are little-endian; byte sequences and strings carry a u16
// little-endian length prefix. There is no padding or alignment.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) PutU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) PutU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutU64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) PutBool(v bool) {
	b := byte(0)
	if v {
		b = 1
	}
	w.buf = append(w.buf, b)
}

// PutUint writes v as a little-endian unsigned integer of the given
// byte width. Width must be 1, 2, 4, or 8 and v must fit.
func (w *Writer) PutUint(width int, v uint64) error {
	switch width {
	case 1:
		if v > uint64(^uint8(0)) {
			return ErrOverflow
		}
		w.PutU8(uint8(v))
	case 2:
		if v > uint64(^uint16(0)) {
			return ErrOverflow
		}
		w.PutU16(uint16(v))
	case 4:
		if v > uint64(^uint32(0)) {
			return ErrOverflow
		}
		w.PutU32(uint32(v))
	case 8:
		w.PutU64(v)
	default:
		return ErrBadWidth
	}
	return nil
}

// PutBytes writes a u16 length prefix followed by v.
func (w *Writer) PutBytes(v []byte) error {
	if len(v) > int(^uint16(0)) {
		return ErrLengthMismatch
	}
	w.PutU16(uint16(len(v)))
	w.buf = append(w.buf, v...)
	return nil
}

// PutStr writes a u16 length prefix followed by the string bytes.
func (w *Writer) PutStr(s string) error {
	if len(s) > int(^uint16(0)) {
		return ErrLengthMismatch
	}
	w.PutU16(uint16(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}
