// Package tlv owns the extension-region entry codec: tag u16 LE,
// length u16 LE, payload. Even tags are mandatory-to-understand,
// odd tags are safe to ignore.
package tlv

import (
	"errors"
	"fmt"

	"github.com/danmuck/strictwire/wire"
)

const HeaderLen = 4

var (
	ErrDuplicateTag     = errors.New("tlv: duplicate entry tag")
	ErrUnknownMandatory = errors.New("tlv: unknown mandatory entry tag")
)

// Entry is one extension-region entry.
type Entry struct {
	Tag   uint16
	Value []byte
}

// Mandatory reports whether tag is mandatory-to-understand. Decoders
// that do not recognize a mandatory tag must reject the input; odd
// tags may be carried through unread.
func Mandatory(tag uint16) bool {
	return tag%2 == 0
}

// AppendEntry writes one entry to w.
func AppendEntry(w *wire.Writer, e Entry) error {
	w.PutU16(e.Tag)
	if err := w.PutBytes(e.Value); err != nil {
		return fmt.Errorf("tlv: entry 0x%04x: %w", e.Tag, err)
	}
	return nil
}

// Encode serializes entries in the order given.
func Encode(entries []Entry) ([]byte, error) {
	w := wire.NewWriter()
	for _, e := range entries {
		if err := AppendEntry(w, e); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// ReadEntries consumes entries from r until it is exhausted. There is
// no count or terminator; the region boundary is the caller's buffer.
// A tag may appear at most once.
func ReadEntries(r *wire.Reader) ([]Entry, error) {
	entries := make([]Entry, 0)
	seen := make(map[uint16]struct{})
	for r.Remaining() > 0 {
		at := r.Offset()
		tag, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("tlv: entry header at offset %d: %w", at, err)
		}
		val, err := r.Bytes()
		if err != nil {
			return nil, fmt.Errorf("tlv: entry 0x%04x at offset %d: %w", tag, at, err)
		}
		if _, dup := seen[tag]; dup {
			return nil, fmt.Errorf("%w: 0x%04x", ErrDuplicateTag, tag)
		}
		seen[tag] = struct{}{}
		entries = append(entries, Entry{Tag: tag, Value: val})
	}
	return entries, nil
}

// Decode parses a complete entry region.
func Decode(region []byte) ([]Entry, error) {
	return ReadEntries(wire.NewReader(region))
}
