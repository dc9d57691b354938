package strictwire

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the shape of a Value node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindBool
	KindBytes
	KindStr
	KindStruct
	KindUnion
	KindOption
	KindCapture
)

func (k Kind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindStr:
		return "str"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindOption:
		return "option"
	case KindCapture:
		return "capture"
	default:
		return "invalid"
	}
}

// Value is one node of a value tree handed to Encode or produced by
// Decode. Struct and union values are positional: they carry one
// entry per declared field, skipped and extension fields included.
// Values are immutable once constructed; byte payloads are copied in
// and copied out.
type Value struct {
	kind     Kind
	num      uint64
	flag     bool
	raw      []byte
	text     string
	items    []Value
	variant  string
	captured map[uint16][]byte
	present  bool
}

func U8(v uint8) Value {
	return Value{kind: KindU8, num: uint64(v)}
}

func U16(v uint16) Value {
	return Value{kind: KindU16, num: uint64(v)}
}

func U32(v uint32) Value {
	return Value{kind: KindU32, num: uint64(v)}
}

func U64(v uint64) Value {
	return Value{kind: KindU64, num: v}
}

func Bool(v bool) Value {
	return Value{kind: KindBool, flag: v}
}

func Bytes(v []byte) Value {
	raw := make([]byte, len(v))
	copy(raw, v)
	return Value{kind: KindBytes, raw: raw}
}

func Str(v string) Value {
	return Value{kind: KindStr, text: v}
}

// Struct builds a struct value from field values in declaration order.
func Struct(fields ...Value) Value {
	return Value{kind: KindStruct, items: append([]Value(nil), fields...)}
}

// Union builds a union value for the named variant with its field
// values in declaration order.
func Union(variant string, fields ...Value) Value {
	return Value{kind: KindUnion, variant: variant, items: append([]Value(nil), fields...)}
}

// Some builds a present optional value.
func Some(inner Value) Value {
	return Value{kind: KindOption, present: true, items: []Value{inner}}
}

// None builds an absent optional value.
func None() Value {
	return Value{kind: KindOption}
}

// Captured builds a capture value holding ignorable extension entries
// by tag.
func Captured(entries map[uint16][]byte) Value {
	m := make(map[uint16][]byte, len(entries))
	for tag, payload := range entries {
		m[tag] = append([]byte(nil), payload...)
	}
	return Value{kind: KindCapture, captured: m}
}

func (v Value) Kind() Kind {
	return v.kind
}

// Uint returns the numeric payload of any unsigned integer value.
func (v Value) Uint() (uint64, error) {
	switch v.kind {
	case KindU8, KindU16, KindU32, KindU64:
		return v.num, nil
	default:
		return 0, ErrTypeMismatch
	}
}

func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, ErrTypeMismatch
	}
	return v.flag, nil
}

func (v Value) Bytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, ErrTypeMismatch
	}
	out := make([]byte, len(v.raw))
	copy(out, v.raw)
	return out, nil
}

func (v Value) Str() (string, error) {
	if v.kind != KindStr {
		return "", ErrTypeMismatch
	}
	return v.text, nil
}

// NumFields returns the field count of a struct or union value.
func (v Value) NumFields() int {
	if v.kind != KindStruct && v.kind != KindUnion {
		return 0
	}
	return len(v.items)
}

// Field returns the i-th field value of a struct or union value.
func (v Value) Field(i int) (Value, error) {
	if v.kind != KindStruct && v.kind != KindUnion {
		return Value{}, ErrTypeMismatch
	}
	if i < 0 || i >= len(v.items) {
		return Value{}, fmt.Errorf("field %d of %d: %w", i, len(v.items), ErrTypeMismatch)
	}
	return v.items[i], nil
}

// Variant returns the variant name of a union value.
func (v Value) Variant() (string, error) {
	if v.kind != KindUnion {
		return "", ErrTypeMismatch
	}
	return v.variant, nil
}

// Present reports whether v is a present optional value.
func (v Value) Present() bool {
	return v.kind == KindOption && v.present
}

// Inner returns the payload of a present optional value.
func (v Value) Inner() (Value, error) {
	if v.kind != KindOption || !v.present {
		return Value{}, ErrTypeMismatch
	}
	return v.items[0], nil
}

// Captured returns a copy of a capture value's tag-to-payload mapping.
func (v Value) Captured() (map[uint16][]byte, error) {
	if v.kind != KindCapture {
		return nil, ErrTypeMismatch
	}
	out := make(map[uint16][]byte, len(v.captured))
	for tag, payload := range v.captured {
		out[tag] = append([]byte(nil), payload...)
	}
	return out, nil
}

// Equal reports deep equality of two value trees.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindU8, KindU16, KindU32, KindU64:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindStr:
		return v.text == o.text
	case KindStruct:
		return itemsEqual(v.items, o.items)
	case KindUnion:
		return v.variant == o.variant && itemsEqual(v.items, o.items)
	case KindOption:
		if v.present != o.present {
			return false
		}
		return !v.present || v.items[0].Equal(o.items[0])
	case KindCapture:
		if len(v.captured) != len(o.captured) {
			return false
		}
		for tag, payload := range v.captured {
			other, ok := o.captured[tag]
			if !ok || !bytes.Equal(payload, other) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func itemsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// String renders a compact debug form of the value tree.
func (v Value) String() string {
	switch v.kind {
	case KindU8, KindU16, KindU32, KindU64:
		return fmt.Sprintf("%s(%d)", v.kind, v.num)
	case KindBool:
		return fmt.Sprintf("bool(%t)", v.flag)
	case KindBytes:
		return fmt.Sprintf("bytes(0x%x)", v.raw)
	case KindStr:
		return fmt.Sprintf("str(%q)", v.text)
	case KindStruct:
		return "struct(" + joinItems(v.items) + ")"
	case KindUnion:
		return v.variant + "(" + joinItems(v.items) + ")"
	case KindOption:
		if !v.present {
			return "none"
		}
		return "some(" + v.items[0].String() + ")"
	case KindCapture:
		tags := make([]uint16, 0, len(v.captured))
		for tag := range v.captured {
			tags = append(tags, tag)
		}
		sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
		parts := make([]string, len(tags))
		for i, tag := range tags {
			parts[i] = fmt.Sprintf("0x%04x: 0x%x", tag, v.captured[tag])
		}
		return "capture(" + strings.Join(parts, ", ") + ")"
	default:
		return "invalid"
	}
}

func joinItems(items []Value) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return strings.Join(parts, ", ")
}
