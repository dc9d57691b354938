package strictwire

import (
	"fmt"

	"github.com/danmuck/strictwire/schema"
	"github.com/danmuck/strictwire/tlv"
	"github.com/danmuck/strictwire/wire"
)

// Decode parses data as the canonical encoding of the plan's type.
// Every byte must be consumed; trailing bytes reject the input.
func (p *Plan) Decode(data []byte) (Value, error) {
	r := wire.NewReader(data)
	v, err := p.decodeFrom(r)
	if err != nil {
		return Value{}, err
	}
	if r.Remaining() != 0 {
		return Value{}, fmt.Errorf("%s: %d bytes at offset %d: %w", p.name, r.Remaining(), r.Offset(), ErrTrailingBytes)
	}
	return v, nil
}

func (p *Plan) decodeFrom(r *wire.Reader) (Value, error) {
	if p.kind == schema.Union {
		return p.decodeUnion(r)
	}
	return p.decodeStruct(r)
}

func (p *Plan) decodeStruct(r *wire.Reader) (Value, error) {
	items := make([]Value, len(p.fields))
	for i, step := range p.fields {
		switch step.role {
		case schema.Normal:
			off := r.Offset()
			v, err := decodeType(r, step.typ)
			if err != nil {
				return Value{}, fmt.Errorf("%s.%s at offset %d: %w", p.name, step.name, off, err)
			}
			items[i] = v
		case schema.Skipped:
			items[i] = defaultOf(step.typ)
		case schema.TLV:
			items[i] = None()
		case schema.Capture:
			items[i] = Value{kind: KindCapture, captured: map[uint16][]byte{}}
		}
	}
	if p.useTLV {
		if err := p.decodeExtensions(r, items); err != nil {
			return Value{}, err
		}
	}
	return Value{kind: KindStruct, items: items}, nil
}

// decodeExtensions consumes the rest of the stream as the extension
// region. Declared tags decode into their fields; unknown mandatory
// tags reject the input; unknown ignorable tags land in the capture
// field when one is declared.
func (p *Plan) decodeExtensions(r *wire.Reader, items []Value) error {
	entries, err := tlv.ReadEntries(r)
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	for _, e := range entries {
		idx, declared := p.tlvTags[e.Tag]
		if !declared {
			if tlv.Mandatory(e.Tag) {
				return fmt.Errorf("%s: entry 0x%04x: %w", p.name, e.Tag, tlv.ErrUnknownMandatory)
			}
			if p.capture >= 0 {
				items[p.capture].captured[e.Tag] = e.Value
			}
			// Ignorable entries without a capture field are dropped.
			continue
		}
		step := p.fields[idx]
		sub := wire.NewReader(e.Value)
		inner, err := decodeBase(sub, step.typ)
		if err != nil {
			return fmt.Errorf("%s.%s: entry 0x%04x: %w", p.name, step.name, e.Tag, err)
		}
		if sub.Remaining() != 0 {
			return fmt.Errorf("%s.%s: entry 0x%04x: %d bytes at offset %d: %w", p.name, step.name, e.Tag, sub.Remaining(), sub.Offset(), ErrTrailingBytes)
		}
		items[idx] = Some(inner)
	}
	return nil
}

func (p *Plan) decodeUnion(r *wire.Reader) (Value, error) {
	off := r.Offset()
	tag, err := r.Uint(p.width)
	if err != nil {
		return Value{}, fmt.Errorf("%s at offset %d: %w", p.name, off, err)
	}
	idx, ok := p.byTag[tag]
	if !ok {
		return Value{}, fmt.Errorf("%s: tag %d (0x%x) at offset %d: %w", p.name, tag, tag, off, ErrUnknownTag)
	}
	step := p.variants[idx]
	items := make([]Value, len(step.fields))
	for i, f := range step.fields {
		switch f.role {
		case schema.Normal:
			foff := r.Offset()
			v, err := decodeType(r, f.typ)
			if err != nil {
				return Value{}, fmt.Errorf("%s.%s.%s at offset %d: %w", p.name, step.name, f.name, foff, err)
			}
			items[i] = v
		case schema.Skipped:
			items[i] = defaultOf(f.typ)
		}
	}
	return Value{kind: KindUnion, variant: step.name, items: items}, nil
}

// decodeType reads one body field. Optional values carry a presence
// byte; anything other than 0x00 or 0x01 rejects the input.
func decodeType(r *wire.Reader, t typeRef) (Value, error) {
	if !t.optional {
		return decodeBase(r, t)
	}
	b, err := r.U8()
	if err != nil {
		return Value{}, err
	}
	switch b {
	case 0:
		return None(), nil
	case 1:
		inner, err := decodeBase(r, t)
		if err != nil {
			return Value{}, err
		}
		return Some(inner), nil
	default:
		return Value{}, fmt.Errorf("presence byte 0x%02x: %w", b, ErrUnknownTag)
	}
}

func decodeBase(r *wire.Reader, t typeRef) (Value, error) {
	if t.plan != nil {
		return t.plan.decodeFrom(r)
	}
	switch t.prim {
	case schema.U8:
		v, err := r.U8()
		if err != nil {
			return Value{}, err
		}
		return U8(v), nil
	case schema.U16:
		v, err := r.U16()
		if err != nil {
			return Value{}, err
		}
		return U16(v), nil
	case schema.U32:
		v, err := r.U32()
		if err != nil {
			return Value{}, err
		}
		return U32(v), nil
	case schema.U64:
		v, err := r.U64()
		if err != nil {
			return Value{}, err
		}
		return U64(v), nil
	case schema.Bool:
		v, err := r.Bool()
		if err != nil {
			return Value{}, err
		}
		return Bool(v), nil
	case schema.Bytes:
		v, err := r.Bytes()
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindBytes, raw: v}, nil
	case schema.Str:
		v, err := r.Str()
		if err != nil {
			return Value{}, err
		}
		return Str(v), nil
	}
	return Value{}, fmt.Errorf("primitive %v: %w", t.prim, ErrTypeMismatch)
}

// Default returns the value a skipped field of the plan's type is
// restored to: zero numerics, false, empty sequences, the first
// variant with defaulted fields.
func (p *Plan) Default() Value {
	if p.kind == schema.Union {
		step := p.variants[0]
		items := make([]Value, len(step.fields))
		for i, f := range step.fields {
			items[i] = defaultOf(f.typ)
		}
		return Value{kind: KindUnion, variant: step.name, items: items}
	}
	items := make([]Value, len(p.fields))
	for i, step := range p.fields {
		switch step.role {
		case schema.TLV:
			items[i] = None()
		case schema.Capture:
			items[i] = Value{kind: KindCapture, captured: map[uint16][]byte{}}
		default:
			items[i] = defaultOf(step.typ)
		}
	}
	return Value{kind: KindStruct, items: items}
}

func defaultOf(t typeRef) Value {
	if t.optional {
		return None()
	}
	if t.plan != nil {
		return t.plan.Default()
	}
	switch t.prim {
	case schema.U8:
		return U8(0)
	case schema.U16:
		return U16(0)
	case schema.U32:
		return U32(0)
	case schema.U64:
		return U64(0)
	case schema.Bool:
		return Bool(false)
	case schema.Bytes:
		return Bytes(nil)
	case schema.Str:
		return Str("")
	}
	return Value{}
}
