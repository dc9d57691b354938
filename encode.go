package strictwire

import (
	"fmt"
	"sort"

	"github.com/danmuck/strictwire/schema"
	"github.com/danmuck/strictwire/tlv"
	"github.com/danmuck/strictwire/wire"
)

// Encode serializes v into the canonical byte form of the plan's
// type. It fails only for values that are not well-formed for the
// plan: shape mismatches, sequences beyond length-prefix capacity,
// and capture entries decode could never produce.
func (p *Plan) Encode(v Value) ([]byte, error) {
	w := wire.NewWriter()
	if err := p.encodeInto(w, v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (p *Plan) encodeInto(w *wire.Writer, v Value) error {
	if p.kind == schema.Union {
		return p.encodeUnion(w, v)
	}
	return p.encodeStruct(w, v)
}

func (p *Plan) encodeStruct(w *wire.Writer, v Value) error {
	if v.kind != KindStruct {
		return fmt.Errorf("%s: have %s value: %w", p.name, v.kind, ErrTypeMismatch)
	}
	if len(v.items) != len(p.fields) {
		return fmt.Errorf("%s: have %d field values, plan declares %d: %w", p.name, len(v.items), len(p.fields), ErrTypeMismatch)
	}
	for i, step := range p.fields {
		if step.role != schema.Normal {
			continue
		}
		if err := encodeType(w, step.typ, v.items[i]); err != nil {
			return fmt.Errorf("%s.%s: %w", p.name, step.name, err)
		}
	}
	if p.useTLV {
		return p.encodeExtensions(w, v)
	}
	return nil
}

// encodeExtensions appends the extension region: declared entries for
// present fields in declaration order, then captured entries in
// ascending tag order.
func (p *Plan) encodeExtensions(w *wire.Writer, v Value) error {
	for i, step := range p.fields {
		if step.role != schema.TLV {
			continue
		}
		fv := v.items[i]
		if fv.kind != KindOption {
			return fmt.Errorf("%s.%s: have %s value, want option: %w", p.name, step.name, fv.kind, ErrTypeMismatch)
		}
		if !fv.present {
			continue
		}
		sub := wire.NewWriter()
		if err := encodeBase(sub, step.typ, fv.items[0]); err != nil {
			return fmt.Errorf("%s.%s: %w", p.name, step.name, err)
		}
		if err := tlv.AppendEntry(w, tlv.Entry{Tag: step.tag, Value: sub.Bytes()}); err != nil {
			return fmt.Errorf("%s.%s: %w", p.name, step.name, err)
		}
	}
	if p.capture < 0 {
		return nil
	}

	cv := v.items[p.capture]
	if cv.kind != KindCapture {
		return fmt.Errorf("%s.%s: have %s value, want capture: %w", p.name, p.fields[p.capture].name, cv.kind, ErrTypeMismatch)
	}
	tags := make([]uint16, 0, len(cv.captured))
	for tag := range cv.captured {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	for _, tag := range tags {
		if tlv.Mandatory(tag) {
			return fmt.Errorf("%s: entry 0x%04x: %w", p.name, tag, ErrCaptureTag)
		}
		if _, declared := p.tlvTags[tag]; declared {
			return fmt.Errorf("%s: entry 0x%04x: %w", p.name, tag, ErrCaptureTag)
		}
		if err := tlv.AppendEntry(w, tlv.Entry{Tag: tag, Value: cv.captured[tag]}); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	return nil
}

func (p *Plan) encodeUnion(w *wire.Writer, v Value) error {
	if v.kind != KindUnion {
		return fmt.Errorf("%s: have %s value: %w", p.name, v.kind, ErrTypeMismatch)
	}
	idx, ok := p.byName[v.variant]
	if !ok {
		return fmt.Errorf("%s: variant %q: %w", p.name, v.variant, ErrUnknownVariant)
	}
	step := p.variants[idx]
	if len(v.items) != len(step.fields) {
		return fmt.Errorf("%s.%s: have %d field values, variant declares %d: %w", p.name, step.name, len(v.items), len(step.fields), ErrTypeMismatch)
	}
	if err := w.PutUint(p.width, step.tag); err != nil {
		return fmt.Errorf("%s.%s: %w", p.name, step.name, err)
	}
	for i, f := range step.fields {
		if f.role != schema.Normal {
			continue
		}
		if err := encodeType(w, f.typ, v.items[i]); err != nil {
			return fmt.Errorf("%s.%s.%s: %w", p.name, step.name, f.name, err)
		}
	}
	return nil
}

// encodeType writes one body field. Optional values encode as a
// presence byte followed by the inner encoding.
func encodeType(w *wire.Writer, t typeRef, v Value) error {
	if !t.optional {
		return encodeBase(w, t, v)
	}
	if v.kind != KindOption {
		return fmt.Errorf("have %s value, want option: %w", v.kind, ErrTypeMismatch)
	}
	if !v.present {
		w.PutU8(0)
		return nil
	}
	w.PutU8(1)
	return encodeBase(w, t, v.items[0])
}

func encodeBase(w *wire.Writer, t typeRef, v Value) error {
	if t.plan != nil {
		return t.plan.encodeInto(w, v)
	}
	if want := primKind(t.prim); v.kind != want {
		return fmt.Errorf("have %s value, want %s: %w", v.kind, want, ErrTypeMismatch)
	}
	switch t.prim {
	case schema.U8:
		w.PutU8(uint8(v.num))
	case schema.U16:
		w.PutU16(uint16(v.num))
	case schema.U32:
		w.PutU32(uint32(v.num))
	case schema.U64:
		w.PutU64(v.num)
	case schema.Bool:
		w.PutBool(v.flag)
	case schema.Bytes:
		return w.PutBytes(v.raw)
	case schema.Str:
		return w.PutStr(v.text)
	}
	return nil
}

func primKind(p schema.Primitive) Kind {
	switch p {
	case schema.U8:
		return KindU8
	case schema.U16:
		return KindU16
	case schema.U32:
		return KindU32
	case schema.U64:
		return KindU64
	case schema.Bool:
		return KindBool
	case schema.Bytes:
		return KindBytes
	case schema.Str:
		return KindStr
	default:
		return KindInvalid
	}
}
