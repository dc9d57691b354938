package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/danmuck/strictwire"
	"github.com/danmuck/strictwire/schema"
)

// valueFromJSON builds the value tree for the named type from its
// JSON form. Structs are objects keyed by field name, unions are a
// bare variant-name string or a single-key object of variant name to
// field object, bytes take hex strings, optional fields take null or
// the inner form, and capture fields take objects of entry tag to
// hex payload. Skipped fields are not part of the JSON surface.
func valueFromJSON(reg *strictwire.Registry, typeName string, data []byte) (strictwire.Value, error) {
	b := valueBuilder{reg: reg}
	return b.named(typeName, json.RawMessage(data))
}

type valueBuilder struct {
	reg *strictwire.Registry
}

func (b valueBuilder) named(name string, raw json.RawMessage) (strictwire.Value, error) {
	td, ok := b.reg.Descriptor(name)
	if !ok {
		return strictwire.Value{}, fmt.Errorf("type %s: not declared in the schema", name)
	}
	if td.Kind == schema.Union {
		return b.union(td, raw)
	}
	return b.structValue(td, raw)
}

func (b valueBuilder) structValue(td schema.TypeDescriptor, raw json.RawMessage) (strictwire.Value, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return strictwire.Value{}, fmt.Errorf("type %s: %w", td.Name, err)
	}

	declared := make(map[string]struct{}, len(td.Fields))
	items := make([]strictwire.Value, len(td.Fields))
	for i, f := range td.Fields {
		declared[f.Name] = struct{}{}
		fr, present := obj[f.Name]

		var err error
		switch f.Role {
		case schema.Skipped:
			if present {
				return strictwire.Value{}, fmt.Errorf("type %s: field %s: skipped fields cannot be set", td.Name, f.Name)
			}
			items[i], err = b.defaultValue(f.Type)
		case schema.TLV:
			items[i], err = b.entryValue(td.Name, f, fr, present)
		case schema.Capture:
			items[i], err = captureValue(td.Name, f.Name, fr, present)
		default:
			items[i], err = b.field(td.Name, f, fr, present)
		}
		if err != nil {
			return strictwire.Value{}, err
		}
	}
	for key := range obj {
		if _, ok := declared[key]; !ok {
			return strictwire.Value{}, fmt.Errorf("type %s: unknown field %q", td.Name, key)
		}
	}
	return strictwire.Struct(items...), nil
}

func (b valueBuilder) union(td schema.TypeDescriptor, raw json.RawMessage) (strictwire.Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return strictwire.Value{}, fmt.Errorf("type %s: %w", td.Name, err)
		}
		vd, ok := findVariant(td, name)
		if !ok {
			return strictwire.Value{}, fmt.Errorf("type %s: unknown variant %q", td.Name, name)
		}
		if len(vd.Fields) > 0 {
			return strictwire.Value{}, fmt.Errorf("type %s: variant %s declares fields, use an object", td.Name, name)
		}
		return strictwire.Union(name), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return strictwire.Value{}, fmt.Errorf("type %s: %w", td.Name, err)
	}
	if len(obj) != 1 {
		return strictwire.Value{}, fmt.Errorf("type %s: union values take exactly one variant key, got %d", td.Name, len(obj))
	}
	for name, body := range obj {
		vd, ok := findVariant(td, name)
		if !ok {
			return strictwire.Value{}, fmt.Errorf("type %s: unknown variant %q", td.Name, name)
		}
		items, err := b.variantFields(td.Name, vd, body)
		if err != nil {
			return strictwire.Value{}, err
		}
		return strictwire.Union(name, items...), nil
	}
	return strictwire.Value{}, fmt.Errorf("type %s: empty union value", td.Name)
}

func (b valueBuilder) variantFields(typeName string, vd schema.VariantDescriptor, raw json.RawMessage) ([]strictwire.Value, error) {
	obj := map[string]json.RawMessage{}
	if !isNull(raw) {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("type %s: variant %s: %w", typeName, vd.Name, err)
		}
	}

	declared := make(map[string]struct{}, len(vd.Fields))
	items := make([]strictwire.Value, len(vd.Fields))
	for i, f := range vd.Fields {
		declared[f.Name] = struct{}{}
		fr, present := obj[f.Name]

		var err error
		if f.Role == schema.Skipped {
			if present {
				return nil, fmt.Errorf("type %s: field %s: skipped fields cannot be set", typeName, f.Name)
			}
			items[i], err = b.defaultValue(f.Type)
		} else {
			items[i], err = b.field(typeName, f, fr, present)
		}
		if err != nil {
			return nil, err
		}
	}
	for key := range obj {
		if _, ok := declared[key]; !ok {
			return nil, fmt.Errorf("type %s: variant %s: unknown field %q", typeName, vd.Name, key)
		}
	}
	return items, nil
}

func (b valueBuilder) field(typeName string, f schema.FieldDescriptor, raw json.RawMessage, present bool) (strictwire.Value, error) {
	if !present {
		if f.Type.Optional {
			return strictwire.None(), nil
		}
		return strictwire.Value{}, fmt.Errorf("type %s: field %s: required", typeName, f.Name)
	}
	return b.ref(typeName, f.Name, f.Type, raw)
}

// entryValue handles extension fields: absent or null means the entry
// is not emitted.
func (b valueBuilder) entryValue(typeName string, f schema.FieldDescriptor, raw json.RawMessage, present bool) (strictwire.Value, error) {
	if !present || isNull(raw) {
		return strictwire.None(), nil
	}
	base := f.Type
	base.Optional = false
	inner, err := b.ref(typeName, f.Name, base, raw)
	if err != nil {
		return strictwire.Value{}, err
	}
	return strictwire.Some(inner), nil
}

func (b valueBuilder) ref(typeName, fieldName string, ref schema.TypeRef, raw json.RawMessage) (strictwire.Value, error) {
	if ref.Optional {
		if isNull(raw) {
			return strictwire.None(), nil
		}
		base := ref
		base.Optional = false
		inner, err := b.ref(typeName, fieldName, base, raw)
		if err != nil {
			return strictwire.Value{}, err
		}
		return strictwire.Some(inner), nil
	}
	if ref.Named != "" {
		v, err := b.named(ref.Named, raw)
		if err != nil {
			return strictwire.Value{}, fmt.Errorf("%s.%s: %w", typeName, fieldName, err)
		}
		return v, nil
	}
	return primValue(typeName, fieldName, ref.Prim, raw)
}

func (b valueBuilder) defaultValue(ref schema.TypeRef) (strictwire.Value, error) {
	if ref.Optional {
		return strictwire.None(), nil
	}
	if ref.Named != "" {
		plan, err := b.reg.Compile(ref.Named)
		if err != nil {
			return strictwire.Value{}, err
		}
		return plan.Default(), nil
	}
	switch ref.Prim {
	case schema.U8:
		return strictwire.U8(0), nil
	case schema.U16:
		return strictwire.U16(0), nil
	case schema.U32:
		return strictwire.U32(0), nil
	case schema.U64:
		return strictwire.U64(0), nil
	case schema.Bool:
		return strictwire.Bool(false), nil
	case schema.Bytes:
		return strictwire.Bytes(nil), nil
	case schema.Str:
		return strictwire.Str(""), nil
	default:
		return strictwire.Value{}, fmt.Errorf("no default for primitive %v", ref.Prim)
	}
}

func primValue(typeName, fieldName string, prim schema.Primitive, raw json.RawMessage) (strictwire.Value, error) {
	fail := func(err error) (strictwire.Value, error) {
		return strictwire.Value{}, fmt.Errorf("%s.%s: %w", typeName, fieldName, err)
	}
	switch prim {
	case schema.U8, schema.U16, schema.U32, schema.U64:
		var n uint64
		if err := json.Unmarshal(raw, &n); err != nil {
			return fail(err)
		}
		switch prim {
		case schema.U8:
			if n > uint64(^uint8(0)) {
				return fail(fmt.Errorf("%d overflows u8", n))
			}
			return strictwire.U8(uint8(n)), nil
		case schema.U16:
			if n > uint64(^uint16(0)) {
				return fail(fmt.Errorf("%d overflows u16", n))
			}
			return strictwire.U16(uint16(n)), nil
		case schema.U32:
			if n > uint64(^uint32(0)) {
				return fail(fmt.Errorf("%d overflows u32", n))
			}
			return strictwire.U32(uint32(n)), nil
		default:
			return strictwire.U64(n), nil
		}
	case schema.Bool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return fail(err)
		}
		return strictwire.Bool(v), nil
	case schema.Bytes:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fail(err)
		}
		data, err := hex.DecodeString(s)
		if err != nil {
			return fail(fmt.Errorf("bytes take hex strings: %w", err))
		}
		return strictwire.Bytes(data), nil
	case schema.Str:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fail(err)
		}
		return strictwire.Str(s), nil
	default:
		return fail(fmt.Errorf("unsupported primitive %v", prim))
	}
}

func captureValue(typeName, fieldName string, raw json.RawMessage, present bool) (strictwire.Value, error) {
	if !present || isNull(raw) {
		return strictwire.Captured(nil), nil
	}
	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err != nil {
		return strictwire.Value{}, fmt.Errorf("%s.%s: %w", typeName, fieldName, err)
	}
	entries := make(map[uint16][]byte, len(obj))
	for key, hexPayload := range obj {
		tag, err := strconv.ParseUint(key, 0, 16)
		if err != nil {
			return strictwire.Value{}, fmt.Errorf("%s.%s: entry key %q: %w", typeName, fieldName, key, err)
		}
		payload, err := hex.DecodeString(hexPayload)
		if err != nil {
			return strictwire.Value{}, fmt.Errorf("%s.%s: entry %s: %w", typeName, fieldName, key, err)
		}
		entries[uint16(tag)] = payload
	}
	return strictwire.Captured(entries), nil
}

func findVariant(td schema.TypeDescriptor, name string) (schema.VariantDescriptor, bool) {
	for _, v := range td.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return schema.VariantDescriptor{}, false
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}
