// Package schemadoc loads type descriptors from TOML and YAML schema
// documents. A document declares types by name; field types use a
// compact syntax: the primitives u8 u16 u32 u64 bool bytes str, a
// declared type name, or any of those with a trailing "?" marking the
// field optional.
//
// Documents carry only what a descriptor carries. Structural rules
// are enforced by schema validation when the descriptors are
// registered, not here.
package schemadoc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/danmuck/strictwire/schema"
)

type Document struct {
	Types map[string]TypeDoc `toml:"types" yaml:"types"`
}

type TypeDoc struct {
	Kind     string       `toml:"kind" yaml:"kind"`
	TLV      bool         `toml:"tlv" yaml:"tlv"`
	ByOrder  bool         `toml:"by_order" yaml:"by_order"`
	ByValue  bool         `toml:"by_value" yaml:"by_value"`
	Repr     string       `toml:"repr" yaml:"repr"`
	Fields   []FieldDoc   `toml:"fields" yaml:"fields"`
	Variants []VariantDoc `toml:"variants" yaml:"variants"`
}

type FieldDoc struct {
	Name string `toml:"name" yaml:"name"`
	Type string `toml:"type" yaml:"type"`
	Role string `toml:"role" yaml:"role"`
	Tag  uint16 `toml:"tag" yaml:"tag"`
}

// VariantDoc declares one union variant. An absent value infers the
// previous variant's value plus one, starting at zero. Tag overrides
// the resolved wire tag regardless of strategy.
type VariantDoc struct {
	Name   string     `toml:"name" yaml:"name"`
	Value  *uint64    `toml:"value" yaml:"value"`
	Tag    *uint64    `toml:"tag" yaml:"tag"`
	Fields []FieldDoc `toml:"fields" yaml:"fields"`
}

// Load reads a schema document, picking the format by file extension.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("schema load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseTOML(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Document{}, fmt.Errorf("unsupported schema format: %s", path)
	}
}

func ParseTOML(data []byte) (Document, error) {
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("schema parse failed: %w", err)
	}
	return doc, nil
}

func ParseYAML(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("schema parse failed: %w", err)
	}
	return doc, nil
}

// Descriptors converts the document into type descriptors, ordered by
// type name so loads are deterministic.
func (d Document) Descriptors() ([]schema.TypeDescriptor, error) {
	names := make([]string, 0, len(d.Types))
	for name := range d.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]schema.TypeDescriptor, 0, len(names))
	for _, name := range names {
		td, err := d.Types[name].descriptor(name)
		if err != nil {
			return nil, err
		}
		out = append(out, td)
	}
	return out, nil
}

func (t TypeDoc) descriptor(name string) (schema.TypeDescriptor, error) {
	td := schema.TypeDescriptor{Name: name}
	switch strings.ToLower(strings.TrimSpace(t.Kind)) {
	case "struct":
		td.Kind = schema.Struct
	case "union":
		td.Kind = schema.Union
	default:
		return schema.TypeDescriptor{}, fmt.Errorf("type %s: unknown kind %q", name, t.Kind)
	}

	width, err := reprWidth(t.Repr)
	if err != nil {
		return schema.TypeDescriptor{}, fmt.Errorf("type %s: %w", name, err)
	}
	td.Options = schema.Options{
		UseTLV:    t.TLV,
		ByOrder:   t.ByOrder,
		ByValue:   t.ByValue,
		ReprWidth: width,
	}

	td.Fields, err = fieldDescriptors(name, t.Fields)
	if err != nil {
		return schema.TypeDescriptor{}, err
	}

	next := uint64(0)
	for _, v := range t.Variants {
		value := next
		if v.Value != nil {
			value = *v.Value
		}
		next = value + 1

		fields, err := fieldDescriptors(name, v.Fields)
		if err != nil {
			return schema.TypeDescriptor{}, err
		}
		vd := schema.VariantDescriptor{Name: v.Name, Value: value, Fields: fields}
		if v.Tag != nil {
			tag := *v.Tag
			vd.Explicit = &tag
		}
		td.Variants = append(td.Variants, vd)
	}
	return td, nil
}

func fieldDescriptors(typeName string, docs []FieldDoc) ([]schema.FieldDescriptor, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]schema.FieldDescriptor, len(docs))
	for i, f := range docs {
		role, err := parseRole(f.Role)
		if err != nil {
			return nil, fmt.Errorf("type %s: field %s: %w", typeName, f.Name, err)
		}
		fd := schema.FieldDescriptor{Name: f.Name, Role: role, Tag: f.Tag}
		if f.Type != "" {
			ref, err := parseTypeRef(f.Type)
			if err != nil {
				return nil, fmt.Errorf("type %s: field %s: %w", typeName, f.Name, err)
			}
			fd.Type = ref
		}
		out[i] = fd
	}
	return out, nil
}

func parseRole(role string) (schema.Role, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", "normal":
		return schema.Normal, nil
	case "skip", "skipped":
		return schema.Skipped, nil
	case "tlv":
		return schema.TLV, nil
	case "capture":
		return schema.Capture, nil
	default:
		return 0, fmt.Errorf("unknown role %q", role)
	}
}

func parseTypeRef(s string) (schema.TypeRef, error) {
	name := strings.TrimSpace(s)
	var ref schema.TypeRef
	if strings.HasSuffix(name, "?") {
		ref.Optional = true
		name = strings.TrimSpace(strings.TrimSuffix(name, "?"))
	}
	switch name {
	case "":
		return schema.TypeRef{}, fmt.Errorf("field type required")
	case "u8":
		ref.Prim = schema.U8
	case "u16":
		ref.Prim = schema.U16
	case "u32":
		ref.Prim = schema.U32
	case "u64":
		ref.Prim = schema.U64
	case "bool":
		ref.Prim = schema.Bool
	case "bytes":
		ref.Prim = schema.Bytes
	case "str":
		ref.Prim = schema.Str
	default:
		ref.Named = name
	}
	return ref, nil
}

func reprWidth(repr string) (uint8, error) {
	switch strings.ToLower(strings.TrimSpace(repr)) {
	case "":
		return 0, nil
	case "u8":
		return 1, nil
	case "u16":
		return 2, nil
	case "u32":
		return 4, nil
	case "u64":
		return 8, nil
	default:
		return 0, fmt.Errorf("unknown repr %q", repr)
	}
}
