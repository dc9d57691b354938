// Package schema owns the type descriptor model and its structural
// validation.
//
// Ownership boundary:
// - descriptor types for structs, unions, fields, and variants
// - per-type directive options (tag strategy, repr width, tlv)
// - descriptor validation and tag resolution
// - the schema error taxonomy
package schema

import "fmt"

// Kind selects the composite shape of a type.
type Kind uint8

const (
	Struct Kind = iota + 1
	Union
)

func (k Kind) String() string {
	switch k {
	case Struct:
		return "struct"
	case Union:
		return "union"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Primitive identifies a leaf wire type.
type Primitive uint8

const (
	U8 Primitive = iota + 1
	U16
	U32
	U64
	Bool
	Bytes
	Str
)

func (p Primitive) String() string {
	switch p {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case Bool:
		return "bool"
	case Bytes:
		return "bytes"
	case Str:
		return "str"
	default:
		return fmt.Sprintf("primitive(%d)", uint8(p))
	}
}

// Role declares how a field participates in the encoding.
type Role uint8

const (
	// Normal fields encode into the body in declaration order.
	Normal Role = iota
	// Skipped fields never reach the byte stream; decode restores
	// the declared default.
	Skipped
	// TLV fields encode as tagged entries in the extension region.
	// Their type must be optional.
	TLV
	// Capture fields hold unknown ignorable extension entries as a
	// tag-to-payload mapping. At most one per struct.
	Capture
)

func (r Role) String() string {
	switch r {
	case Normal:
		return "normal"
	case Skipped:
		return "skipped"
	case TLV:
		return "tlv"
	case Capture:
		return "capture"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// TypeRef names the type of a field: exactly one of Prim or Named is
// set. Optional wraps the type. Capture fields carry a zero TypeRef.
type TypeRef struct {
	Prim     Primitive
	Named    string
	Optional bool
}

// IsZero reports whether the ref names no type at all.
func (r TypeRef) IsZero() bool {
	return r.Prim == 0 && r.Named == ""
}

func (r TypeRef) String() string {
	base := r.Named
	if r.Named == "" {
		base = r.Prim.String()
	}
	if r.Optional {
		return base + "?"
	}
	return base
}

// FieldDescriptor declares one field of a struct or variant. Tag is
// the extension entry tag and is meaningful only for the TLV role.
type FieldDescriptor struct {
	Name string
	Type TypeRef
	Role Role
	Tag  uint16
}

// VariantDescriptor declares one variant of a union. Value is the
// intrinsic discriminant consumed by the by_value strategy; Explicit,
// when set, overrides every strategy with a fixed wire tag.
type VariantDescriptor struct {
	Name     string
	Value    uint64
	Explicit *uint64
	Fields   []FieldDescriptor
}

// Options is the per-type directive bundle. ByOrder and ByValue are
// requested strategies; requesting both is a schema error and
// requesting neither means by_order. ReprWidth is the tag width in
// bytes (0 means 1).
type Options struct {
	UseTLV    bool
	ByOrder   bool
	ByValue   bool
	ReprWidth uint8
}

// Width returns the resolved tag width in bytes.
func (o Options) Width() int {
	if o.ReprWidth == 0 {
		return 1
	}
	return int(o.ReprWidth)
}

// TypeDescriptor is the normalized declaration of one composite type.
// Fields apply to structs, Variants to unions; declaration order is
// positional and significant.
type TypeDescriptor struct {
	Name     string
	Kind     Kind
	Fields   []FieldDescriptor
	Variants []VariantDescriptor
	Options  Options
}
