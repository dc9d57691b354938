package schema

import (
	"errors"
	"fmt"
)

var (
	ErrUnnamed               = errors.New("type name required")
	ErrBadKind               = errors.New("kind must be struct or union")
	ErrBadRole               = errors.New("unknown field role")
	ErrBadTypeRef            = errors.New("field type must be exactly one of primitive or named type")
	ErrUnnamedField          = errors.New("field name required")
	ErrDuplicateField        = errors.New("duplicate field name")
	ErrUnnamedVariant        = errors.New("variant name required")
	ErrDuplicateVariant      = errors.New("duplicate variant name")
	ErrStructHasVariants     = errors.New("struct cannot declare variants")
	ErrUnionHasFields        = errors.New("union cannot declare top-level fields")
	ErrNoVariants            = errors.New("union requires at least one variant")
	ErrStrategyConflict      = errors.New("by_order and by_value are mutually exclusive")
	ErrStrategyOnStruct      = errors.New("tag strategy options apply to unions only")
	ErrBadReprWidth          = errors.New("tag repr width must be 1, 2, 4, or 8 bytes")
	ErrTagOverflow           = errors.New("resolved tag does not fit repr width")
	ErrTLVOnUnion            = errors.New("tlv extension applies to structs only")
	ErrTLVNotEnabled         = errors.New("tlv roles require the tlv option")
	ErrTLVNotOptional        = errors.New("tlv fields must be optional")
	ErrTLVInVariant          = errors.New("variant fields cannot carry tlv roles")
	ErrTLVTagConflict        = errors.New("tlv tag declared more than once")
	ErrStrayTag              = errors.New("tlv tag declared without tlv role")
	ErrMultipleCaptureFields = errors.New("at most one capture field per struct")
	ErrCaptureTyped          = errors.New("capture fields declare no type or tag")

	// Raised during registry resolution rather than per-type checks.
	ErrDuplicateType    = errors.New("type already registered")
	ErrUnknownType      = errors.New("reference to unregistered type")
	ErrUnboundedNesting = errors.New("tlv-extended type cannot be a body field")
	ErrRecursiveType    = errors.New("recursive type without an optional link")
)

// DescriptorError locates a schema error within a descriptor. Elem is
// the offending field or variant name, empty for type-level errors.
type DescriptorError struct {
	Type string
	Elem string
	Err  error
}

func (e DescriptorError) Error() string {
	if e.Elem == "" {
		return fmt.Sprintf("schema: type %q: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema: type %q: %q: %v", e.Type, e.Elem, e.Err)
}

func (e DescriptorError) Unwrap() error {
	return e.Err
}

// TagConflictError reports two variants resolving to the same wire tag.
type TagConflictError struct {
	Type     string
	VariantA string
	VariantB string
	Tag      uint64
}

func (e TagConflictError) Error() string {
	return fmt.Sprintf("schema: type %q: variants %q and %q resolve to tag %d", e.Type, e.VariantA, e.VariantB, e.Tag)
}
