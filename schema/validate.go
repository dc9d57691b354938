package schema

import "github.com/rs/zerolog/log"

// Validate enforces the structural rules a descriptor must satisfy on
// its own, before any cross-type resolution. Reference targets are
// checked at compile time by the registry.
func Validate(td TypeDescriptor) error {
	log.Debug().Str("type", td.Name).Stringer("kind", td.Kind).Msg("schema: validate descriptor")
	if err := validate(td); err != nil {
		log.Error().Err(err).Str("type", td.Name).Msg("schema: descriptor rejected")
		return err
	}
	return nil
}

func validate(td TypeDescriptor) error {
	if td.Name == "" {
		return DescriptorError{Type: td.Name, Err: ErrUnnamed}
	}
	switch td.Kind {
	case Struct:
		return validateStruct(td)
	case Union:
		return validateUnion(td)
	default:
		return DescriptorError{Type: td.Name, Err: ErrBadKind}
	}
}

func validateStruct(td TypeDescriptor) error {
	if len(td.Variants) > 0 {
		return DescriptorError{Type: td.Name, Err: ErrStructHasVariants}
	}
	if td.Options.ByOrder || td.Options.ByValue || td.Options.ReprWidth != 0 {
		return DescriptorError{Type: td.Name, Err: ErrStrategyOnStruct}
	}

	names := make(map[string]struct{}, len(td.Fields))
	tags := make(map[uint16]struct{})
	captures := 0
	for _, f := range td.Fields {
		if err := fieldName(td.Name, f, names); err != nil {
			return err
		}
		switch f.Role {
		case Normal, Skipped:
			if err := refExact(td.Name, f); err != nil {
				return err
			}
			if f.Tag != 0 {
				return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrStrayTag}
			}
		case TLV:
			if !td.Options.UseTLV {
				return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrTLVNotEnabled}
			}
			if !f.Type.Optional {
				return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrTLVNotOptional}
			}
			if err := refExact(td.Name, f); err != nil {
				return err
			}
			if _, dup := tags[f.Tag]; dup {
				return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrTLVTagConflict}
			}
			tags[f.Tag] = struct{}{}
		case Capture:
			if !td.Options.UseTLV {
				return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrTLVNotEnabled}
			}
			if !f.Type.IsZero() || f.Type.Optional || f.Tag != 0 {
				return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrCaptureTyped}
			}
			captures++
			if captures > 1 {
				return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrMultipleCaptureFields}
			}
		default:
			return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrBadRole}
		}
	}
	return nil
}

func validateUnion(td TypeDescriptor) error {
	if len(td.Fields) > 0 {
		return DescriptorError{Type: td.Name, Err: ErrUnionHasFields}
	}
	if len(td.Variants) == 0 {
		return DescriptorError{Type: td.Name, Err: ErrNoVariants}
	}
	if td.Options.UseTLV {
		return DescriptorError{Type: td.Name, Err: ErrTLVOnUnion}
	}
	if td.Options.ByOrder && td.Options.ByValue {
		return DescriptorError{Type: td.Name, Err: ErrStrategyConflict}
	}
	switch td.Options.ReprWidth {
	case 0, 1, 2, 4, 8:
	default:
		return DescriptorError{Type: td.Name, Err: ErrBadReprWidth}
	}

	variants := make(map[string]struct{}, len(td.Variants))
	for _, v := range td.Variants {
		if v.Name == "" {
			return DescriptorError{Type: td.Name, Err: ErrUnnamedVariant}
		}
		if _, dup := variants[v.Name]; dup {
			return DescriptorError{Type: td.Name, Elem: v.Name, Err: ErrDuplicateVariant}
		}
		variants[v.Name] = struct{}{}

		names := make(map[string]struct{}, len(v.Fields))
		for _, f := range v.Fields {
			if err := fieldName(td.Name, f, names); err != nil {
				return err
			}
			if f.Role != Normal && f.Role != Skipped {
				return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrTLVInVariant}
			}
			if err := refExact(td.Name, f); err != nil {
				return err
			}
			if f.Tag != 0 {
				return DescriptorError{Type: td.Name, Elem: f.Name, Err: ErrStrayTag}
			}
		}
	}

	_, err := ResolveTags(td)
	return err
}

// ResolveTags computes the wire tag for every variant of a union:
// the ordinal under by_order, the intrinsic value under by_value, and
// the explicit override regardless of strategy. Tags must fit the
// repr width and be pairwise distinct.
func ResolveTags(td TypeDescriptor) ([]uint64, error) {
	if td.Kind != Union {
		return nil, nil
	}
	width := td.Options.Width()
	tags := make([]uint64, len(td.Variants))
	seen := make(map[uint64]int, len(td.Variants))
	for i, v := range td.Variants {
		tag := uint64(i)
		if td.Options.ByValue {
			tag = v.Value
		}
		if v.Explicit != nil {
			tag = *v.Explicit
		}
		if !fitsWidth(tag, width) {
			return nil, DescriptorError{Type: td.Name, Elem: v.Name, Err: ErrTagOverflow}
		}
		if j, dup := seen[tag]; dup {
			return nil, TagConflictError{Type: td.Name, VariantA: td.Variants[j].Name, VariantB: v.Name, Tag: tag}
		}
		seen[tag] = i
		tags[i] = tag
	}
	return tags, nil
}

func fitsWidth(v uint64, width int) bool {
	switch width {
	case 1:
		return v <= uint64(^uint8(0))
	case 2:
		return v <= uint64(^uint16(0))
	case 4:
		return v <= uint64(^uint32(0))
	default:
		return true
	}
}

func fieldName(typeName string, f FieldDescriptor, names map[string]struct{}) error {
	if f.Name == "" {
		return DescriptorError{Type: typeName, Err: ErrUnnamedField}
	}
	if _, dup := names[f.Name]; dup {
		return DescriptorError{Type: typeName, Elem: f.Name, Err: ErrDuplicateField}
	}
	names[f.Name] = struct{}{}
	return nil
}

func refExact(typeName string, f FieldDescriptor) error {
	ref := f.Type
	if ref.IsZero() {
		return DescriptorError{Type: typeName, Elem: f.Name, Err: ErrBadTypeRef}
	}
	if ref.Prim != 0 && ref.Named != "" {
		return DescriptorError{Type: typeName, Elem: f.Name, Err: ErrBadTypeRef}
	}
	if ref.Prim != 0 && (ref.Prim < U8 || ref.Prim > Str) {
		return DescriptorError{Type: typeName, Elem: f.Name, Err: ErrBadTypeRef}
	}
	return nil
}
