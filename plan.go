package strictwire

import "github.com/danmuck/strictwire/schema"

// Plan is the compiled codec for one type: field steps with resolved
// type references, the variant tag table, and the extension layout.
// Plans are immutable after compilation.
type Plan struct {
	name string
	kind schema.Kind

	// struct layout
	fields  []fieldStep
	useTLV  bool
	tlvTags map[uint16]int
	capture int

	// union layout
	variants []variantStep
	byName   map[string]int
	byTag    map[uint64]int
	width    int
}

// Name returns the type name the plan encodes.
func (p *Plan) Name() string {
	return p.name
}

type fieldStep struct {
	name string
	role schema.Role
	typ  typeRef
	tag  uint16
}

type variantStep struct {
	name   string
	tag    uint64
	fields []fieldStep
}

// typeRef is a resolved field type: a primitive leaf or a child plan,
// possibly optional. For extension fields the plan is the entry
// payload type and optionality lives in entry presence.
type typeRef struct {
	prim     schema.Primitive
	plan     *Plan
	optional bool
}

type compiler struct {
	reg   *Registry
	built map[string]*Plan
	stack []resolution
}

type resolution struct {
	name string
	// viaOptional marks the edge that entered this type as optional
	// (an optional reference or an extension entry payload).
	viaOptional bool
}

// compile builds the plan for name, recursing through references.
// The shell registers in built before the fill so self-references
// resolve to the plan under construction.
func (c *compiler) compile(name string, viaOptional bool) (*Plan, error) {
	if p, ok := c.reg.plans[name]; ok {
		return p, nil
	}
	if p, ok := c.built[name]; ok {
		return p, nil
	}
	td := c.reg.types[name]

	p := &Plan{name: name, kind: td.Kind, capture: -1}
	c.built[name] = p
	c.stack = append(c.stack, resolution{name: name, viaOptional: viaOptional})
	defer func() { c.stack = c.stack[:len(c.stack)-1] }()

	if td.Kind == schema.Union {
		return p, c.fillUnion(p, td)
	}
	return p, c.fillStruct(p, td)
}

func (c *compiler) fillStruct(p *Plan, td schema.TypeDescriptor) error {
	p.useTLV = td.Options.UseTLV
	if p.useTLV {
		p.tlvTags = make(map[uint16]int)
	}
	p.fields = make([]fieldStep, len(td.Fields))
	for i, f := range td.Fields {
		step := fieldStep{name: f.Name, role: f.Role, tag: f.Tag}
		switch f.Role {
		case schema.Normal, schema.Skipped:
			typ, err := c.resolve(td.Name, f.Name, f.Type, false)
			if err != nil {
				return err
			}
			step.typ = typ
		case schema.TLV:
			base := f.Type
			base.Optional = false
			typ, err := c.resolve(td.Name, f.Name, base, true)
			if err != nil {
				return err
			}
			step.typ = typ
			p.tlvTags[f.Tag] = i
		case schema.Capture:
			p.capture = i
		}
		p.fields[i] = step
	}
	return nil
}

func (c *compiler) fillUnion(p *Plan, td schema.TypeDescriptor) error {
	p.width = td.Options.Width()
	tags, err := schema.ResolveTags(td)
	if err != nil {
		return err
	}
	p.variants = make([]variantStep, len(td.Variants))
	p.byName = make(map[string]int, len(td.Variants))
	p.byTag = make(map[uint64]int, len(td.Variants))
	for i, v := range td.Variants {
		step := variantStep{name: v.Name, tag: tags[i]}
		step.fields = make([]fieldStep, len(v.Fields))
		for j, f := range v.Fields {
			typ, err := c.resolve(td.Name, f.Name, f.Type, false)
			if err != nil {
				return err
			}
			step.fields[j] = fieldStep{name: f.Name, role: f.Role, typ: typ}
		}
		p.variants[i] = step
		p.byName[v.Name] = i
		p.byTag[tags[i]] = i
	}
	return nil
}

// resolve maps a reference onto a primitive or child plan. entry is
// true when the reference is an extension entry payload: the one
// length-bounded context where a tlv-extended type may be embedded,
// and an edge that bounds recursion the same way an optional does.
func (c *compiler) resolve(typeName, fieldName string, ref schema.TypeRef, entry bool) (typeRef, error) {
	if ref.Prim != 0 {
		return typeRef{prim: ref.Prim, optional: ref.Optional}, nil
	}
	target, ok := c.reg.types[ref.Named]
	if !ok {
		return typeRef{}, schema.DescriptorError{Type: typeName, Elem: fieldName, Err: schema.ErrUnknownType}
	}
	if target.Options.UseTLV && !entry {
		return typeRef{}, schema.DescriptorError{Type: typeName, Elem: fieldName, Err: schema.ErrUnboundedNesting}
	}

	bounded := ref.Optional || entry
	if i := c.stackIndex(ref.Named); i >= 0 {
		// Back-edge: the cycle it closes must contain at least one
		// optional link or the layout would be infinite.
		if !bounded && !c.optionalSince(i) {
			return typeRef{}, schema.DescriptorError{Type: typeName, Elem: fieldName, Err: schema.ErrRecursiveType}
		}
		return typeRef{plan: c.built[ref.Named], optional: ref.Optional}, nil
	}

	child, err := c.compile(ref.Named, bounded)
	if err != nil {
		return typeRef{}, err
	}
	return typeRef{plan: child, optional: ref.Optional}, nil
}

func (c *compiler) stackIndex(name string) int {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i].name == name {
			return i
		}
	}
	return -1
}

func (c *compiler) optionalSince(i int) bool {
	for j := i + 1; j < len(c.stack); j++ {
		if c.stack[j].viaOptional {
			return true
		}
	}
	return false
}
