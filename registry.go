package strictwire

import (
	"github.com/rs/zerolog/log"

	"github.com/danmuck/strictwire/schema"
)

// Registry holds type descriptors and compiles them into codec plans.
// Add and Compile belong to a single-threaded schema-build phase;
// the plans they produce are immutable and safe for concurrent use.
type Registry struct {
	types map[string]schema.TypeDescriptor
	order []string
	plans map[string]*Plan
}

func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]schema.TypeDescriptor),
		plans: make(map[string]*Plan),
	}
}

// Add validates and registers a descriptor. Names are unique.
func (r *Registry) Add(td schema.TypeDescriptor) error {
	if err := schema.Validate(td); err != nil {
		return err
	}
	if _, dup := r.types[td.Name]; dup {
		return schema.DescriptorError{Type: td.Name, Err: schema.ErrDuplicateType}
	}
	r.types[td.Name] = td
	r.order = append(r.order, td.Name)
	return nil
}

// Compile resolves the named descriptor into a plan, compiling every
// type it references. Plans are cached; compiling the same name twice
// returns the same plan.
func (r *Registry) Compile(name string) (*Plan, error) {
	if p, ok := r.plans[name]; ok {
		return p, nil
	}
	if _, ok := r.types[name]; !ok {
		return nil, schema.DescriptorError{Type: name, Err: schema.ErrUnknownType}
	}
	c := &compiler{reg: r, built: make(map[string]*Plan)}
	p, err := c.compile(name, false)
	if err != nil {
		log.Error().Err(err).Str("type", name).Msg("strictwire: compile failed")
		return nil, err
	}
	for built, plan := range c.built {
		r.plans[built] = plan
	}
	log.Debug().Str("type", name).Int("plans", len(c.built)).Msg("strictwire: compiled codec plan")
	return p, nil
}

// CompileAll compiles every registered type in registration order.
func (r *Registry) CompileAll() error {
	for _, name := range r.order {
		if _, err := r.Compile(name); err != nil {
			return err
		}
	}
	return nil
}

// Types lists registered type names in registration order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.order...)
}

// Descriptor returns the registered descriptor for a type name.
func (r *Registry) Descriptor(name string) (schema.TypeDescriptor, bool) {
	td, ok := r.types[name]
	return td, ok
}
