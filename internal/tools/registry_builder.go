package tools

import "github.com/crystaldolphin/gitcourier/internal/schema"

// RegistryBuilder accumulates descriptors during the construction phase.
// Call Build() to produce an immutable Registry ready for use.
type RegistryBuilder struct {
	order []string
	tools map[string]schema.ToolDescriptor
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{tools: make(map[string]schema.ToolDescriptor)}
}

// WithTool adds a descriptor and returns the builder, enabling chaining.
// A later descriptor with the same name replaces the earlier one in place.
func (b *RegistryBuilder) WithTool(d schema.ToolDescriptor) *RegistryBuilder {
	if _, ok := b.tools[d.Name]; !ok {
		b.order = append(b.order, d.Name)
	}
	b.tools[d.Name] = cloneDescriptor(d)

	return b
}

// Build produces an immutable Registry from the accumulated descriptors.
func (b *RegistryBuilder) Build() *Registry {
	tools := make(map[string]schema.ToolDescriptor, len(b.tools))
	for k, v := range b.tools {
		tools[k] = cloneDescriptor(v)
	}
	return &Registry{order: append([]string(nil), b.order...), tools: tools}
}

func cloneDescriptor(d schema.ToolDescriptor) schema.ToolDescriptor {
	d.Params = append([]schema.Param(nil), d.Params...)
	return d
}
