// Package tools holds the read-only registry of tool descriptors advertised by
// the tool host, and the helpers that derive descriptors from JSON schemas.
package tools

import (
	"context"
	"fmt"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

// Registry holds the descriptors of every tool the host advertises. It is
// built once at startup and never modified afterwards.
type Registry struct {
	order []string
	tools map[string]schema.ToolDescriptor
}

// Get returns the descriptor with the given name.
func (r *Registry) Get(name string) (schema.ToolDescriptor, bool) {
	d, ok := r.tools[name]
	return d, ok
}

// All returns every descriptor in host order.
func (r *Registry) All() []schema.ToolDescriptor {
	list := make([]schema.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name])
	}
	return list
}

// Names returns the tool names in host order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int { return len(r.order) }

// Load asks host for its tool list and builds a registry from it.
func Load(ctx context.Context, host schema.ToolHost) (*Registry, error) {
	descs, err := host.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	b := NewRegistryBuilder()
	for _, d := range descs {
		b.WithTool(d)
	}
	return b.Build(), nil
}
