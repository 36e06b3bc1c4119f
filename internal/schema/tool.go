// Package schema contains the core types and contracts shared across gitcourier
// packages. Concrete implementations live in their respective packages.
package schema

import (
	"context"
	"fmt"
)

// ParamKind is the declared type of one tool parameter.
type ParamKind string

const (
	KindString      ParamKind = "string"
	KindInteger     ParamKind = "integer"
	KindNumber      ParamKind = "number"
	KindIntArray    ParamKind = "int-array"
	KindStringArray ParamKind = "string-array"
)

// Param is one entry of a tool's ordered parameter list.
type Param struct {
	Name string
	Kind ParamKind
}

// ToolDescriptor describes one tool advertised by the tool host.
// Descriptors are immutable once the registry is built.
type ToolDescriptor struct {
	Name        string
	Params      []Param
	Description string
}

// Signature renders the descriptor as name(param: kind, ...).
func (d ToolDescriptor) Signature() string {
	if len(d.Params) == 0 {
		return d.Name + "(no parameters)"
	}
	s := d.Name + "("
	for i, p := range d.Params {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %s", p.Name, p.Kind)
	}
	return s + ")"
}

// VerifyKind names the verification branch a tool result implies.
type VerifyKind string

const (
	VerifyUnknown VerifyKind = ""
	VerifyClone   VerifyKind = "clone"
	VerifyPull    VerifyKind = "pull"
	VerifyEmail   VerifyKind = "email"
	VerifyNone    VerifyKind = "none"
)

// ToolHost is the boundary to the process that owns the tools.
type ToolHost interface {
	// ListTools returns the descriptors of every advertised tool, in host order.
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	// CallTool invokes one tool. A nil result means the tool produced no text.
	CallTool(ctx context.Context, name string, args map[string]any) (*string, error)
}
