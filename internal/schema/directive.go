package schema

// DirectiveKind tags the variant held by a Directive.
type DirectiveKind int

const (
	DirectiveUnrecognized DirectiveKind = iota
	DirectiveCall
	DirectiveTerminal
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveCall:
		return "call"
	case DirectiveTerminal:
		return "terminal"
	default:
		return "unrecognized"
	}
}

// Directive is the one instruction extracted from a model response.
//
// Call uses ToolName and RawArgs, Terminal uses Status and Unrecognized keeps
// the offending text in RawLine.
type Directive struct {
	Kind     DirectiveKind
	ToolName string
	RawArgs  []string
	Status   string
	RawLine  string
}

// NewCall builds a Call directive.
func NewCall(tool string, args []string) Directive {
	return Directive{Kind: DirectiveCall, ToolName: tool, RawArgs: args}
}

// NewTerminal builds a Terminal directive.
func NewTerminal(status string) Directive {
	return Directive{Kind: DirectiveTerminal, Status: status}
}

// NewUnrecognized builds an Unrecognized directive.
func NewUnrecognized(raw string) Directive {
	return Directive{Kind: DirectiveUnrecognized, RawLine: raw}
}
