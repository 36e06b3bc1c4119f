package agent

import (
	"strings"

	"github.com/crystaldolphin/gitcourier/internal/tools"
)

// DefaultInstructions is the system prompt preamble. The tool list is
// appended below it.
const DefaultInstructions = `You are a git agent that carries out repository tasks one step at a time, verifying every step before moving on.

RESPONSE FORMAT
Reply with exactly ONE of:
1. FUNCTION_CALL: function_name|input
2. FINAL_ANSWER: [status]

function_name must be one of the allowed functions below and input is its argument.
Separate multiple arguments with |. [status] is a short human-readable outcome,
for example [Success] or [Uncertain - please check manually].

REASONING
Before a FUNCTION_CALL you may add one line: [Reasoning: <type>] <why this step is needed>.

VERIFICATION
After a function returns, call FUNCTION_CALL: verify|<result> with the result text unchanged
and continue only once it reports Verification Passed. If verification fails, retry once
with revised input, then give up with FINAL_ANSWER: [Uncertain - please check manually].

Take one action per response and use earlier results as context.`

// PromptBuilder renders the prompt of each turn from the tool list, the task
// and the run's history.
type PromptBuilder struct {
	system string
}

// NewPromptBuilder fixes the system section: instructions followed by the
// numbered tool list.
func NewPromptBuilder(registry *tools.Registry, instructions string) *PromptBuilder {
	if instructions == "" {
		instructions = DefaultInstructions
	}
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nALLOWED FUNCTIONS\n")
	sb.WriteString(registry.Describe())
	return &PromptBuilder{system: sb.String()}
}

func (b *PromptBuilder) System() string { return b.system }

// Build renders one turn's prompt. History is included once it is non-empty.
func (b *PromptBuilder) Build(task string, history *History) string {
	var sb strings.Builder
	sb.WriteString(b.system)
	sb.WriteString("\n\nQuery: ")
	sb.WriteString(task)
	if history != nil && history.Len() > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(history.Render())
		sb.WriteString("\n\nWhat should I do next?")
	}
	return sb.String()
}
