package schema

import "fmt"

// InvocationResult is the outcome of one tool call within a turn.
// Text is nil when the tool produced no textual payload.
type InvocationResult struct {
	ToolName  string
	Arguments map[string]any
	Text      *string
}

// TurnRecord is one entry of the run history. Err is set instead of Result
// when the turn failed during execution.
type TurnRecord struct {
	Iteration int
	ToolName  string
	Arguments map[string]any
	Result    *string
	Err       string
}

// Failed reports whether the record describes a failed turn.
func (r TurnRecord) Failed() bool { return r.Err != "" }

// String renders the record the way it is fed back to the model.
func (r TurnRecord) String() string {
	if r.Failed() {
		return fmt.Sprintf("Error in iteration %d: %s", r.Iteration, r.Err)
	}
	result := "None"
	if r.Result != nil {
		result = *r.Result
	}
	return fmt.Sprintf("Iteration %d: Called %s with %s, result: %s.", r.Iteration, r.ToolName, FormatArgs(r.Arguments), result)
}
