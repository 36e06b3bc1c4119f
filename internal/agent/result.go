package agent

import (
	"time"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

// Outcome is how a run ended.
type Outcome int

const (
	// OutcomeTerminal: the model emitted FINAL_ANSWER.
	OutcomeTerminal Outcome = iota
	// OutcomeAborted: a parse, argument, lookup, invocation or model error
	// stopped the run.
	OutcomeAborted
	// OutcomeInconclusive: the iteration budget ran out.
	OutcomeInconclusive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTerminal:
		return "terminal"
	case OutcomeAborted:
		return "aborted"
	default:
		return "inconclusive"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) Outcome {
	switch s {
	case "terminal":
		return OutcomeTerminal
	case "aborted":
		return OutcomeAborted
	default:
		return OutcomeInconclusive
	}
}

// RunResult is the final state of one run. Callers inspect Outcome to tell a
// finished task from one that gave up.
type RunResult struct {
	ID       string
	Task     string
	Outcome  Outcome
	Status   string
	History  []schema.TurnRecord
	Err      error
	Started  time.Time
	Finished time.Time
}

func (r RunResult) Succeeded() bool { return r.Outcome == OutcomeTerminal }
