package cmdutils

import (
	"fmt"
	"io"
	"time"

	"github.com/crystaldolphin/gitcourier/internal/agent"
)

const Logo = "📬"

// Mark renders a check for ok and a cross otherwise.
func Mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// PrintRun writes a finished run: header, optionally the turn history, then
// the final status or the reason the run stopped.
func PrintRun(w io.Writer, res agent.RunResult, turns bool) {
	fmt.Fprintf(w, "\n%s run %s (%s, %s)\n", Logo, res.ID, res.Outcome, res.Finished.Sub(res.Started).Round(time.Millisecond))
	if turns {
		for _, t := range res.History {
			fmt.Fprintf(w, "  %s\n", t.String())
		}
	}
	switch {
	case res.Status != "":
		fmt.Fprintf(w, "Status: %s\n", res.Status)
	case res.Err != nil:
		fmt.Fprintf(w, "Error:  %v\n", res.Err)
	default:
		fmt.Fprintln(w, "No final answer within the iteration budget.")
	}
}
