package agent

import (
	"strings"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

// History is the append-only record of one run's turns. It is owned by the
// run that created it and fed back to the model on every prompt.
type History struct {
	records []schema.TurnRecord
}

func NewHistory() *History { return &History{} }

func (h *History) Append(r schema.TurnRecord) { h.records = append(h.records, r) }

func (h *History) Len() int { return len(h.records) }

// Records returns a copy of the recorded turns.
func (h *History) Records() []schema.TurnRecord {
	out := make([]schema.TurnRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Render joins the records, one per line, in the form the model sees.
func (h *History) Render() string {
	lines := make([]string, 0, len(h.records))
	for _, r := range h.records {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}
