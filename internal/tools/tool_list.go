package tools

import (
	"fmt"
	"strings"
)

// Describe renders the registry as the numbered tool list embedded in the
// system prompt, one "N. name(param: kind, ...) - description" line per tool.
func (r *Registry) Describe() string {
	var sb strings.Builder
	for i, d := range r.All() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s - %s", i+1, d.Signature(), d.Description)
	}
	return sb.String()
}
