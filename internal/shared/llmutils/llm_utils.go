// Package llmutils holds small text helpers for model input and output.
package llmutils

import "regexp"

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate keeps at most n runes of s and marks the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// StripThink drops <think>...</think> reasoning blocks so markers inside them
// are never parsed as directives.
func StripThink(s string) string {
	return thinkBlock.ReplaceAllString(s, "")
}

// StringOrDefault returns s, or def when s is empty.
func StringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
