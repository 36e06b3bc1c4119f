// Package providers implements schema.Model for the supported LLM backends:
// Gemini through its SDK (gemini.go) and every OpenAI-compatible endpoint over
// plain HTTP (openai.go).
package providers

import (
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is returned when a provider answers with a non-200 status.
type HTTPError struct {
	Code int
	Body string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

func newHTTPError(code int, body []byte) *HTTPError {
	return &HTTPError{Code: code, Body: friendlyHTTPError(code, body)}
}

func friendlyHTTPError(code int, body []byte) string {
	if code == http.StatusTooManyRequests {
		return "rate limit exceeded"
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
