// Package directive turns raw model output into structured directives and
// coerces directive arguments into the types a tool declares.
//
// Protocol (one directive per response, first marker line wins):
//
//	FUNCTION_CALL: tool_name|arg1|arg2
//	FUNCTION_CALL|tool_name|arg1
//	FINAL_ANSWER: [status text]
package directive

import (
	"strings"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

const (
	CallMarkerColon = "FUNCTION_CALL:"
	CallMarkerPipe  = "FUNCTION_CALL|"
	TerminalMarker  = "FINAL_ANSWER:"

	// FieldDelimiter separates the tool name and arguments on a call line.
	FieldDelimiter = "|"
)

// Parse scans text line by line and returns the directive of the first line
// carrying a call or terminal marker. Every other line is discarded.
func Parse(text string) schema.Directive {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, CallMarkerColon):
			return parseCall(line[len(CallMarkerColon):])
		case strings.HasPrefix(line, CallMarkerPipe):
			return parseCall(line[len(CallMarkerPipe):])
		case strings.HasPrefix(line, TerminalMarker):
			return schema.NewTerminal(strings.TrimSpace(line[len(TerminalMarker):]))
		}
	}

	return schema.NewUnrecognized(strings.TrimSpace(text))
}

// parseCall splits the text after a call marker into tool name and raw
// arguments. Field count is not checked here; the coercer does that.
func parseCall(body string) schema.Directive {
	fields := strings.Split(body, FieldDelimiter)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return schema.NewCall(fields[0], fields[1:])
}
