package host

import (
	"fmt"
	"strings"
)

// stringArg reads a required string argument.
func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// stringsArg reads a list argument. JSON transports deliver []any, in-process
// callers []string; a bare string is split on commas.
func stringsArg(args map[string]any, name string) ([]string, error) {
	v, ok := args[name]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", name)
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			out = append(out, fmt.Sprint(e))
		}
		return out, nil
	case string:
		var out []string
		for _, p := range strings.Split(strings.Trim(list, "[]"), ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %q: expected a list, got %T", name, v)
	}
}
