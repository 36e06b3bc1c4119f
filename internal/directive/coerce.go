package directive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

var (
	// ErrArgument is the class of every coercion failure.
	ErrArgument = errors.New("argument error")
	// ErrInsufficientArgs means the call carried fewer raw arguments than the
	// tool declares parameters.
	ErrInsufficientArgs = errors.New("insufficient arguments")
	// ErrArgumentType means a raw argument could not be parsed as its
	// parameter's declared kind.
	ErrArgumentType = errors.New("argument type error")
)

// ArgumentError reports why a tool's raw arguments could not be coerced.
type ArgumentError struct {
	Tool  string
	Param string
	Value string
	Err   error
}

func (e *ArgumentError) Error() string {
	if errors.Is(e.Err, ErrInsufficientArgs) {
		return fmt.Sprintf("insufficient arguments for tool %s", e.Tool)
	}
	return fmt.Sprintf("tool %s: parameter %s: cannot use %q: %v", e.Tool, e.Param, e.Value, e.Err)
}

func (e *ArgumentError) Unwrap() []error { return []error{ErrArgument, e.Err} }

// Coerce maps raw argument strings onto desc's parameters in declared order.
// Extra raw arguments are ignored. On any failure no mapping is returned.
func Coerce(desc schema.ToolDescriptor, raw []string) (map[string]any, error) {
	if len(raw) < len(desc.Params) {
		return nil, &ArgumentError{Tool: desc.Name, Err: ErrInsufficientArgs}
	}

	args := make(map[string]any, len(desc.Params))
	for i, p := range desc.Params {
		v, err := coerceOne(p.Kind, raw[i])
		if err != nil {
			return nil, &ArgumentError{Tool: desc.Name, Param: p.Name, Value: raw[i], Err: err}
		}
		args[p.Name] = v
	}
	return args, nil
}

func coerceOne(kind schema.ParamKind, s string) (any, error) {
	switch kind {
	case schema.KindInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: not an integer", ErrArgumentType)
		}
		return n, nil
	case schema.KindNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: not a number", ErrArgumentType)
		}
		return f, nil
	case schema.KindIntArray:
		elems := splitList(s)
		out := make([]int64, 0, len(elems))
		for _, e := range elems {
			n, err := strconv.ParseInt(e, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: element %q is not an integer", ErrArgumentType, e)
			}
			out = append(out, n)
		}
		return out, nil
	case schema.KindStringArray:
		elems := splitList(s)
		out := make([]string, 0, len(elems))
		for _, e := range elems {
			out = append(out, unquote(e))
		}
		return out, nil
	default:
		return s, nil
	}
}

// splitList strips one leading '[' and one trailing ']' and splits the rest
// on commas. An empty list body yields no elements.
func splitList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
