package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FormatArgs renders an argument mapping with keys in sorted order so that
// the same arguments always produce the same history text.
func FormatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strconv.Quote(k)+": "+formatValue(args[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatValue quotes strings and renders lists as [a, b] so element
// boundaries survive in history text.
func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case []string:
		elems := make([]string, len(v))
		for i, e := range v {
			elems[i] = strconv.Quote(e)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case []int64:
		elems := make([]string, len(v))
		for i, e := range v {
			elems[i] = strconv.FormatInt(e, 10)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case []any:
		elems := make([]string, len(v))
		for i, e := range v {
			elems[i] = formatValue(e)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
