package verify

import "strings"

// IsProbablePath reports whether s looks like a filesystem path: it has a
// parent other than the current directory, or its final segment carries a
// file-extension suffix. Redundant separators and "." segments are ignored,
// so "a/" and "./a" are single-segment names.
func IsProbablePath(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "/") {
		return true
	}

	var parts []string
	for _, p := range strings.Split(s, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 {
		return true
	}
	if len(parts) == 0 {
		return false
	}
	return hasSuffix(parts[0])
}

// hasSuffix reports whether name has an extension: a dot that is neither the
// first nor the last character.
func hasSuffix(name string) bool {
	i := strings.LastIndexByte(name, '.')
	return i > 0 && i < len(name)-1
}
