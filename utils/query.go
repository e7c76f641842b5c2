package utils

import "strings"

// NormalizeQuery trims surrounding whitespace from a search value.
// Two values that normalize to the same string are the same search.
func NormalizeQuery(value string) string {
	return strings.TrimSpace(value)
}

// IsBlank reports whether value is empty after trimming
func IsBlank(value string) bool {
	return NormalizeQuery(value) == ""
}
