package utils

import "strings"

// Truncate shortens s to at most maxLen runes, appending "..." when cut.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// OneLine collapses every run of whitespace, newlines included, to a single
// space. Used for previews of multi-line passages.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
