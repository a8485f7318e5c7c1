// Package stringutil provides small string helpers shared by the CLI
// rendering layer.
package stringutil

import "unicode/utf8"

// Ellipsis truncates s to at most max runes, appending "..." when
// truncation happens. Values of max below 4 return the bare truncation.
func Ellipsis(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// FirstNonEmpty returns the first non-empty string among the arguments.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
