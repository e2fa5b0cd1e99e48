// Package utils holds small helpers shared by the dashboard packages.
package utils

import "unicode/utf8"

// Truncate shortens s to maxLen runes and appends "..." when it cut anything.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
