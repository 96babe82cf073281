// Package strings holds small helpers for rendering values in terminal
// tables.
package strings

import (
	"strings"
)

// DefaultCellMaxLen is the widest table cell rendered by the CLI.
const DefaultCellMaxLen = 60

// MinTruncateLen is the smallest maxLen accepted by TruncateCell.
const MinTruncateLen = 4

// googleScopePrefix is stripped by CompactScope.
const googleScopePrefix = "https://www.googleapis.com/auth/"

// TruncateCell collapses whitespace in s and cuts it to maxLen runes,
// ending in "..." when cut. maxLen below MinTruncateLen is raised to it.
func TruncateCell(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// CompactScope shortens a space separated scope list for display by
// dropping the common Google URL prefix from each entry.
func CompactScope(scope string) string {
	parts := strings.Fields(scope)
	for i, p := range parts {
		parts[i] = strings.TrimPrefix(p, googleScopePrefix)
	}
	return strings.Join(parts, " ")
}
