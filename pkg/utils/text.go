// Package utils provides shared utilities for text and logging.
package utils

import (
	"regexp"
	"strings"
)

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes HTML-like tags from s, replacing each with a single space,
// and collapses runs of whitespace. The input is not required to be well-formed.
func StripTags(s string) string {
	plain := tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(plain), " ")
}

// FirstNonEmptyLine returns the first line of s with non-blank content, trimmed.
func FirstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}
