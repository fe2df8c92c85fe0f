// Package normalize cleans user-supplied strings before validation and storage.
package normalize

import (
	"strings"
	"unicode/utf8"
)

// Email returns a normalized form of an email address suitable for
// storage and comparisons. Normalization currently trims surrounding
// whitespace and lower-cases the address.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Text trims surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// Len counts characters, not bytes, so limits apply to what a user typed.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Header reduces a request header value to a single trimmed line.
func Header(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
