package queue

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const previewLen = 100

// Preview shortens s to at most maxLen bytes plus an ellipsis, cutting at the
// last word boundary when one is close enough to avoid mid-word breaks.
func Preview(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}

	truncated := s[:maxLen]
	if idx := strings.LastIndexFunc(truncated, unicode.IsSpace); idx > 0 && idx > maxLen-20 {
		truncated = truncated[:idx]
	}
	// don't split a multi-byte rune
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return strings.TrimSpace(truncated) + "..."
}
