package utils

import (
	"unicode/utf8"
)

// Truncate shortens text to at most max bytes, backing off so the result
// remains valid UTF-8. max <= 0 means no limit.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	truncated := text[:max]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}

// SanitizeUTF8 strips invalid UTF-8 sequences from text. Collector input
// crosses a JSON boundary and may carry mangled bytes from page encodings.
func SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				continue
			}
		}
		result = append(result, r)
	}
	return string(result)
}
