package utils

import (
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		text     string
		max      int
		expected string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"exactly at limit", "hello", 5, "hello"},
		{"over limit", "hello world", 5, "hello"},
		{"no limit", "hello", 0, "hello"},
		{"negative limit", "hello", -1, "hello"},
		{"empty", "", 5, ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tc.text, tc.max); got != tc.expected {
				t.Errorf("Truncate(%q, %d) = %q, expected %q", tc.text, tc.max, got, tc.expected)
			}
		})
	}
}

func TestTruncateMultibyteBoundary(t *testing.T) {
	t.Parallel()

	// "héllo" is 6 bytes; cutting at 2 would split the é.
	got := Truncate("héllo", 2)
	if !utf8.ValidString(got) {
		t.Errorf("Truncate produced invalid UTF-8: %q", got)
	}
	if got != "h" {
		t.Errorf("Truncate = %q, expected %q", got, "h")
	}
}

func TestSanitizeUTF8(t *testing.T) {
	t.Parallel()

	if got := SanitizeUTF8("clean text"); got != "clean text" {
		t.Errorf("valid input changed: %q", got)
	}

	dirty := "bad" + string([]byte{0xff, 0xfe}) + "bytes"
	got := SanitizeUTF8(dirty)
	if !utf8.ValidString(got) {
		t.Errorf("output is not valid UTF-8: %q", got)
	}
	if got != "badbytes" {
		t.Errorf("SanitizeUTF8 = %q, expected %q", got, "badbytes")
	}

	// A genuine replacement character is preserved.
	if got := SanitizeUTF8("a�b"); got != "a�b" {
		t.Errorf("replacement rune dropped: %q", got)
	}
}
