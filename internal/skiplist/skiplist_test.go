package skiplist

import (
	"testing"

	"go.uber.org/zap"
)

func TestIsSkipped(t *testing.T) {
	t.Parallel()

	checker := NewChecker([]string{"Example.com", " internal.corp ", ""}, zap.NewNop())

	testCases := []struct {
		name     string
		hostname string
		expected bool
	}{
		{"exact match", "example.com", true},
		{"case-insensitive match", "EXAMPLE.COM", true},
		{"subdomain match", "shop.example.com", true},
		{"deep subdomain match", "a.b.internal.corp", true},
		{"suffix without dot boundary", "notexample.com", false},
		{"unrelated host", "other.org", false},
		{"empty hostname", "", false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := checker.IsSkipped(tc.hostname); got != tc.expected {
				t.Errorf("IsSkipped(%q) = %v, expected %v", tc.hostname, got, tc.expected)
			}
		})
	}
}

func TestEmptyListSkipsNothing(t *testing.T) {
	t.Parallel()

	checker := NewChecker(nil, zap.NewNop())
	if checker.IsSkipped("example.com") {
		t.Error("empty list must skip nothing")
	}
}
