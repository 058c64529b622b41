package core

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// PatternError reports a pattern that could not be evaluated, typically a
// regex that failed to compile. Rules are user-edited input, so evaluators
// convert this to "no match" at the boundary instead of aborting the run.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// fold lowercases text using Unicode case folding so that comparison is
// stable for non-ASCII rule patterns.
func fold(s string) string {
	return cases.Fold().String(s)
}

// MatchPattern compares text against a user-supplied pattern.
//
// Unless opts.CaseSensitive both sides are case-folded first. With
// opts.Regex the pattern is compiled as a regular expression; a compile
// failure returns (false, *PatternError). With opts.WholeWord the escaped
// literal is wrapped in word boundaries. Otherwise plain substring
// containment applies.
//
// Go's regexp engine is RE2, so pathological user patterns cannot cause
// backtracking blowups; evaluation time stays linear in the input.
func MatchPattern(text, pattern string, opts MatchOptions) (bool, error) {
	if !opts.CaseSensitive {
		text = fold(text)
		pattern = fold(pattern)
	}

	switch {
	case opts.Regex:
		expr := pattern
		if !opts.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return false, &PatternError{Pattern: pattern, Err: err}
		}
		return re.MatchString(text), nil
	case opts.WholeWord:
		// The literal is escaped, so compilation cannot fail.
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(pattern) + `\b`)
		return re.MatchString(text), nil
	default:
		return strings.Contains(text, pattern), nil
	}
}
