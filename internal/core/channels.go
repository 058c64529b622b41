package core

import (
	"fmt"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/utils"
)

// previewLimit caps the matched-context string recorded on a Match.
const previewLimit = 50

// ChannelEvaluator applies one channel's rule list from a detector to a
// signal bundle. Evaluators are independent; no channel short-circuits
// another.
type ChannelEvaluator interface {
	// Channel returns the channel name this evaluator covers.
	Channel() string

	// Evaluate returns one Match per rule pattern that hits the bundle.
	Evaluate(bundle *SignalBundle, rules *DetectionRules) []Match
}

// newChannelEvaluators returns the five built-in evaluators.
func newChannelEvaluators(logger *zap.Logger) []ChannelEvaluator {
	return []ChannelEvaluator{
		&urlEvaluator{logger: logger},
		&headerEvaluator{logger: logger},
		&cookieEvaluator{logger: logger},
		&contentEvaluator{logger: logger},
		&domEvaluator{},
	}
}

// matchOrFalse evaluates a pattern and converts pattern errors to "no
// match". Malformed user rules must never abort a run; the warning is the
// only trace they leave.
func matchOrFalse(logger *zap.Logger, channel, text, pattern string, opts MatchOptions) bool {
	ok, err := MatchPattern(text, pattern, opts)
	if err != nil {
		logger.Warn("Skipping unmatchable rule pattern",
			zap.String("channel", channel),
			zap.String("pattern", pattern),
			zap.Error(err))
		return false
	}
	return ok
}

// urlEvaluator matches URL patterns against the page URL and every script
// source URL. A pattern contributes at most one match even when several
// URLs satisfy it, and duplicate patterns in the rule list are suppressed.
type urlEvaluator struct {
	logger *zap.Logger
}

func (e *urlEvaluator) Channel() string { return ChannelURLs }

func (e *urlEvaluator) Evaluate(bundle *SignalBundle, rules *DetectionRules) []Match {
	if len(rules.URLs) == 0 {
		return nil
	}

	candidates := make([]string, 0, 1+len(bundle.Content))
	if bundle.URL != "" {
		candidates = append(candidates, bundle.URL)
	}
	for _, entry := range bundle.Content {
		if entry.Src != "" {
			candidates = append(candidates, entry.Src)
		}
	}

	var matches []Match
	seen := make(map[string]bool, len(rules.URLs))
	for _, p := range rules.URLs {
		if seen[p.Pattern] {
			continue
		}
		for _, url := range candidates {
			if matchOrFalse(e.logger, ChannelURLs, url, p.Pattern, p.Options) {
				seen[p.Pattern] = true
				matches = append(matches, Match{
					Channel:     ChannelURLs,
					Pattern:     p.Pattern,
					Value:       utils.Truncate(url, previewLimit*2),
					Confidence:  p.Confidence,
					Description: p.Description,
				})
				break
			}
		}
	}
	return matches
}

// headerEvaluator matches header patterns against the header map. For a
// given pattern the scan stops at the first header whose name matches,
// whether or not its value also does; a later header that would match
// better is never considered. Header names are visited in sorted order so
// this contract stays reproducible across runs.
type headerEvaluator struct {
	logger *zap.Logger
}

func (e *headerEvaluator) Channel() string { return ChannelHeaders }

func (e *headerEvaluator) Evaluate(bundle *SignalBundle, rules *DetectionRules) []Match {
	if len(rules.Headers) == 0 || len(bundle.Headers) == 0 {
		return nil
	}

	names := make([]string, 0, len(bundle.Headers))
	for name := range bundle.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var matches []Match
	for _, p := range rules.Headers {
		for _, name := range names {
			if !matchOrFalse(e.logger, ChannelHeaders, name, p.Name, p.NameOptions) {
				continue
			}
			value := bundle.Headers[name]
			if p.Value == "" || matchOrFalse(e.logger, ChannelHeaders, value, p.Value, p.ValueOptions) {
				matches = append(matches, Match{
					Channel:     ChannelHeaders,
					Pattern:     p.Name,
					Value:       utils.Truncate(fmt.Sprintf("%s: %s", name, value), previewLimit*2),
					Confidence:  p.Confidence,
					Description: p.Description,
				})
			}
			break
		}
	}
	return matches
}

// cookieEvaluator matches cookie patterns. The name pattern must hit, and
// when a value pattern is present it must hit on the same cookie. The scan
// stops at the first cookie that satisfies the whole pattern.
type cookieEvaluator struct {
	logger *zap.Logger
}

func (e *cookieEvaluator) Channel() string { return ChannelCookies }

func (e *cookieEvaluator) Evaluate(bundle *SignalBundle, rules *DetectionRules) []Match {
	if len(rules.Cookies) == 0 || len(bundle.Cookies) == 0 {
		return nil
	}

	var matches []Match
	for _, p := range rules.Cookies {
		for _, cookie := range bundle.Cookies {
			if !matchOrFalse(e.logger, ChannelCookies, cookie.Name, p.Name, p.NameOptions) {
				continue
			}
			if p.Value != "" && !matchOrFalse(e.logger, ChannelCookies, cookie.Value, p.Value, p.ValueOptions) {
				continue
			}
			matches = append(matches, Match{
				Channel:     ChannelCookies,
				Pattern:     p.Name,
				Value:       utils.Truncate(cookie.Name+"="+cookie.Value, previewLimit*2),
				Confidence:  p.Confidence,
				Description: p.Description,
			})
			break
		}
	}
	return matches
}

// Attribute extraction for scoped content matching.
var (
	classAttrRe = regexp.MustCompile(`class\s*=\s*["']([^"']*)["']`)
	valueAttrRe = regexp.MustCompile(`(?:value|data-[\w-]+)\s*=\s*["']([^"']*)["']`)
)

// contentEvaluator matches content patterns against rendered HTML and
// supplied resource bodies. With no scope flags set the whole page is
// searched first, then each external resource in order. With scope flags
// the search is restricted to script bodies/srcs, class attribute values,
// or value/data-* attribute values. Either way a pattern yields at most
// one match, taken from the first text that hits.
type contentEvaluator struct {
	logger *zap.Logger
}

func (e *contentEvaluator) Channel() string { return ChannelContent }

// contentCandidate is one searchable text with a label describing where it
// came from, recorded as the match context.
type contentCandidate struct {
	label string
	text  string
}

func (e *contentEvaluator) Evaluate(bundle *SignalBundle, rules *DetectionRules) []Match {
	if len(rules.Content) == 0 {
		return nil
	}

	var matches []Match
	for _, p := range rules.Content {
		var candidates []contentCandidate
		if p.CheckScripts || p.CheckClasses || p.CheckValues {
			candidates = e.scopedCandidates(bundle, &p)
		} else {
			if bundle.PageHTML != "" {
				candidates = append(candidates, contentCandidate{label: "pageHTML", text: bundle.PageHTML})
			}
			for _, res := range bundle.ExternalContent {
				candidates = append(candidates, contentCandidate{label: res.URL, text: res.Content})
			}
		}

		for _, c := range candidates {
			if matchOrFalse(e.logger, ChannelContent, c.text, p.Pattern, p.Options) {
				matches = append(matches, Match{
					Channel:     ChannelContent,
					Pattern:     p.Pattern,
					Value:       utils.Truncate(c.label, previewLimit*2),
					Confidence:  p.Confidence,
					Description: p.Description,
				})
				break
			}
		}
	}
	return matches
}

// scopedCandidates collects the searchable texts for a pattern's scope
// flags, in scripts, classes, values order.
func (e *contentEvaluator) scopedCandidates(bundle *SignalBundle, p *ContentPattern) []contentCandidate {
	var candidates []contentCandidate

	if p.CheckScripts {
		for _, entry := range bundle.Content {
			if entry.Content != "" {
				candidates = append(candidates, contentCandidate{label: "script:inline", text: entry.Content})
			}
			if entry.Src != "" {
				candidates = append(candidates, contentCandidate{label: entry.Src, text: entry.Src})
			}
		}
		for _, res := range bundle.ExternalContent {
			if res.Type == "script" {
				candidates = append(candidates, contentCandidate{label: res.URL, text: res.Content})
			}
		}
	}
	if p.CheckClasses {
		for _, m := range classAttrRe.FindAllStringSubmatch(bundle.PageHTML, -1) {
			candidates = append(candidates, contentCandidate{label: "class:" + m[1], text: m[1]})
		}
	}
	if p.CheckValues {
		for _, m := range valueAttrRe.FindAllStringSubmatch(bundle.PageHTML, -1) {
			candidates = append(candidates, contentCandidate{label: "value:" + m[1], text: m[1]})
		}
	}
	return candidates
}

// domEvaluator matches DOM selectors against the flattened element
// records. Each pattern records the first element that satisfies its
// selector, with a short element preview as the match context.
type domEvaluator struct{}

func (e *domEvaluator) Channel() string { return ChannelDOM }

func (e *domEvaluator) Evaluate(bundle *SignalBundle, rules *DetectionRules) []Match {
	if len(rules.DOM) == 0 || len(bundle.DOM) == 0 {
		return nil
	}

	var matches []Match
	for _, p := range rules.DOM {
		for i := range bundle.DOM {
			el := &bundle.DOM[i]
			if MatchSelector(el, p.Selector) {
				matches = append(matches, Match{
					Channel:     ChannelDOM,
					Pattern:     p.Selector,
					Value:       elementPreview(el, previewLimit),
					Confidence:  p.Confidence,
					Description: p.Description,
				})
				break
			}
		}
	}
	return matches
}
