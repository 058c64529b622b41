package core

import (
	"regexp"
	"strings"

	"github.com/pagesentry/pagesentry/internal/utils"
)

// Selector syntax accepted by MatchSelector. This is deliberately a tiny
// subset of CSS; anything else falls through to exact tag comparison.
var (
	attrSelectorRe    = regexp.MustCompile(`^\[([A-Za-z][\w-]*)(?:(\*?)=["']?([^"'\]]*)["']?)?\]$`)
	tagAttrSelectorRe = regexp.MustCompile(`^([a-z][a-z0-9-]*)\[([A-Za-z][\w-]*)\*=["']?([^"'\]]*)["']?\]$`)
	bareTagRe         = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// MatchSelector reports whether an element record satisfies a selector.
//
// Supported forms, tried in this order; the first form whose syntax
// applies decides the result:
//
//	.class          class attribute contains the token as a substring
//	#id             exact id equality
//	[attr]          attribute present
//	[attr="v"]      attribute equals v
//	[attr*="v"]     attribute contains v
//	tag[attr*="v"]  tag equality and attribute contains v
//	tag             exact tag equality (bare lowercase word)
//
// Anything else compares the whole selector string against the element's
// tag. Class matching is substring containment rather than exact token
// matching; rules written against generated class names rely on it.
func MatchSelector(el *ElementRecord, selector string) bool {
	switch {
	case strings.HasPrefix(selector, "."):
		token := selector[1:]
		if token == "" {
			return false
		}
		class, ok := elementAttribute(el, "class")
		return ok && strings.Contains(class, token)

	case strings.HasPrefix(selector, "#"):
		want := selector[1:]
		if want == "" {
			return false
		}
		id, ok := elementAttribute(el, "id")
		return ok && id == want

	case attrSelectorRe.MatchString(selector):
		m := attrSelectorRe.FindStringSubmatch(selector)
		name, op, want := m[1], m[2], m[3]
		got, ok := elementAttribute(el, name)
		if !ok {
			return false
		}
		if !strings.Contains(selector, "=") {
			return true // presence only
		}
		if op == "*" {
			return strings.Contains(got, want)
		}
		return got == want

	case tagAttrSelectorRe.MatchString(selector):
		m := tagAttrSelectorRe.FindStringSubmatch(selector)
		tag, name, want := m[1], m[2], m[3]
		if el.Selector != tag {
			return false
		}
		got, ok := elementAttribute(el, name)
		return ok && strings.Contains(got, want)

	case bareTagRe.MatchString(selector):
		return el.Selector == selector

	default:
		return el.Selector == selector
	}
}

// elementAttribute looks up an attribute by name, falling back from the
// Attributes map to the same-named top-level field on the record.
func elementAttribute(el *ElementRecord, name string) (string, bool) {
	if v, ok := el.Attributes[name]; ok && v != "" {
		return v, true
	}
	switch name {
	case "id":
		if el.ID != "" {
			return el.ID, true
		}
	case "class":
		if el.Class != "" {
			return el.Class, true
		}
	case "src":
		if el.Src != "" {
			return el.Src, true
		}
	case "action":
		if el.Action != "" {
			return el.Action, true
		}
	}
	return "", false
}

// elementPreview builds a short, human-readable descriptor of an element
// for match output, truncated to at most max bytes on a rune boundary.
func elementPreview(el *ElementRecord, max int) string {
	var b strings.Builder
	b.WriteString(el.Selector)
	if el.ID != "" {
		b.WriteString("#" + el.ID)
	}
	if el.Class != "" {
		b.WriteString("." + el.Class)
	}
	if el.Src != "" {
		b.WriteString(" src=" + el.Src)
	}
	return utils.Truncate(b.String(), max)
}
