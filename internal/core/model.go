package core

import (
	"time"
)

// Channel names used by detector rules and matches.
const (
	ChannelURLs    = "urls"
	ChannelHeaders = "headers"
	ChannelCookies = "cookies"
	ChannelContent = "content"
	ChannelDOM     = "dom"
)

// MatchOptions controls how a single pattern is compared against text.
// The zero value means case-insensitive substring containment.
type MatchOptions struct {
	Regex         bool `yaml:"regex" json:"regex,omitempty"`
	WholeWord     bool `yaml:"wholeWord" json:"wholeWord,omitempty"`
	CaseSensitive bool `yaml:"caseSensitive" json:"caseSensitive,omitempty"`
}

// URLPattern matches against the page URL and script source URLs.
type URLPattern struct {
	Pattern     string       `yaml:"pattern" json:"pattern"`
	Confidence  int          `yaml:"confidence" json:"confidence"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Options     MatchOptions `yaml:"options,omitempty" json:"options,omitempty"`
}

// HeaderPattern matches a header name, and optionally its value.
type HeaderPattern struct {
	Name         string       `yaml:"name" json:"name"`
	Value        string       `yaml:"value,omitempty" json:"value,omitempty"`
	Confidence   int          `yaml:"confidence" json:"confidence"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	NameOptions  MatchOptions `yaml:"nameOptions,omitempty" json:"nameOptions,omitempty"`
	ValueOptions MatchOptions `yaml:"valueOptions,omitempty" json:"valueOptions,omitempty"`
}

// CookiePattern matches a cookie name, and optionally its value. When a
// value pattern is present both must match on the same cookie.
type CookiePattern struct {
	Name         string       `yaml:"name" json:"name"`
	Value        string       `yaml:"value,omitempty" json:"value,omitempty"`
	Confidence   int          `yaml:"confidence" json:"confidence"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	NameOptions  MatchOptions `yaml:"nameOptions,omitempty" json:"nameOptions,omitempty"`
	ValueOptions MatchOptions `yaml:"valueOptions,omitempty" json:"valueOptions,omitempty"`
}

// ContentPattern matches page HTML and fetched resource bodies. The check
// flags restrict the search to script bodies, class attribute values, or
// value/data-* attribute values; with none set the whole page is searched.
type ContentPattern struct {
	Pattern      string       `yaml:"pattern" json:"pattern"`
	Confidence   int          `yaml:"confidence" json:"confidence"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	Options      MatchOptions `yaml:"options,omitempty" json:"options,omitempty"`
	CheckScripts bool         `yaml:"checkScripts,omitempty" json:"checkScripts,omitempty"`
	CheckClasses bool         `yaml:"checkClasses,omitempty" json:"checkClasses,omitempty"`
	CheckValues  bool         `yaml:"checkValues,omitempty" json:"checkValues,omitempty"`
}

// DOMPattern matches flattened element records with a small CSS selector
// subset (see MatchSelector for the supported forms).
type DOMPattern struct {
	Selector    string `yaml:"selector" json:"selector"`
	Confidence  int    `yaml:"confidence" json:"confidence"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// DetectionRules holds a detector's per-channel pattern lists. Order within
// each list is preserved from the catalog.
type DetectionRules struct {
	URLs    []URLPattern     `yaml:"urls,omitempty" json:"urls,omitempty"`
	Headers []HeaderPattern  `yaml:"headers,omitempty" json:"headers,omitempty"`
	Cookies []CookiePattern  `yaml:"cookies,omitempty" json:"cookies,omitempty"`
	Content []ContentPattern `yaml:"content,omitempty" json:"content,omitempty"`
	DOM     []DOMPattern     `yaml:"dom,omitempty" json:"dom,omitempty"`
}

// Empty reports whether no channel carries any pattern.
func (r *DetectionRules) Empty() bool {
	return len(r.URLs) == 0 && len(r.Headers) == 0 && len(r.Cookies) == 0 &&
		len(r.Content) == 0 && len(r.DOM) == 0
}

// Detector is one user-editable detection rule: the signature of a single
// vendor or product. Color and Icon are presentation-only pass-through.
type Detector struct {
	ID        string         `yaml:"id" json:"id"`
	Name      string         `yaml:"name" json:"name"`
	Category  string         `yaml:"category,omitempty" json:"category,omitempty"`
	Color     string         `yaml:"color,omitempty" json:"color,omitempty"`
	Icon      string         `yaml:"icon,omitempty" json:"icon,omitempty"`
	Enabled   bool           `yaml:"enabled" json:"enabled"`
	Detection DetectionRules `yaml:"detection" json:"detection"`
}

// Meta returns the presentation subset carried on detection results.
func (d *Detector) Meta() DetectorMeta {
	return DetectorMeta{
		ID:       d.ID,
		Name:     d.Name,
		Category: d.Category,
		Color:    d.Color,
		Icon:     d.Icon,
	}
}

// Category is a named, ordered group of detectors.
type Category struct {
	Name      string     `yaml:"name" json:"name"`
	Detectors []Detector `yaml:"detectors" json:"detectors"`
}

// Catalog is the full ordered rule set the engine iterates. Slices rather
// than maps so that engine output order always equals catalog order.
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`
}

// DetectorCount returns the total number of detectors across all categories.
func (c *Catalog) DetectorCount() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Detectors)
	}
	return n
}

// Cookie is one cookie observed on the analyzed page.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
}

// ContentEntry type values.
const (
	ContentInline   = "inline"
	ContentExternal = "external"
)

// ContentEntry is one script observed on the page, either inline source
// text or a reference to an external file.
type ContentEntry struct {
	Type    string `json:"type"`
	Src     string `json:"src,omitempty"`
	Content string `json:"content,omitempty"`
}

// ExternalResource is the body of an already-fetched external resource.
// The engine never fetches anything itself; callers supply these.
type ExternalResource struct {
	URL     string `json:"url"`
	Type    string `json:"type,omitempty"`
	Content string `json:"content"`
	Size    int    `json:"size,omitempty"`
}

// ElementRecord is a flattened descriptor of one DOM element, produced by
// the external collector and consumed read-only. Selector holds the tag
// name or a pseudo-tag such as iframe, form, or meta.
type ElementRecord struct {
	Selector   string            `json:"selector"`
	ID         string            `json:"id,omitempty"`
	Class      string            `json:"class,omitempty"`
	Src        string            `json:"src,omitempty"`
	Action     string            `json:"action,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SignalBundle is the immutable per-page snapshot fed into the engine.
// Missing optional fields (Headers, ExternalContent) are treated as empty.
type SignalBundle struct {
	URL             string             `json:"url"`
	Cookies         []Cookie           `json:"cookies,omitempty"`
	Content         []ContentEntry     `json:"content,omitempty"`
	DOM             []ElementRecord    `json:"dom,omitempty"`
	PageHTML        string             `json:"pageHTML,omitempty"`
	ExternalContent []ExternalResource `json:"externalContent,omitempty"`
	Headers         map[string]string  `json:"headers,omitempty"`
}

// Match is one successful pattern or selector hit within a channel.
type Match struct {
	Channel     string `json:"channel"`
	Pattern     string `json:"pattern"`
	Value       string `json:"value"`
	Confidence  int    `json:"confidence"`
	Description string `json:"description,omitempty"`
}

// DetectorMeta is the presentation subset of a Detector carried on results.
type DetectorMeta struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"`
	Icon     string `json:"icon,omitempty"`
}

// Detection is the per-detector aggregate result.
// Invariant: Detected == (Confidence > 0), and Matches is non-empty
// whenever Detected is true.
type Detection struct {
	Detector   DetectorMeta `json:"detector"`
	Matches    []Match      `json:"matches"`
	Confidence int          `json:"confidence"`
	Detected   bool         `json:"detected"`
}

// PageMeta is caller-supplied page presentation data stored with a cache
// entry alongside the detections.
type PageMeta struct {
	Hostname string `json:"hostname,omitempty"`
	Favicon  string `json:"favicon,omitempty"`
	Title    string `json:"title,omitempty"`
}

// IndexedMatch is one entry of a cache entry's per-channel match index.
type IndexedMatch struct {
	Pattern    string `json:"pattern"`
	Value      string `json:"value,omitempty"`
	Confidence int    `json:"confidence"`
	Detector   string `json:"detector"`
}

// CacheEntry is one persisted analysis result, keyed by URLHash.
//
// OverallConfidence is the page-level average of each Detection's own
// confidence. It is deliberately coarser than the match-level aggregation
// inside a single Detection; the two averages must not be conflated.
type CacheEntry struct {
	URLHash           string                    `json:"urlHash"`
	URL               string                    `json:"url"`
	Hostname          string                    `json:"hostname,omitempty"`
	Favicon           string                    `json:"favicon,omitempty"`
	Detections        []Detection               `json:"detections"`
	ChannelIndex      map[string][]IndexedMatch `json:"channelIndex,omitempty"`
	CreatedAt         time.Time                 `json:"createdAt"`
	ExpiresAt         time.Time                 `json:"expiresAt"`
	OverallConfidence int                       `json:"overallConfidence"`
	Count             int                       `json:"count"`
}

// Expired reports whether the entry's TTL has elapsed at the given time.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
