// Package catalog loads and validates detector rule catalogs.
package catalog

import (
	"bytes"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/pagesentry/pagesentry/internal/core"
)

// Load reads a YAML catalog file, validates it, and returns the ordered
// catalog. Category and detector order in the file is the order the
// engine will iterate.
func Load(path string) (*core.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*core.Catalog, error) {
	var catalog core.Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	if err := Validate(&catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &catalog, nil
}

// Validate checks every detector for malformed fields so that broken rules
// surface at load time instead of silently never matching. All problems
// are reported together.
func Validate(catalog *core.Catalog) error {
	var errs error
	seen := make(map[string]bool)

	for _, category := range catalog.Categories {
		if category.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("category with empty name"))
		}
		for _, d := range category.Detectors {
			where := fmt.Sprintf("detector %q in category %q", d.ID, category.Name)

			if d.ID == "" {
				errs = multierr.Append(errs, fmt.Errorf("%s: empty id", where))
			} else if seen[d.ID] {
				errs = multierr.Append(errs, fmt.Errorf("%s: duplicate id", where))
			}
			seen[d.ID] = true

			if d.Name == "" {
				errs = multierr.Append(errs, fmt.Errorf("%s: empty name", where))
			}
			if d.Detection.Empty() {
				errs = multierr.Append(errs, fmt.Errorf("%s: no patterns in any channel", where))
			}

			errs = multierr.Append(errs, validateRules(where, &d.Detection))
		}
	}
	return errs
}

func validateRules(where string, rules *core.DetectionRules) error {
	var errs error

	check := func(channel, pattern string, confidence int) {
		if pattern == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: empty pattern in %s channel", where, channel))
		}
		if confidence < 0 || confidence > 100 {
			errs = multierr.Append(errs,
				fmt.Errorf("%s: confidence %d out of range [0,100] in %s channel", where, confidence, channel))
		}
	}

	for _, p := range rules.URLs {
		check(core.ChannelURLs, p.Pattern, p.Confidence)
	}
	for _, p := range rules.Headers {
		check(core.ChannelHeaders, p.Name, p.Confidence)
	}
	for _, p := range rules.Cookies {
		check(core.ChannelCookies, p.Name, p.Confidence)
	}
	for _, p := range rules.Content {
		check(core.ChannelContent, p.Pattern, p.Confidence)
	}
	for _, p := range rules.DOM {
		check(core.ChannelDOM, p.Selector, p.Confidence)
	}
	return errs
}
