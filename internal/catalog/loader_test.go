package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
)

const validCatalogYAML = `
categories:
  - name: anti-bot
    detectors:
      - id: cloudflare
        name: Cloudflare
        enabled: true
        detection:
          cookies:
            - name: cf_clearance
              confidence: 90
  - name: captcha
    detectors:
      - id: recaptcha
        name: reCAPTCHA
        enabled: true
        detection:
          urls:
            - pattern: recaptcha
              confidence: 60
          dom:
            - selector: .g-recaptcha
              confidence: 85
`

func TestParseValidCatalog(t *testing.T) {
	t.Parallel()

	catalog, err := Parse([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(catalog.Categories) != 2 {
		t.Fatalf("categories = %d, expected 2", len(catalog.Categories))
	}
	// File order must be preserved; the engine iterates in this order.
	if catalog.Categories[0].Name != "anti-bot" || catalog.Categories[1].Name != "captcha" {
		t.Errorf("category order = [%s, %s]", catalog.Categories[0].Name, catalog.Categories[1].Name)
	}
	if catalog.DetectorCount() != 2 {
		t.Errorf("DetectorCount = %d, expected 2", catalog.DetectorCount())
	}

	d := catalog.Categories[1].Detectors[0]
	if d.ID != "recaptcha" || !d.Enabled {
		t.Errorf("unexpected detector: %+v", d)
	}
	if len(d.Detection.URLs) != 1 || d.Detection.URLs[0].Confidence != 60 {
		t.Errorf("unexpected url rules: %+v", d.Detection.URLs)
	}
	if len(d.Detection.DOM) != 1 || d.Detection.DOM[0].Selector != ".g-recaptcha" {
		t.Errorf("unexpected dom rules: %+v", d.Detection.DOM)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`
categories:
  - name: anti-bot
    detectors:
      - id: cloudflare
        name: Cloudflare
        enabled: true
        bogus_field: true
        detection:
          cookies:
            - name: cf_clearance
              confidence: 90
`))
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("categories: [")); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	t.Parallel()

	catalog, err := Parse([]byte(`
categories:
  - name: ""
    detectors:
      - id: ""
        name: ""
        enabled: true
        detection: {}
      - id: dup
        name: Dup
        enabled: true
        detection:
          cookies:
            - name: ""
              confidence: 150
      - id: dup
        name: Dup Again
        enabled: true
        detection:
          urls:
            - pattern: x
              confidence: 50
`))
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if catalog != nil {
		t.Error("expected nil catalog on validation failure")
	}

	// Empty category name, empty detector id, empty detector name, empty
	// rule set, empty cookie pattern, out-of-range confidence, duplicate
	// id: all reported in one pass.
	errs := multierr.Errors(unwrapAll(err))
	if len(errs) < 6 {
		t.Errorf("expected all problems reported together, got %d: %v", len(errs), err)
	}
}

// unwrapAll strips the "invalid catalog" wrapping to reach the multierr.
func unwrapAll(err error) error {
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		err = u.Unwrap()
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(validCatalogYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	catalog, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if catalog.DetectorCount() != 2 {
		t.Errorf("DetectorCount = %d, expected 2", catalog.DetectorCount())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestBuiltinCatalogIsValid(t *testing.T) {
	t.Parallel()

	catalog := Builtin()
	if err := Validate(catalog); err != nil {
		t.Fatalf("builtin catalog failed validation: %v", err)
	}
	if catalog.DetectorCount() == 0 {
		t.Fatal("builtin catalog is empty")
	}
	for _, category := range catalog.Categories {
		for _, d := range category.Detectors {
			if !d.Enabled {
				t.Errorf("builtin detector %q is disabled", d.ID)
			}
		}
	}
}
