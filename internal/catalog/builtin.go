package catalog

import (
	"github.com/pagesentry/pagesentry/internal/core"
)

// Builtin returns the starter catalog shipped with the analyzer: a small
// set of widely deployed anti-bot, CAPTCHA, and CDN signatures. Users
// extend or replace it with their own YAML catalogs.
func Builtin() *core.Catalog {
	return &core.Catalog{
		Categories: []core.Category{
			{
				Name: "anti-bot",
				Detectors: []core.Detector{
					{
						ID:       "cloudflare",
						Name:     "Cloudflare",
						Category: "anti-bot",
						Color:    "#f48120",
						Enabled:  true,
						Detection: core.DetectionRules{
							Cookies: []core.CookiePattern{
								{Name: "cf_clearance", Confidence: 90, Description: "challenge clearance cookie"},
								{Name: "__cf_bm", Confidence: 85, Description: "bot management cookie"},
							},
							Headers: []core.HeaderPattern{
								{Name: "cf-ray", Confidence: 90, Description: "request trace header"},
								{Name: "server", Value: "cloudflare", Confidence: 80},
							},
							Content: []core.ContentPattern{
								{Pattern: "cf-browser-verification", Confidence: 85},
								{Pattern: "challenges.cloudflare.com", Confidence: 80, CheckScripts: true},
							},
						},
					},
					{
						ID:       "akamai-bot-manager",
						Name:     "Akamai Bot Manager",
						Category: "anti-bot",
						Color:    "#009cde",
						Enabled:  true,
						Detection: core.DetectionRules{
							Cookies: []core.CookiePattern{
								{Name: "_abck", Confidence: 90, Description: "sensor state cookie"},
								{Name: "bm_sz", Confidence: 80},
							},
							Headers: []core.HeaderPattern{
								{Name: "x-akamai-transformed", Confidence: 75},
								{Name: "server", Value: "akamaighost", Confidence: 70},
							},
						},
					},
					{
						ID:       "datadome",
						Name:     "DataDome",
						Category: "anti-bot",
						Color:    "#2b3b8f",
						Enabled:  true,
						Detection: core.DetectionRules{
							Cookies: []core.CookiePattern{
								{Name: "datadome", Confidence: 90},
							},
							Headers: []core.HeaderPattern{
								{Name: "x-datadome", Confidence: 85},
							},
							Content: []core.ContentPattern{
								{Pattern: "captcha-delivery.com", Confidence: 85, CheckScripts: true},
								{Pattern: "datadome.co", Confidence: 70},
							},
						},
					},
					{
						ID:       "perimeterx",
						Name:     "PerimeterX (HUMAN)",
						Category: "anti-bot",
						Color:    "#e8442f",
						Enabled:  true,
						Detection: core.DetectionRules{
							Cookies: []core.CookiePattern{
								{Name: "_px", Confidence: 80},
								{Name: "_pxvid", Confidence: 85},
							},
							Content: []core.ContentPattern{
								{Pattern: "client.perimeterx.net", Confidence: 85, CheckScripts: true},
								{Pattern: "window._pxAppId", Confidence: 85, CheckScripts: true},
							},
						},
					},
					{
						ID:       "kasada",
						Name:     "Kasada",
						Category: "anti-bot",
						Color:    "#00b388",
						Enabled:  true,
						Detection: core.DetectionRules{
							Headers: []core.HeaderPattern{
								{Name: "x-kpsdk-ct", Confidence: 85},
							},
							URLs: []core.URLPattern{
								{Pattern: "/149e9513-01fa-4fb0-aad4-566afd725d1b/", Confidence: 90, Description: "kasada script path"},
							},
						},
					},
				},
			},
			{
				Name: "captcha",
				Detectors: []core.Detector{
					{
						ID:       "recaptcha",
						Name:     "Google reCAPTCHA",
						Category: "captcha",
						Color:    "#4285f4",
						Enabled:  true,
						Detection: core.DetectionRules{
							URLs: []core.URLPattern{
								{Pattern: "google.com/recaptcha", Confidence: 90},
								{Pattern: "gstatic.com/recaptcha", Confidence: 85},
							},
							DOM: []core.DOMPattern{
								{Selector: "iframe[src*='recaptcha']", Confidence: 90},
								{Selector: ".g-recaptcha", Confidence: 90},
							},
							Content: []core.ContentPattern{
								{Pattern: "grecaptcha", Confidence: 80, CheckScripts: true},
							},
						},
					},
					{
						ID:       "hcaptcha",
						Name:     "hCaptcha",
						Category: "captcha",
						Color:    "#00838f",
						Enabled:  true,
						Detection: core.DetectionRules{
							URLs: []core.URLPattern{
								{Pattern: "hcaptcha.com", Confidence: 90},
							},
							DOM: []core.DOMPattern{
								{Selector: ".h-captcha", Confidence: 90},
								{Selector: "iframe[src*='hcaptcha']", Confidence: 90},
							},
						},
					},
					{
						ID:       "cloudflare-turnstile",
						Name:     "Cloudflare Turnstile",
						Category: "captcha",
						Color:    "#f48120",
						Enabled:  true,
						Detection: core.DetectionRules{
							URLs: []core.URLPattern{
								{Pattern: "challenges.cloudflare.com/turnstile", Confidence: 90},
							},
							DOM: []core.DOMPattern{
								{Selector: ".cf-turnstile", Confidence: 90},
							},
						},
					},
				},
			},
			{
				Name: "cdn",
				Detectors: []core.Detector{
					{
						ID:       "fastly",
						Name:     "Fastly",
						Category: "cdn",
						Color:    "#e32b2b",
						Enabled:  true,
						Detection: core.DetectionRules{
							Headers: []core.HeaderPattern{
								{Name: "x-served-by", Value: "cache-", Confidence: 75},
								{Name: "x-fastly-request-id", Confidence: 85},
							},
						},
					},
					{
						ID:       "imperva-incapsula",
						Name:     "Imperva Incapsula",
						Category: "cdn",
						Color:    "#1b9bd1",
						Enabled:  true,
						Detection: core.DetectionRules{
							Cookies: []core.CookiePattern{
								{Name: "incap_ses", Confidence: 85},
								{Name: "visid_incap", Confidence: 85},
							},
							Content: []core.ContentPattern{
								{Pattern: "_Incapsula_Resource", Confidence: 85},
							},
						},
					},
				},
			},
		},
	}
}
