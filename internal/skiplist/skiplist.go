// Package skiplist tracks hostnames the user has excluded from analysis.
package skiplist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker answers whether a hostname should be skipped. A host matches
// when it equals an excluded entry or is a subdomain of one.
type Checker struct {
	hosts  []string
	logger *zap.Logger
}

// NewChecker creates a checker from the configured host list.
func NewChecker(hosts []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			normalized = append(normalized, h)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized host skip list", zap.Strings("hosts", normalized))
	}

	return &Checker{hosts: normalized, logger: logger}
}

// IsSkipped reports whether the hostname is excluded from analysis.
func (c *Checker) IsSkipped(hostname string) bool {
	if len(c.hosts) == 0 || hostname == "" {
		return false
	}

	hostname = strings.ToLower(hostname)
	for _, h := range c.hosts {
		if hostname == h || strings.HasSuffix(hostname, "."+h) {
			if c.logger != nil {
				c.logger.Debug("Host is excluded from analysis",
					zap.String("hostname", hostname),
					zap.String("rule", h))
			}
			return true
		}
	}
	return false
}
