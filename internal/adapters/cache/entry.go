// Package cache provides DetectionCache implementations: an in-memory map,
// a shared-document store over a key/value area, and per-key SQL backends.
package cache

import (
	"hash/fnv"
	"strconv"
	"time"

	"github.com/pagesentry/pagesentry/internal/core"
)

// HashURL derives the cache key for a URL: a deterministic,
// non-cryptographic FNV-1a hash. Collisions are acceptable; colliding URLs
// are treated as the same cached entity.
func HashURL(url string) string {
	h := fnv.New64a()
	h.Write([]byte(url))
	return strconv.FormatUint(h.Sum64(), 36)
}

// newEntry builds a cache entry from a completed run: the per-channel
// match index for inspection without re-scanning, the page-level
// confidence average, and a fresh TTL.
func newEntry(url string, meta core.PageMeta, detections []core.Detection, now time.Time, ttl time.Duration) *core.CacheEntry {
	index := make(map[string][]core.IndexedMatch)
	for _, d := range detections {
		for _, m := range d.Matches {
			index[m.Channel] = append(index[m.Channel], core.IndexedMatch{
				Pattern:    m.Pattern,
				Value:      m.Value,
				Confidence: m.Confidence,
				Detector:   d.Detector.Name,
			})
		}
	}

	return &core.CacheEntry{
		URLHash:           HashURL(url),
		URL:               url,
		Hostname:          meta.Hostname,
		Favicon:           meta.Favicon,
		Detections:        detections,
		ChannelIndex:      index,
		CreatedAt:         now,
		ExpiresAt:         now.Add(ttl),
		OverallConfidence: core.PageConfidence(detections),
		Count:             len(detections),
	}
}
