package core

import (
	"context"
	"errors"
	"time"
)

// DefaultCacheTTL is the fixed lifetime of a cache entry.
const DefaultCacheTTL = 12 * time.Hour

// ErrNotFound is returned by cache implementations when no live entry
// exists for a URL.
var ErrNotFound = errors.New("cache entry not found")

// DetectionCache stores completed analysis results per URL. Entries are
// keyed by a deterministic non-cryptographic URL hash and expire after
// DefaultCacheTTL; expired entries are removed lazily on read in addition
// to the explicit Sweep.
//
// Implementations are responsible for their own serialization: backends
// that model the store as one shared document must guard each
// load-mutate-save cycle so concurrent callers cannot lose updates.
type DetectionCache interface {
	// Get returns the live entry for url, or ErrNotFound. An expired
	// entry is deleted, the removal persisted, and ErrNotFound returned.
	Get(ctx context.Context, url string) (*CacheEntry, error)

	// Put stores the detections for url with a fresh TTL, replacing any
	// previous entry.
	Put(ctx context.Context, url string, meta PageMeta, detections []Detection) error

	// Sweep deletes every expired entry in one batch, persisting once if
	// anything was removed. Scheduling sweeps is the caller's job.
	Sweep(ctx context.Context) error

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
