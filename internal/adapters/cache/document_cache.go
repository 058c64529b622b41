package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/adapters/storage"
	"github.com/pagesentry/pagesentry/internal/core"
)

// documentKey is the single storage key the whole cache document lives
// under.
const documentKey = "detection_cache"

// DocumentCache keeps all entries in one shared document persisted through
// a storage.Area: every operation is a load-whole-document, mutate,
// save-whole-document cycle. One mutex serializes those cycles; without
// it, interleaved load/save pairs from concurrent callers lose updates.
type DocumentCache struct {
	store  storage.Area
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
	mu     sync.Mutex
}

// DocumentCacheOption customizes a DocumentCache.
type DocumentCacheOption func(*DocumentCache)

// WithDocumentClock substitutes the time source, for expiry tests.
func WithDocumentClock(now func() time.Time) DocumentCacheOption {
	return func(c *DocumentCache) { c.now = now }
}

// WithDocumentTTL overrides the default 12h entry lifetime.
func WithDocumentTTL(ttl time.Duration) DocumentCacheOption {
	return func(c *DocumentCache) { c.ttl = ttl }
}

// NewDocumentCache creates a cache over the given storage area.
func NewDocumentCache(store storage.Area, logger *zap.Logger, opts ...DocumentCacheOption) *DocumentCache {
	c := &DocumentCache{
		store:  store,
		logger: logger,
		ttl:    core.DefaultCacheTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// load reads and decodes the whole document. A missing key is an empty
// document, not an error.
func (c *DocumentCache) load(ctx context.Context) (map[string]*core.CacheEntry, error) {
	data, err := c.store.Get(ctx, documentKey)
	if errors.Is(err, storage.ErrNoKey) {
		return make(map[string]*core.CacheEntry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cache document: %w", err)
	}

	doc := make(map[string]*core.CacheEntry)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode cache document: %w", err)
	}
	return doc, nil
}

func (c *DocumentCache) save(ctx context.Context, doc map[string]*core.CacheEntry) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode cache document: %w", err)
	}
	if err := c.store.Set(ctx, documentKey, data); err != nil {
		return fmt.Errorf("failed to save cache document: %w", err)
	}
	return nil
}

// Get returns the live entry for url. An expired entry is removed and the
// removal persisted before reporting a miss, so reads self-heal the
// document.
func (c *DocumentCache) Get(ctx context.Context, url string) (*core.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	hash := HashURL(url)
	entry, ok := doc[hash]
	if !ok {
		return nil, core.ErrNotFound
	}
	if entry.Expired(c.now()) {
		delete(doc, hash)
		if err := c.save(ctx, doc); err != nil {
			c.logger.Error("Failed to persist expired entry removal", zap.Error(err))
		}
		return nil, core.ErrNotFound
	}
	return entry, nil
}

// Put stores the detections for url with a fresh TTL.
func (c *DocumentCache) Put(ctx context.Context, url string, meta core.PageMeta, detections []core.Detection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load(ctx)
	if err != nil {
		return err
	}

	entry := newEntry(url, meta, detections, c.now(), c.ttl)
	doc[entry.URLHash] = entry
	if err := c.save(ctx, doc); err != nil {
		return err
	}

	c.logger.Debug("Cached detection results",
		zap.String("url", url),
		zap.String("url_hash", entry.URLHash),
		zap.Int("detections", entry.Count))
	return nil
}

// Sweep deletes every expired entry in one pass, persisting once if any
// were removed. It may stop between entries when the context is cancelled
// without corrupting the document.
func (c *DocumentCache) Sweep(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load(ctx)
	if err != nil {
		return err
	}

	now := c.now()
	removed := 0
	for hash, entry := range doc {
		if err := ctx.Err(); err != nil {
			break
		}
		if entry.Expired(now) {
			delete(doc, hash)
			removed++
		}
	}

	if removed == 0 {
		return ctx.Err()
	}
	if err := c.save(ctx, doc); err != nil {
		return err
	}

	c.logger.Debug("Swept expired cache entries", zap.Int("removed", removed))
	return ctx.Err()
}

// Clear removes the whole document.
func (c *DocumentCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Remove(ctx, documentKey); err != nil {
		return fmt.Errorf("failed to clear cache document: %w", err)
	}
	return nil
}
