package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/core"
)

// MemoryCache is an in-memory DetectionCache. With a positive sweep
// frequency it runs its own background sweeps until Stop is called.
type MemoryCache struct {
	entries   map[string]*core.CacheEntry
	mu        sync.RWMutex
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
	sweepFreq time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// MemoryCacheOption customizes a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithMemoryClock substitutes the time source, for expiry tests.
func WithMemoryClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) { c.now = now }
}

// WithMemoryTTL overrides the default 12h entry lifetime.
func WithMemoryTTL(ttl time.Duration) MemoryCacheOption {
	return func(c *MemoryCache) { c.ttl = ttl }
}

// NewMemoryCache creates an in-memory cache. sweepFreq <= 0 disables the
// background sweep; Sweep can still be called explicitly.
func NewMemoryCache(logger *zap.Logger, sweepFreq time.Duration, opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries:   make(map[string]*core.CacheEntry),
		logger:    logger,
		ttl:       core.DefaultCacheTTL,
		now:       time.Now,
		sweepFreq: sweepFreq,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sweepFreq > 0 {
		go c.sweepLoop()
	}
	return c
}

// Get returns the live entry for url, removing it first if it expired.
func (c *MemoryCache) Get(ctx context.Context, url string) (*core.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := HashURL(url)
	entry, ok := c.entries[hash]
	if !ok {
		return nil, core.ErrNotFound
	}
	if entry.Expired(c.now()) {
		delete(c.entries, hash)
		return nil, core.ErrNotFound
	}
	return entry, nil
}

// Put stores the detections for url with a fresh TTL.
func (c *MemoryCache) Put(ctx context.Context, url string, meta core.PageMeta, detections []core.Detection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := newEntry(url, meta, detections, c.now(), c.ttl)
	c.entries[entry.URLHash] = entry
	return nil
}

// Sweep removes every expired entry.
func (c *MemoryCache) Sweep(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for hash, entry := range c.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.Expired(now) {
			delete(c.entries, hash)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Swept expired cache entries", zap.Int("removed", removed))
	}
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*core.CacheEntry)
	return nil
}

func (c *MemoryCache) sweepLoop() {
	ticker := time.NewTicker(c.sweepFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Sweep(context.Background()); err != nil {
				c.logger.Error("Background sweep failed", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop terminates the background sweep, if any.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
