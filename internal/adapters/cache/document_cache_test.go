package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/adapters/storage"
	"github.com/pagesentry/pagesentry/internal/core"
)

func testDetections() []core.Detection {
	return []core.Detection{
		{
			Detector: core.DetectorMeta{ID: "cloudflare", Name: "Cloudflare"},
			Matches: []core.Match{
				{Channel: core.ChannelCookies, Pattern: "cf_clearance", Value: "cf_clearance=abc", Confidence: 90},
			},
			Confidence: 90,
			Detected:   true,
		},
	}
}

// manualClock is a mutable time source shared with a cache under test.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock(t time.Time) *manualClock { return &manualClock{t: t} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestDocumentCachePutGet(t *testing.T) {
	t.Parallel()

	clock := newManualClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	c := NewDocumentCache(storage.NewMemoryStore(), zap.NewNop(), WithDocumentClock(clock.Now))
	ctx := context.Background()

	url := "https://example.com/page"
	if err := c.Put(ctx, url, core.PageMeta{Hostname: "example.com", Favicon: "https://example.com/f.ico"}, testDetections()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, err := c.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.URL != url || entry.Hostname != "example.com" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.URLHash != HashURL(url) {
		t.Errorf("URLHash = %q, expected %q", entry.URLHash, HashURL(url))
	}
	if entry.Count != 1 || entry.OverallConfidence != 90 {
		t.Errorf("Count = %d, OverallConfidence = %d", entry.Count, entry.OverallConfidence)
	}
	if got := entry.ExpiresAt.Sub(entry.CreatedAt); got != core.DefaultCacheTTL {
		t.Errorf("TTL = %v, expected %v", got, core.DefaultCacheTTL)
	}
	if len(entry.ChannelIndex[core.ChannelCookies]) != 1 {
		t.Errorf("channel index missing cookies matches: %+v", entry.ChannelIndex)
	}
}

func TestDocumentCacheMiss(t *testing.T) {
	t.Parallel()

	c := NewDocumentCache(storage.NewMemoryStore(), zap.NewNop())
	_, err := c.Get(context.Background(), "https://never-stored.example.com")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, expected ErrNotFound", err)
	}
}

func TestDocumentCacheExpiry(t *testing.T) {
	t.Parallel()

	clock := newManualClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	c := NewDocumentCache(storage.NewMemoryStore(), zap.NewNop(), WithDocumentClock(clock.Now))
	ctx := context.Background()

	url := "https://example.com/page"
	if err := c.Put(ctx, url, core.PageMeta{}, testDetections()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clock.Advance(12*time.Hour - time.Second)
	if _, err := c.Get(ctx, url); err != nil {
		t.Fatalf("entry expired early: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := c.Get(ctx, url); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, expected ErrNotFound after TTL elapsed", err)
	}

	// The lazy removal must have been persisted: winding the clock back
	// must not resurrect the entry.
	clock.Advance(-24 * time.Hour)
	if _, err := c.Get(ctx, url); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, expected the expired entry to stay removed", err)
	}
}

func TestDocumentCachePutRefreshesTTL(t *testing.T) {
	t.Parallel()

	clock := newManualClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	c := NewDocumentCache(storage.NewMemoryStore(), zap.NewNop(),
		WithDocumentClock(clock.Now), WithDocumentTTL(time.Hour))
	ctx := context.Background()

	url := "https://example.com/page"
	if err := c.Put(ctx, url, core.PageMeta{}, testDetections()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	clock.Advance(50 * time.Minute)
	if err := c.Put(ctx, url, core.PageMeta{}, testDetections()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	clock.Advance(50 * time.Minute)

	if _, err := c.Get(ctx, url); err != nil {
		t.Fatalf("Get after refresh: %v", err)
	}
}

func TestDocumentCacheSweep(t *testing.T) {
	t.Parallel()

	clock := newManualClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	c := NewDocumentCache(storage.NewMemoryStore(), zap.NewNop(),
		WithDocumentClock(clock.Now), WithDocumentTTL(time.Hour))
	ctx := context.Background()

	if err := c.Put(ctx, "https://old.example.com", core.PageMeta{}, testDetections()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	clock.Advance(2 * time.Hour)
	if err := c.Put(ctx, "https://fresh.example.com", core.PageMeta{}, testDetections()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := c.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if _, err := c.Get(ctx, "https://old.example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, expected the stale entry to be swept", err)
	}
	if _, err := c.Get(ctx, "https://fresh.example.com"); err != nil {
		t.Errorf("Sweep removed a live entry: %v", err)
	}
}

func TestDocumentCacheClear(t *testing.T) {
	t.Parallel()

	c := NewDocumentCache(storage.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	if err := c.Put(ctx, "https://example.com", core.PageMeta{}, testDetections()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := c.Get(ctx, "https://example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, expected ErrNotFound after Clear", err)
	}
}

func TestDocumentCacheConcurrentPuts(t *testing.T) {
	t.Parallel()

	c := NewDocumentCache(storage.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := fmt.Sprintf("https://example.com/page/%d", i)
			if err := c.Put(ctx, url, core.PageMeta{}, testDetections()); err != nil {
				t.Errorf("Put %s: %v", url, err)
			}
		}(i)
	}
	wg.Wait()

	// No update may be lost to an interleaved load/save cycle.
	for i := 0; i < workers; i++ {
		url := fmt.Sprintf("https://example.com/page/%d", i)
		if _, err := c.Get(ctx, url); err != nil {
			t.Errorf("Get %s: %v", url, err)
		}
	}
}

func TestHashURL(t *testing.T) {
	t.Parallel()

	a := HashURL("https://example.com/page")
	b := HashURL("https://example.com/page")
	if a != b {
		t.Errorf("hash is not deterministic: %q vs %q", a, b)
	}
	if a == HashURL("https://example.com/other") {
		t.Error("distinct URLs hashed to the same key")
	}
	if a == "" {
		t.Error("empty hash")
	}
}
