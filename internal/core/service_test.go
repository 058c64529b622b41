package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeCache is a scriptable DetectionCache for service tests.
type fakeCache struct {
	entry  *CacheEntry
	getErr error
	putErr error

	gets int
	puts int
}

func (f *fakeCache) Get(_ context.Context, _ string) (*CacheEntry, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entry, nil
}

func (f *fakeCache) Put(_ context.Context, _ string, _ PageMeta, _ []Detection) error {
	f.puts++
	return f.putErr
}

func (f *fakeCache) Sweep(context.Context) error { return nil }
func (f *fakeCache) Clear(context.Context) error { return nil }

type fakeSkipper struct{ hosts map[string]bool }

func (f *fakeSkipper) IsSkipped(hostname string) bool { return f.hosts[hostname] }

func newTestService(cache DetectionCache, skipper HostSkipper, cacheEnabled bool) *AnalysisService {
	engine := NewDetectionEngine(zap.NewNop())
	engine.SetCatalog(testCatalog())
	return NewAnalysisService(engine, cache, skipper, zap.NewNop(), cacheEnabled)
}

func TestAnalyzePageCacheHit(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cache := &fakeCache{entry: &CacheEntry{
		URL:               "https://example.com",
		Detections:        []Detection{{Detector: DetectorMeta{ID: "cloudflare"}, Confidence: 90, Detected: true}},
		OverallConfidence: 90,
		CreatedAt:         created,
	}}

	svc := newTestService(cache, nil, true)
	report, err := svc.AnalyzePage(context.Background(), &SignalBundle{URL: "https://example.com"}, PageMeta{})
	if err != nil {
		t.Fatalf("AnalyzePage: %v", err)
	}
	if !report.FromCache {
		t.Error("expected FromCache")
	}
	if report.OverallConfidence != 90 || len(report.Detections) != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if !report.AnalyzedAt.Equal(created) {
		t.Errorf("AnalyzedAt = %v, expected the entry's creation time", report.AnalyzedAt)
	}
	if cache.puts != 0 {
		t.Errorf("puts = %d, cache hit must not write back", cache.puts)
	}
}

func TestAnalyzePageCacheMiss(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{getErr: ErrNotFound}
	svc := newTestService(cache, nil, true)

	bundle := &SignalBundle{
		URL:     "https://example.com",
		Cookies: []Cookie{{Name: "cf_clearance", Value: "abc"}},
	}
	report, err := svc.AnalyzePage(context.Background(), bundle, PageMeta{Hostname: "example.com"})
	if err != nil {
		t.Fatalf("AnalyzePage: %v", err)
	}
	if report.FromCache {
		t.Error("expected a fresh analysis")
	}
	if len(report.Detections) != 1 || report.Detections[0].Detector.ID != "cloudflare" {
		t.Fatalf("unexpected detections: %+v", report.Detections)
	}
	if report.OverallConfidence != 90 {
		t.Errorf("OverallConfidence = %d, expected 90", report.OverallConfidence)
	}
	if cache.puts != 1 {
		t.Errorf("puts = %d, expected the result to be cached", cache.puts)
	}
}

func TestAnalyzePageNoDetectionsNotCached(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{getErr: ErrNotFound}
	svc := newTestService(cache, nil, true)

	report, err := svc.AnalyzePage(context.Background(), &SignalBundle{URL: "https://quiet.example.com"}, PageMeta{})
	if err != nil {
		t.Fatalf("AnalyzePage: %v", err)
	}
	if len(report.Detections) != 0 {
		t.Fatalf("unexpected detections: %+v", report.Detections)
	}
	if cache.puts != 0 {
		t.Errorf("puts = %d, empty results must not be cached", cache.puts)
	}
}

func TestAnalyzePageCacheReadFailureDegrades(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{getErr: errors.New("disk on fire")}
	svc := newTestService(cache, nil, true)

	bundle := &SignalBundle{
		URL:     "https://example.com",
		Cookies: []Cookie{{Name: "cf_clearance", Value: "abc"}},
	}
	report, err := svc.AnalyzePage(context.Background(), bundle, PageMeta{})
	if err != nil {
		t.Fatalf("AnalyzePage must degrade on cache read failure, got %v", err)
	}
	if report.FromCache || len(report.Detections) != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestAnalyzePageCacheWriteFailureDegrades(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{getErr: ErrNotFound, putErr: errors.New("disk on fire")}
	svc := newTestService(cache, nil, true)

	bundle := &SignalBundle{
		URL:     "https://example.com",
		Cookies: []Cookie{{Name: "cf_clearance", Value: "abc"}},
	}
	report, err := svc.AnalyzePage(context.Background(), bundle, PageMeta{})
	if err != nil {
		t.Fatalf("AnalyzePage must not propagate cache write failures, got %v", err)
	}
	if len(report.Detections) != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestAnalyzePageCacheDisabled(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{entry: &CacheEntry{URL: "https://example.com"}}
	svc := newTestService(cache, nil, false)

	_, err := svc.AnalyzePage(context.Background(), &SignalBundle{URL: "https://example.com"}, PageMeta{})
	if err != nil {
		t.Fatalf("AnalyzePage: %v", err)
	}
	if cache.gets != 0 || cache.puts != 0 {
		t.Errorf("cache touched with caching disabled: gets=%d puts=%d", cache.gets, cache.puts)
	}
}

func TestAnalyzePageSkippedHost(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{}
	skipper := &fakeSkipper{hosts: map[string]bool{"internal.example.com": true}}
	svc := newTestService(cache, skipper, true)

	bundle := &SignalBundle{
		URL:     "https://internal.example.com/admin",
		Cookies: []Cookie{{Name: "cf_clearance", Value: "abc"}},
	}
	report, err := svc.AnalyzePage(context.Background(), bundle, PageMeta{Hostname: "internal.example.com"})
	if err != nil {
		t.Fatalf("AnalyzePage: %v", err)
	}
	if !report.Skipped {
		t.Error("expected Skipped")
	}
	if len(report.Detections) != 0 {
		t.Errorf("skipped host must yield no detections, got %+v", report.Detections)
	}
	if cache.gets != 0 {
		t.Errorf("gets = %d, skipped host must not consult the cache", cache.gets)
	}
}
