package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HostSkipper reports hostnames the user has excluded from analysis.
type HostSkipper interface {
	IsSkipped(hostname string) bool
}

// PageReport is the outcome of analyzing one page, whether freshly
// computed or served from cache.
type PageReport struct {
	URL               string      `json:"url"`
	Detections        []Detection `json:"detections"`
	OverallConfidence int         `json:"overallConfidence"`
	FromCache         bool        `json:"fromCache"`
	Skipped           bool        `json:"skipped,omitempty"`
	AnalyzedAt        time.Time   `json:"analyzedAt"`
}

// AnalysisService orchestrates a page analysis: cache lookup, engine run,
// cache write-back. Cache failures degrade to a fresh run or a skipped
// write; detection correctness never depends on cache availability.
type AnalysisService struct {
	engine       *DetectionEngine
	cache        DetectionCache
	skipper      HostSkipper
	logger       *zap.Logger
	cacheEnabled bool
}

// NewAnalysisService creates a new analysis service. cache may be nil when
// cacheEnabled is false; skipper may be nil.
func NewAnalysisService(
	engine *DetectionEngine,
	cache DetectionCache,
	skipper HostSkipper,
	logger *zap.Logger,
	cacheEnabled bool,
) *AnalysisService {
	return &AnalysisService{
		engine:       engine,
		cache:        cache,
		skipper:      skipper,
		logger:       logger,
		cacheEnabled: cacheEnabled,
	}
}

// AnalyzePage classifies the bundle's signals and returns a report.
// Results are cached under the page URL when any detector fired.
func (s *AnalysisService) AnalyzePage(ctx context.Context, bundle *SignalBundle, meta PageMeta) (*PageReport, error) {
	if s.skipper != nil && s.skipper.IsSkipped(meta.Hostname) {
		s.logger.Info("Skipping analysis for excluded host",
			zap.String("hostname", meta.Hostname),
			zap.String("url", bundle.URL))
		return &PageReport{URL: bundle.URL, Skipped: true, AnalyzedAt: time.Now()}, nil
	}

	if s.cacheEnabled {
		entry, err := s.cache.Get(ctx, bundle.URL)
		if err == nil {
			s.logger.Debug("Cache hit", zap.String("url", bundle.URL))
			return &PageReport{
				URL:               bundle.URL,
				Detections:        entry.Detections,
				OverallConfidence: entry.OverallConfidence,
				FromCache:         true,
				AnalyzedAt:        entry.CreatedAt,
			}, nil
		}
		if err != ErrNotFound {
			s.logger.Error("Cache read failed, analyzing fresh", zap.Error(err), zap.String("url", bundle.URL))
		}
	}

	detections, err := s.engine.Run(bundle)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled && len(detections) > 0 {
		if err := s.cache.Put(ctx, bundle.URL, meta, detections); err != nil {
			s.logger.Error("Cache write failed", zap.Error(err), zap.String("url", bundle.URL))
		}
	}

	return &PageReport{
		URL:               bundle.URL,
		Detections:        detections,
		OverallConfidence: PageConfidence(detections),
		AnalyzedAt:        time.Now(),
	}, nil
}
