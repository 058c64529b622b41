package core

import (
	"errors"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by Run before a catalog has been set.
var ErrNotConfigured = errors.New("detection engine: no rule catalog configured")

// DetectionEngine evaluates every enabled detector in the configured
// catalog against one signal bundle. Matching is synchronous and CPU-bound
// over in-memory data; a single Run performs no I/O.
//
// The engine treats the catalog as read-only per run. It must not be used
// for concurrent runs over different bundles; callers needing parallelism
// create one engine per goroutine.
type DetectionEngine struct {
	catalog    *Catalog
	evaluators []ChannelEvaluator
	strategy   AggregationStrategy
	logger     *zap.Logger
}

// NewDetectionEngine creates an engine with the default max aggregation
// strategy. SetCatalog must be called before Run.
func NewDetectionEngine(logger *zap.Logger) *DetectionEngine {
	return &DetectionEngine{
		evaluators: newChannelEvaluators(logger),
		strategy:   AggregateMax,
		logger:     logger,
	}
}

// SetCatalog installs the rule catalog used by subsequent runs.
func (e *DetectionEngine) SetCatalog(catalog *Catalog) {
	e.catalog = catalog
}

// SetStrategy selects the confidence aggregation strategy.
func (e *DetectionEngine) SetStrategy(strategy AggregationStrategy) {
	e.strategy = strategy
}

// Run evaluates all enabled detectors against the bundle and returns one
// Detection per detector whose aggregated confidence exceeds zero.
//
// Output order equals catalog iteration order, not confidence order;
// callers needing ranked output sort explicitly.
func (e *DetectionEngine) Run(bundle *SignalBundle) ([]Detection, error) {
	if e.catalog == nil {
		return nil, ErrNotConfigured
	}

	var detections []Detection
	for _, category := range e.catalog.Categories {
		for i := range category.Detectors {
			detector := &category.Detectors[i]
			if !detector.Enabled {
				continue
			}

			var matches []Match
			for _, evaluator := range e.evaluators {
				matches = append(matches, evaluator.Evaluate(bundle, &detector.Detection)...)
			}

			confidence := Aggregate(matches, e.strategy)
			if confidence <= 0 {
				continue
			}

			detections = append(detections, Detection{
				Detector:   detector.Meta(),
				Matches:    matches,
				Confidence: confidence,
				Detected:   true,
			})
		}
	}

	e.logger.Debug("Detection run complete",
		zap.String("url", bundle.URL),
		zap.Int("detectors", e.catalog.DetectorCount()),
		zap.Int("detections", len(detections)))

	return detections, nil
}
