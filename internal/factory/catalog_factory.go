package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/catalog"
	"github.com/pagesentry/pagesentry/internal/config"
	"github.com/pagesentry/pagesentry/internal/core"
)

// CatalogFactory loads the detector rule catalog from configuration.
type CatalogFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCatalogFactory creates a new catalog factory.
func NewCatalogFactory(cfg *config.Config, logger *zap.Logger) *CatalogFactory {
	return &CatalogFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// LoadCatalog returns the configured YAML catalog, or the built-in starter
// catalog when no path is set.
func (f *CatalogFactory) LoadCatalog() (*core.Catalog, error) {
	path := f.cfg.GetString("catalog.path")
	if path == "" {
		c := catalog.Builtin()
		f.logger.Info("Using built-in detector catalog", zap.Int("detectors", c.DetectorCount()))
		return c, nil
	}

	c, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %q: %w", path, err)
	}
	f.logger.Info("Loaded detector catalog",
		zap.String("path", path),
		zap.Int("detectors", c.DetectorCount()))
	return c, nil
}

// CreateEngine builds a detection engine configured with the catalog and
// the aggregation strategy from configuration.
func (f *CatalogFactory) CreateEngine() (*core.DetectionEngine, error) {
	cat, err := f.LoadCatalog()
	if err != nil {
		return nil, err
	}

	engine := core.NewDetectionEngine(f.logger)
	engine.SetCatalog(cat)

	switch strategy := f.cfg.GetString("engine.aggregation"); strategy {
	case "", string(core.AggregateMax):
		engine.SetStrategy(core.AggregateMax)
	case string(core.AggregateAverage):
		engine.SetStrategy(core.AggregateAverage)
	case string(core.AggregateWeighted):
		engine.SetStrategy(core.AggregateWeighted)
	default:
		return nil, fmt.Errorf("unsupported aggregation strategy: %s", strategy)
	}
	return engine, nil
}
