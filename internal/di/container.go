package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/config"
	"github.com/pagesentry/pagesentry/internal/core"
	"github.com/pagesentry/pagesentry/internal/factory"
	"github.com/pagesentry/pagesentry/internal/logging"
	"github.com/pagesentry/pagesentry/internal/skiplist"
)

// BuildContainer creates and configures a dependency injection container.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCatalogFactory); err != nil {
		return nil, err
	}

	// Register detection engine
	if err := container.Provide(func(f *factory.CatalogFactory) (*core.DetectionEngine, error) {
		return f.CreateEngine()
	}); err != nil {
		return nil, err
	}

	// Register detection cache and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (core.DetectionCache, error) {
		return f.CreateDetectionCache()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register host skip list
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.HostSkipper {
		return skiplist.NewChecker(cfg.GetStringSlice("analysis.skip_hosts"), logger)
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(core.NewAnalysisService); err != nil {
		return nil, err
	}

	return container, nil
}
