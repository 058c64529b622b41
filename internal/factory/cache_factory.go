package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/adapters/cache"
	"github.com/pagesentry/pagesentry/internal/adapters/storage"
	"github.com/pagesentry/pagesentry/internal/config"
	"github.com/pagesentry/pagesentry/internal/core"
)

// CacheFactory creates detection caches based on configuration.
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory.
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDetectionCache creates a detection cache based on the configuration.
func (f *CacheFactory) CreateDetectionCache() (core.DetectionCache, error) {
	cacheType := f.cfg.GetString("cache.type")

	switch cacheType {
	case "memory":
		sweepFreq, err := f.cfg.GetDuration("cache.sweep_frequency")
		if err != nil {
			return nil, fmt.Errorf("invalid cache sweep frequency: %w", err)
		}
		return cache.NewMemoryCache(f.logger, sweepFreq), nil
	case "document":
		dir := f.cfg.GetString("cache.document_dir")
		store, err := storage.NewFileStore(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create document store: %w", err)
		}
		return cache.NewDocumentCache(store, f.logger), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("cache.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(sqlitePath, f.logger)
	case "mysql":
		mysqlDSN := f.cfg.GetString("cache.mysql_dsn")
		return cache.NewMySQLCache(mysqlDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}

// IsCacheEnabled returns whether caching is enabled.
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetBool("cache.enabled")
}
