package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/core"
)

// SQLiteCache is a DetectionCache over a SQLite database. Unlike the
// shared-document backend, rows are addressed per key, so concurrent
// callers cannot lose each other's writes.
type SQLiteCache struct {
	db     *sql.DB
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewSQLiteCache opens (creating if needed) the cache table at dbPath.
func NewSQLiteCache(dbPath string, logger *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS detection_cache (
			url_hash TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			hostname TEXT,
			favicon TEXT,
			detections TEXT NOT NULL,
			channel_index TEXT,
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			overall_confidence INTEGER NOT NULL,
			entry_count INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_detection_cache_expires_at ON detection_cache(expires_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteCache{
		db:     db,
		logger: logger,
		ttl:    core.DefaultCacheTTL,
		now:    time.Now,
	}, nil
}

// Get returns the live entry for url, deleting it first if it expired.
func (c *SQLiteCache) Get(ctx context.Context, url string) (*core.CacheEntry, error) {
	hash := HashURL(url)

	var (
		entry             core.CacheEntry
		detectionsJSON    string
		channelIndexJSON  sql.NullString
		createdAt, expiry string
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT url, hostname, favicon, detections, channel_index,
		       created_at, expires_at, overall_confidence, entry_count
		FROM detection_cache
		WHERE url_hash = ?
	`, hash).Scan(&entry.URL, &entry.Hostname, &entry.Favicon, &detectionsJSON,
		&channelIndexJSON, &createdAt, &expiry, &entry.OverallConfidence, &entry.Count)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry.URLHash = hash
	if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if entry.ExpiresAt, err = time.Parse(time.RFC3339, expiry); err != nil {
		return nil, fmt.Errorf("failed to parse expires_at: %w", err)
	}

	if entry.Expired(c.now()) {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM detection_cache WHERE url_hash = ?`, hash); err != nil {
			c.logger.Error("Failed to delete expired cache entry", zap.Error(err), zap.String("url_hash", hash))
		}
		return nil, core.ErrNotFound
	}

	if err := json.Unmarshal([]byte(detectionsJSON), &entry.Detections); err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}
	if channelIndexJSON.Valid && channelIndexJSON.String != "" {
		if err := json.Unmarshal([]byte(channelIndexJSON.String), &entry.ChannelIndex); err != nil {
			return nil, fmt.Errorf("failed to decode channel index: %w", err)
		}
	}
	return &entry, nil
}

// Put stores the detections for url with a fresh TTL.
func (c *SQLiteCache) Put(ctx context.Context, url string, meta core.PageMeta, detections []core.Detection) error {
	entry := newEntry(url, meta, detections, c.now(), c.ttl)

	detectionsJSON, err := json.Marshal(entry.Detections)
	if err != nil {
		return fmt.Errorf("failed to encode detections: %w", err)
	}
	channelIndexJSON, err := json.Marshal(entry.ChannelIndex)
	if err != nil {
		return fmt.Errorf("failed to encode channel index: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO detection_cache
			(url_hash, url, hostname, favicon, detections, channel_index,
			 created_at, expires_at, overall_confidence, entry_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.URLHash, entry.URL, entry.Hostname, entry.Favicon,
		string(detectionsJSON), string(channelIndexJSON),
		entry.CreatedAt.UTC().Format(time.RFC3339), entry.ExpiresAt.UTC().Format(time.RFC3339),
		entry.OverallConfidence, entry.Count)
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Sweep deletes every expired entry in one statement.
func (c *SQLiteCache) Sweep(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM detection_cache WHERE expires_at <= ?
	`, c.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to sweep expired entries: %w", err)
	}

	if removed, err := result.RowsAffected(); err == nil && removed > 0 {
		c.logger.Debug("Swept expired cache entries", zap.Int64("removed", removed))
	}
	return nil
}

// Clear removes all entries.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM detection_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
