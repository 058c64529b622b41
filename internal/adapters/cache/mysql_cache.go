package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/core"
)

// MySQLCache is a DetectionCache over a MySQL database, for deployments
// where several analyzer instances share one result cache.
type MySQLCache struct {
	db     *sql.DB
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewMySQLCache connects to dsn and ensures the cache table exists.
func NewMySQLCache(dsn string, logger *zap.Logger) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS detection_cache (
			url_hash VARCHAR(32) PRIMARY KEY,
			url TEXT NOT NULL,
			hostname VARCHAR(255),
			favicon TEXT,
			detections MEDIUMTEXT NOT NULL,
			channel_index MEDIUMTEXT,
			created_at VARCHAR(35) NOT NULL,
			expires_at VARCHAR(35) NOT NULL,
			overall_confidence INT NOT NULL,
			entry_count INT NOT NULL,
			INDEX idx_detection_cache_expires_at (expires_at)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLCache{
		db:     db,
		logger: logger,
		ttl:    core.DefaultCacheTTL,
		now:    time.Now,
	}, nil
}

// Get returns the live entry for url, deleting it first if it expired.
func (c *MySQLCache) Get(ctx context.Context, url string) (*core.CacheEntry, error) {
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
func (c *MySQLCache) Put(ctx context.Context, url string, meta core.PageMeta, detections []core.Detection) error {
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
		REPLACE INTO detection_cache
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
func (c *MySQLCache) Sweep(ctx context.Context) error {
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
func (c *MySQLCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM detection_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *MySQLCache) Close() error {
	return c.db.Close()
}
