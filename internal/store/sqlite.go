package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/itpurple/stylist/internal/domain"
	"github.com/itpurple/stylist/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // Mutex for cache writes to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed catalog cache.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency. The pragmas go in
	// the DSN so every pooled connection gets them, not just the first.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS catalog_items (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		price REAL NOT NULL,
		image_url TEXT NOT NULL,
		marketplace_url TEXT NOT NULL,
		composition_json TEXT NOT NULL,
		last_updated INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_catalog_items_updated ON catalog_items(last_updated);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertItems inserts or fully replaces items by id. Writes are serialized:
// SQLite allows one writer at a time, and concurrent pipelines finishing
// together would otherwise contend past the busy timeout.
func (s *SQLiteStore) UpsertItems(ctx context.Context, items []domain.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query := `
	INSERT INTO catalog_items (id, name, description, price, image_url, marketplace_url, composition_json, last_updated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		price = excluded.price,
		image_url = excluded.image_url,
		marketplace_url = excluded.marketplace_url,
		composition_json = excluded.composition_json,
		last_updated = excluded.last_updated`

	for _, item := range items {
		composition, err := json.Marshal(compositionOrEmpty(item.Composition))
		if err != nil {
			return fmt.Errorf("marshal composition for item %d: %w", item.ID, err)
		}

		err = s.execWithRetry(ctx, query,
			item.ID, item.Name, item.Description, item.Price,
			item.ImageURL, item.MarketplaceURL, string(composition),
			item.LastUpdated.Unix(),
		)
		if err != nil {
			return fmt.Errorf("upsert item %d: %w", item.ID, err)
		}
		slog.Debug("Cached catalog item", "item_id", item.ID, "name", item.Name)
	}
	return nil
}

// execWithRetry retries SQLITE_BUSY conflicts with exponential backoff. These
// occur when concurrent pipelines write the cache at the same time.
func (s *SQLiteStore) execWithRetry(ctx context.Context, query string, args ...any) error {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		_, err = s.db.ExecContext(ctx, query, args...)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			return err
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("Catalog cache write hit a busy database, retrying",
			"attempt", i+1,
			"delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// ListItems returns every cached item.
func (s *SQLiteStore) ListItems(ctx context.Context) ([]domain.CatalogItem, error) {
	query := `
		SELECT id, name, description, price, image_url, marketplace_url, composition_json, last_updated
		FROM catalog_items ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("Failed to close catalog rows", "error", closeErr)
		}
	}()

	var items []domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		var composition string
		var lastUpdated int64

		err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.Price,
			&item.ImageURL, &item.MarketplaceURL, &composition, &lastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan catalog item row: %w", err)
		}

		if err := json.Unmarshal([]byte(composition), &item.Composition); err != nil {
			return nil, fmt.Errorf("unmarshal composition for item %d: %w", item.ID, err)
		}
		item.LastUpdated = time.Unix(lastUpdated, 0)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog items: %w", err)
	}

	return items, nil
}

func compositionOrEmpty(c []string) []string {
	if c == nil {
		return []string{}
	}
	return c
}
