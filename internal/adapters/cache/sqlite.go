package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/isp/pkg/logger"
	_ "modernc.org/sqlite"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS location_cache (
	location   TEXT PRIMARY KEY,
	canonical  TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLite persists classifier answers so a restart does not re-classify
// locations already seen.
type SQLite struct {
	db  *sql.DB
	log logger.Logger
}

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenCache, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpenCache, err)
	}
	return &SQLite{db: db, log: logger.Get().Named("location-cache")}, nil
}

// Get implements location.Cache. Read errors count as misses.
func (c *SQLite) Get(ctx context.Context, key string) (string, bool) {
	var v string
	err := c.db.QueryRowContext(ctx, `SELECT canonical FROM location_cache WHERE location = ?`, key).Scan(&v)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.log.Warn(ctx, "location cache read failed", logger.String("location", key), logger.Error(err))
		}
		return "", false
	}
	return v, true
}

// Put implements location.Cache. Write errors are logged and dropped.
func (c *SQLite) Put(ctx context.Context, key, value string) {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO location_cache (location, canonical) VALUES (?, ?)
		 ON CONFLICT(location) DO UPDATE SET canonical = excluded.canonical`, key, value)
	if err != nil {
		c.log.Warn(ctx, "location cache write failed", logger.String("location", key), logger.Error(err))
	}
}

// Len returns the number of rows, or 0 when the count fails.
func (c *SQLite) Len() int {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM location_cache`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database.
func (c *SQLite) Close() error { return c.db.Close() }
