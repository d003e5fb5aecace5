// Package sqlitestore provides persistent storage using SQLite via the pure-Go
// modernc.org driver, instrumented with otelsql. The UNIQUE constraint on
// (confession_id, reporter_id) and conditional UPDATEs on moderation_status
// give the moderation engine its atomic sequences.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/XSAM/otelsql"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS confessions (
    id TEXT PRIMARY KEY,
    author_id TEXT NOT NULL,
    content TEXT NOT NULL,
    mood TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    moderation_status TEXT NOT NULL DEFAULT 'active',
    moderation_rule TEXT NOT NULL DEFAULT '',
    moderation_triggered_at TIMESTAMP NULL,
    total_reports_at_trigger INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS confession_reports (
    confession_id TEXT NOT NULL,
    reporter_id TEXT NOT NULL,
    reported_at_ms INTEGER NOT NULL,
    UNIQUE(confession_id, reporter_id)
);

CREATE TABLE IF NOT EXISTS moderation_logs (
    id TEXT PRIMARY KEY,
    confession_id TEXT NOT NULL,
    rule_triggered TEXT NOT NULL,
    status_applied TEXT NOT NULL,
    total_reports INTEGER NOT NULL,
    time_window_seconds INTEGER NOT NULL DEFAULT 0,
    automatic INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    details TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_confessions_status_created ON confessions (moderation_status, created_at);
CREATE INDEX IF NOT EXISTS idx_confessions_triggered ON confessions (moderation_triggered_at);
CREATE INDEX IF NOT EXISTS idx_reports_confession_time ON confession_reports (confession_id, reported_at_ms);
CREATE INDEX IF NOT EXISTS idx_logs_confession ON moderation_logs (confession_id, created_at);
CREATE INDEX IF NOT EXISTS idx_logs_created ON moderation_logs (created_at);
`

// Store wraps a SQLite database and provides access to specialized stores.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the specified path and applies
// the schema. The connection is instrumented with otelsql so queries show up
// as spans under the registered tracer provider.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "veiller.sqlite"
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	driverName, err := otelsql.Register("sqlite",
		otelsql.WithAttributes(
			attribute.String("db.system", "sqlite"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent report bursts.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("sqlite store opened")
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ConfessionStore returns a confession repository backed by this database.
func (s *Store) ConfessionStore() *ConfessionStore {
	return &ConfessionStore{db: s.db}
}

// ModerationStore returns a report/audit store backed by this database.
func (s *Store) ModerationStore() *ModerationStore {
	return &ModerationStore{db: s.db}
}
