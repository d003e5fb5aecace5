// Package boltstore provides persistent storage using BoltDB (bbolt).
// It backs the confession repository, the report store and the moderation
// audit log with a single database file. bbolt's single-writer transactions
// give the moderation engine its two required atomic sequences: unique report
// insert and conditional status update.
package boltstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names for organizing data
var (
	// BucketConfessions stores full confession records keyed by ID
	BucketConfessions = []byte("confessions")

	// BucketFeedByTime indexes confessions chronologically: {tsNano:id} -> {id}
	BucketFeedByTime = []byte("feed_by_time")

	// BucketReports stores report events keyed by "contentID:reporterID";
	// key existence is the (content, reporter) uniqueness constraint
	BucketReports = []byte("confession_reports")

	// BucketReportsByTime indexes reports per confession in timestamp
	// order: {contentID:paddedTsMs:reporterID} -> {}
	BucketReportsByTime = []byte("confession_reports_by_time")

	// BucketModerationLog stores the audit trail keyed by {paddedTsNano:id}
	// for chronological iteration
	BucketModerationLog = []byte("moderation_log")
)

// Store wraps a BoltDB database and provides access to specialized stores.
type Store struct {
	db *bolt.DB
}

// Options configures the BoltDB store.
type Options struct {
	// Path to the database file. Parent directories will be created if needed.
	Path string

	// Timeout for obtaining a file lock on the database.
	// If zero, a default of 5 seconds is used.
	Timeout time.Duration

	// FileMode for creating the database file.
	// If zero, 0600 is used.
	FileMode os.FileMode
}

// Open creates or opens a BoltDB database at the specified path.
// It creates all necessary buckets if they don't exist.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		opts.Path = "veiller.db"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0600
	}

	// Ensure parent directory exists
	dir := filepath.Dir(opts.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bolt.Open(opts.Path, opts.FileMode, &bolt.Options{
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			BucketConfessions,
			BucketFeedByTime,
			BucketReports,
			BucketReportsByTime,
			BucketModerationLog,
		}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying BoltDB instance for advanced operations.
func (s *Store) DB() *bolt.DB {
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

// Stats returns database statistics.
func (s *Store) Stats() bolt.Stats {
	return s.db.Stats()
}

// hasPrefix checks if a byte slice has a given prefix.
func hasPrefix(s, prefix []byte) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if s[i] != b {
			return false
		}
	}
	return true
}
