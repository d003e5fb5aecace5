package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"veiller/internal/moderation"
	"veiller/internal/tracing"

	bolt "go.etcd.io/bbolt"
)

// ModerationStore provides persistent storage for report events and the
// moderation audit log. It implements moderation.ReportStore.
type ModerationStore struct {
	db *bolt.DB
}

// InsertReport records one report event. The (content, reporter) pair is the
// primary key, so a repeat report by the same user fails with
// moderation.ErrDuplicateReport without touching the time index.
func (s *ModerationStore) InsertReport(ctx context.Context, contentID, reporterID string, timestampMs int64) error {
	_, span := tracing.StoreSpan(ctx, "bolt", "insert_report")
	defer span.End()

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketReports)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketReports)
		}

		key := []byte(contentID + ":" + reporterID)
		if bucket.Get(key) != nil {
			return moderation.ErrDuplicateReport
		}
		if err := bucket.Put(key, []byte(strconv.FormatInt(timestampMs, 10))); err != nil {
			return err
		}

		// Index by time for window evaluation
		timeIndex := tx.Bucket(BucketReportsByTime)
		if timeIndex == nil {
			return fmt.Errorf("bucket not found: %s", BucketReportsByTime)
		}
		timeKey := fmt.Sprintf("%s:%020d:%s", contentID, timestampMs, reporterID)
		return timeIndex.Put([]byte(timeKey), nil)
	})
	if err != nil {
		tracing.EndWithError(span, err)
	}
	return err
}

// ListReportTimestamps returns every report time for a confession in
// ascending order.
func (s *ModerationStore) ListReportTimestamps(ctx context.Context, contentID string) ([]int64, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "list_report_timestamps")
	defer span.End()

	var timestamps []int64

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketReportsByTime)
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		prefix := []byte(contentID + ":")

		for k, _ := cursor.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = cursor.Next() {
			// Key format: contentID:paddedTsMs:reporterID
			rest := k[len(prefix):]
			sep := -1
			for i, b := range rest {
				if b == ':' {
					sep = i
					break
				}
			}
			if sep < 0 {
				continue // Skip malformed entries
			}
			ts, err := strconv.ParseInt(string(rest[:sep]), 10, 64)
			if err != nil {
				continue
			}
			timestamps = append(timestamps, ts)
		}

		return nil
	})

	return timestamps, err
}

// AppendLogEntry appends one audit trail entry, keyed for chronological
// iteration.
func (s *ModerationStore) AppendLogEntry(ctx context.Context, entry moderation.LogEntry) error {
	_, span := tracing.StoreSpan(ctx, "bolt", "append_log_entry")
	defer span.End()

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketModerationLog)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketModerationLog)
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal log entry: %w", err)
		}

		key := fmt.Sprintf("%020d:%s", entry.Timestamp.UnixNano(), entry.ID)
		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		tracing.EndWithError(span, err)
	}
	return err
}

// ListLogEntries returns the audit entries for one confession, newest first.
func (s *ModerationStore) ListLogEntries(ctx context.Context, contentID string) ([]moderation.LogEntry, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "list_log_entries")
	defer span.End()

	var entries []moderation.LogEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketModerationLog)
		if bucket == nil {
			return nil
		}

		// Keys are time-ordered; walk backwards for newest first
		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var entry moderation.LogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue // Skip malformed entries
			}
			if entry.ContentID != contentID {
				continue
			}
			entries = append(entries, entry)
		}

		return nil
	})

	return entries, err
}

// ListAuditLog returns the most recent audit entries across all content,
// newest first.
func (s *ModerationStore) ListAuditLog(ctx context.Context, limit int) ([]moderation.LogEntry, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "list_audit_log")
	defer span.End()

	var entries []moderation.LogEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketModerationLog)
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(entries) < limit; k, v = cursor.Prev() {
			var entry moderation.LogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue // Skip malformed entries
			}
			entries = append(entries, entry)
		}

		return nil
	})

	return entries, err
}

// CountLogEntriesSince counts audit entries recorded after the given time.
func (s *ModerationStore) CountLogEntriesSince(ctx context.Context, since time.Time) (int, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "count_log_entries_since")
	defer span.End()

	var count int

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketModerationLog)
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		seek := []byte(fmt.Sprintf("%020d", since.UnixNano()))
		for k, _ := cursor.Seek(seek); k != nil; k, _ = cursor.Next() {
			count++
		}

		return nil
	})

	return count, err
}
