package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"veiller/internal/moderation"
	"veiller/internal/tracing"
)

// ModerationStore provides persistent storage for report events and the
// moderation audit log. It implements moderation.ReportStore.
type ModerationStore struct {
	db *sql.DB
}

// InsertReport records one report event. The UNIQUE(confession_id,
// reporter_id) constraint rejects a repeat report by the same user, surfaced
// as moderation.ErrDuplicateReport.
func (s *ModerationStore) InsertReport(ctx context.Context, contentID, reporterID string, timestampMs int64) error {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "insert_report")
	defer span.End()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confession_reports (confession_id, reporter_id, reported_at_ms)
		VALUES (?, ?, ?)`,
		contentID, reporterID, timestampMs,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return moderation.ErrDuplicateReport
		}
		tracing.EndWithError(span, err)
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReportTimestamps returns every report time for a confession in
// ascending order.
func (s *ModerationStore) ListReportTimestamps(ctx context.Context, contentID string) ([]int64, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "list_report_timestamps")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT reported_at_ms
		FROM confession_reports
		WHERE confession_id = ?
		ORDER BY reported_at_ms ASC`,
		contentID,
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("list report timestamps: %w", err)
	}
	defer rows.Close()

	var timestamps []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		timestamps = append(timestamps, ts)
	}
	return timestamps, rows.Err()
}

// AppendLogEntry appends one audit trail entry.
func (s *ModerationStore) AppendLogEntry(ctx context.Context, entry moderation.LogEntry) error {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "append_log_entry")
	defer span.End()

	details := entry.Details
	if details == nil {
		details = map[string]string{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal log details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO moderation_logs
			(id, confession_id, rule_triggered, status_applied, total_reports,
			 time_window_seconds, automatic, created_at, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ContentID, entry.Rule, entry.StatusApplied, entry.TotalReports,
		entry.TimeWindowSeconds, entry.Automatic, entry.Timestamp, string(detailsJSON),
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

const logColumns = `id, confession_id, rule_triggered, status_applied, total_reports,
	time_window_seconds, automatic, created_at, details`

func scanLogEntry(rows *sql.Rows) (moderation.LogEntry, error) {
	var entry moderation.LogEntry
	var detailsJSON string
	err := rows.Scan(
		&entry.ID, &entry.ContentID, &entry.Rule, &entry.StatusApplied, &entry.TotalReports,
		&entry.TimeWindowSeconds, &entry.Automatic, &entry.Timestamp, &detailsJSON,
	)
	if err != nil {
		return entry, err
	}
	if detailsJSON != "" && detailsJSON != "{}" {
		if err := json.Unmarshal([]byte(detailsJSON), &entry.Details); err != nil {
			return entry, fmt.Errorf("unmarshal log details: %w", err)
		}
	}
	return entry, nil
}

// ListLogEntries returns the audit entries for one confession, newest first.
func (s *ModerationStore) ListLogEntries(ctx context.Context, contentID string) ([]moderation.LogEntry, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "list_log_entries")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+logColumns+`
		FROM moderation_logs
		WHERE confession_id = ?
		ORDER BY created_at DESC`,
		contentID,
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	defer rows.Close()

	return collectLogEntries(rows)
}

// ListAuditLog returns the most recent audit entries across all content,
// newest first.
func (s *ModerationStore) ListAuditLog(ctx context.Context, limit int) ([]moderation.LogEntry, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "list_audit_log")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+logColumns+`
		FROM moderation_logs
		ORDER BY created_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	return collectLogEntries(rows)
}

func collectLogEntries(rows *sql.Rows) ([]moderation.LogEntry, error) {
	var entries []moderation.LogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountLogEntriesSince counts audit entries recorded after the given time.
func (s *ModerationStore) CountLogEntriesSince(ctx context.Context, since time.Time) (int, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "count_log_entries_since")
	defer span.End()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM moderation_logs WHERE created_at >= ?`, since,
	).Scan(&count)
	if err != nil {
		tracing.EndWithError(span, err)
		return 0, fmt.Errorf("count log entries: %w", err)
	}
	return count, nil
}
