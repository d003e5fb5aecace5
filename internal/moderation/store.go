package moderation

import (
	"context"
	"time"
)

// ContentStore is the slice of the confession repository the moderation
// subsystem depends on. Implementations must be safe for concurrent use and
// must make ApplyModeration conditional so two racing escalations cannot
// clobber each other's audit snapshot.
type ContentStore interface {
	// GetContentHead returns the author and current status of a confession,
	// or (nil, nil) when it does not exist.
	GetContentHead(ctx context.Context, contentID string) (*ContentHead, error)

	// ApplyModeration writes the escalation meta if and only if the
	// confession is still active. Returns whether the write applied; a
	// false result means another escalation got there first and the caller
	// must not append a second audit entry.
	ApplyModeration(ctx context.Context, contentID string, meta Meta) (bool, error)

	// RestoreContent sets the status back to active, retaining the prior
	// rule tag, trigger time and report snapshot.
	RestoreContent(ctx context.Context, contentID string) error
}

// ReportStore persists report events and the append-only audit trail.
// Implementations must enforce at most one report per (content, reporter)
// pair and return ErrDuplicateReport when that constraint rejects an insert.
type ReportStore interface {
	// InsertReport records one report event with the intake-assigned
	// millisecond timestamp.
	InsertReport(ctx context.Context, contentID, reporterID string, timestampMs int64) error

	// ListReportTimestamps returns every report time for a confession in
	// ascending order, including the report just inserted.
	ListReportTimestamps(ctx context.Context, contentID string) ([]int64, error)

	// AppendLogEntry appends one audit trail entry.
	AppendLogEntry(ctx context.Context, entry LogEntry) error

	// ListLogEntries returns the audit entries for one confession, newest
	// first.
	ListLogEntries(ctx context.Context, contentID string) ([]LogEntry, error)

	// ListAuditLog returns the most recent audit entries across all
	// content, newest first.
	ListAuditLog(ctx context.Context, limit int) ([]LogEntry, error)

	// CountLogEntriesSince counts audit entries recorded after the given
	// time. Used by the dashboard stats.
	CountLogEntriesSince(ctx context.Context, since time.Time) (int, error)
}
