package moderation

import "time"

// ModerationStatus is the visibility state of a confession. It is a closed
// enumeration: consumers switch over it exhaustively so that adding a status
// is a compile-time-checked change.
type ModerationStatus string

const (
	// StatusActive is the initial state; the confession is publicly visible.
	StatusActive ModerationStatus = "active"

	// StatusHiddenPendingReview is applied by rule R1 (report burst).
	StatusHiddenPendingReview ModerationStatus = "hidden_pending_review"

	// StatusRemovedHighRisk is applied by rule R2.
	StatusRemovedHighRisk ModerationStatus = "removed_high_risk"

	// StatusAutoDeletedMassReports is applied by rule R3.
	StatusAutoDeletedMassReports ModerationStatus = "auto_deleted_mass_reports"

	// StatusAutoDeletedAbsolute is applied by rule R4 (all-time threshold).
	StatusAutoDeletedAbsolute ModerationStatus = "auto_deleted_absolute_threshold"
)

// AllStatuses returns every status in severity order, active first.
func AllStatuses() []ModerationStatus {
	return []ModerationStatus{
		StatusActive,
		StatusHiddenPendingReview,
		StatusRemovedHighRisk,
		StatusAutoDeletedMassReports,
		StatusAutoDeletedAbsolute,
	}
}

// ModeratedStatuses returns the four non-active statuses in severity order.
func ModeratedStatuses() []ModerationStatus {
	return []ModerationStatus{
		StatusHiddenPendingReview,
		StatusRemovedHighRisk,
		StatusAutoDeletedMassReports,
		StatusAutoDeletedAbsolute,
	}
}

// Valid reports whether s is one of the five known statuses.
func (s ModerationStatus) Valid() bool {
	switch s {
	case StatusActive,
		StatusHiddenPendingReview,
		StatusRemovedHighRisk,
		StatusAutoDeletedMassReports,
		StatusAutoDeletedAbsolute:
		return true
	}
	return false
}

// RuleID identifies which escalation rule (or manual action) produced a
// status transition.
type RuleID string

const (
	RuleR1 RuleID = "R1"
	RuleR2 RuleID = "R2"
	RuleR3 RuleID = "R3"
	RuleR4 RuleID = "R4"

	// RuleManualRestore tags administrative restorations in the audit log.
	RuleManualRestore RuleID = "MANUAL_RESTORE"
)

// Meta holds the moderation fields owned by this subsystem on a confession
// record. Rule, TriggeredAt and TotalReportsAtTrigger survive a manual
// restoration so the audit trail stays reconstructable.
type Meta struct {
	Status                ModerationStatus `json:"moderation_status"`
	Rule                  RuleID           `json:"moderation_rule,omitempty"`
	TriggeredAt           time.Time        `json:"moderation_triggered_at,omitzero"`
	TotalReportsAtTrigger int              `json:"total_reports_at_trigger,omitempty"`
}

// ContentHead is the narrow view of a confession the intake path needs:
// who wrote it and whether it is still reportable.
type ContentHead struct {
	AuthorID string
	Status   ModerationStatus
}

// LogEntry is one append-only audit trail record, written once per status
// transition (automatic escalation or manual restore).
type LogEntry struct {
	ID                string            `json:"id"`
	ContentID         string            `json:"content_id"`
	Rule              RuleID            `json:"rule_triggered"`
	StatusApplied     ModerationStatus  `json:"status_applied"`
	TotalReports      int               `json:"total_reports"`
	TimeWindowSeconds int               `json:"time_window_seconds,omitempty"`
	Automatic         bool              `json:"automatic"`
	Timestamp         time.Time         `json:"timestamp"`
	Details           map[string]string `json:"details,omitempty"`
}

// ReportResult is returned to the caller for every accepted report,
// whether or not a rule fired.
type ReportResult struct {
	Rule            RuleID           `json:"rule,omitempty"`
	Status          ModerationStatus `json:"status,omitempty"`
	TotalReports    int              `json:"total_reports"`
	ReportsInWindow int              `json:"reports_in_window,omitempty"`
	Message         string           `json:"message"`
}

// QueueFilter selects which moderated statuses appear in the admin queue.
type QueueFilter string

const (
	QueueAll      QueueFilter = "all"
	QueueR1       QueueFilter = "R1"
	QueueR2       QueueFilter = "R2"
	QueueCritical QueueFilter = "critical"
)

// Matches reports whether a confession with the given status belongs in the
// filtered queue. Active content never appears in any queue.
func (f QueueFilter) Matches(status ModerationStatus) bool {
	switch status {
	case StatusActive:
		return false
	case StatusHiddenPendingReview:
		return f == QueueAll || f == QueueR1
	case StatusRemovedHighRisk:
		return f == QueueAll || f == QueueR2
	case StatusAutoDeletedMassReports, StatusAutoDeletedAbsolute:
		return f == QueueAll || f == QueueCritical
	}
	return false
}

// ParseQueueFilter maps a query parameter to a QueueFilter, defaulting to all.
func ParseQueueFilter(s string) QueueFilter {
	switch QueueFilter(s) {
	case QueueR1, QueueR2, QueueCritical:
		return QueueFilter(s)
	default:
		return QueueAll
	}
}
