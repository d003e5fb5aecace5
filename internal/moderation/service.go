package moderation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"veiller/internal/tracing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service orchestrates report intake and administrative restoration. Stores
// are injected at construction time; there is no ambient global handle.
type Service struct {
	content ContentStore
	reports ReportStore

	// now is the clock source, overridable in tests.
	now func() time.Time
}

// NewService creates a moderation service backed by the given stores.
func NewService(content ContentStore, reports ReportStore) *Service {
	return &Service{
		content: content,
		reports: reports,
		now:     time.Now,
	}
}

// SubmitReport runs one report submission end to end: validate the target,
// persist the report under the (content, reporter) uniqueness constraint,
// re-evaluate the full report history and durably apply any escalation.
//
// A result with an empty Rule means the report was recorded without any
// status change; callers must treat that as success. Validation failures
// surface as the package sentinel errors.
func (s *Service) SubmitReport(ctx context.Context, contentID, reporterID string) (*ReportResult, error) {
	ctx, span := tracing.ModerationSpan(ctx, "submit_report", contentID)
	defer span.End()

	head, err := s.content.GetContentHead(ctx, contentID)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("load content: %w", err)
	}
	if head == nil {
		return nil, ErrContentNotFound
	}
	if head.Status != StatusActive {
		return nil, ErrContentNotAvailable
	}
	if head.AuthorID == reporterID {
		return nil, ErrSelfReport
	}

	// One clock read for both the persisted report and the evaluation pass,
	// so the new report always falls inside its own trailing windows.
	nowMs := s.now().UnixMilli()

	if err := s.reports.InsertReport(ctx, contentID, reporterID, nowMs); err != nil {
		// ErrDuplicateReport passes through for the handler to map; the
		// uniqueness constraint is the only concurrency control intake
		// relies on, so the loser of a duplicate race lands here.
		tracing.EndWithError(span, err)
		return nil, err
	}

	timestamps, err := s.reports.ListReportTimestamps(ctx, contentID)
	if err != nil {
		// The report is persisted and stays valid; the next submission
		// re-evaluates the now-larger history.
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("list report timestamps: %w", err)
	}

	eval := Evaluate(timestamps, nowMs)
	if eval.Rule == "" {
		return &ReportResult{
			TotalReports: eval.TotalReports,
			Message:      "report recorded",
		}, nil
	}

	if err := s.applyEscalation(ctx, contentID, eval, nowMs); err != nil {
		tracing.EndWithError(span, err)
		return nil, err
	}

	return &ReportResult{
		Rule:            eval.Rule,
		Status:          eval.Status,
		TotalReports:    eval.TotalReports,
		ReportsInWindow: eval.ReportsInWindow,
		Message:         escalationMessage(eval),
	}, nil
}

// applyEscalation writes the status transition and, when the conditional
// update actually applied, appends the audit entry. The status write is
// authoritative; a failed log append is logged for operators and retried by
// no one (the dashboard tolerates gaps, public visibility does not).
func (s *Service) applyEscalation(ctx context.Context, contentID string, eval Evaluation, nowMs int64) error {
	meta := Meta{
		Status:                eval.Status,
		Rule:                  eval.Rule,
		TriggeredAt:           time.UnixMilli(nowMs).UTC(),
		TotalReportsAtTrigger: eval.TotalReports,
	}

	applied, err := s.content.ApplyModeration(ctx, contentID, meta)
	if err != nil {
		return fmt.Errorf("apply moderation: %w", err)
	}
	if !applied {
		// A concurrent report escalated first. The status is already
		// non-active and logged; nothing left to do.
		log.Debug().
			Str("content_id", contentID).
			Str("rule", string(eval.Rule)).
			Msg("moderation: escalation already applied by concurrent report")
		return nil
	}

	entry := LogEntry{
		ID:                uuid.NewString(),
		ContentID:         contentID,
		Rule:              eval.Rule,
		StatusApplied:     eval.Status,
		TotalReports:      eval.TotalReports,
		TimeWindowSeconds: ruleWindowSeconds(eval.Rule),
		Automatic:         true,
		Timestamp:         time.UnixMilli(nowMs).UTC(),
		Details: map[string]string{
			"timestamp_ms": strconv.FormatInt(nowMs, 10),
		},
	}
	if err := s.reports.AppendLogEntry(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("content_id", contentID).
			Str("rule", string(eval.Rule)).
			Msg("moderation: escalation applied but audit log append failed")
	}

	log.Warn().
		Str("content_id", contentID).
		Str("rule", string(eval.Rule)).
		Str("status", string(eval.Status)).
		Int("total_reports", eval.TotalReports).
		Int("reports_in_window", eval.ReportsInWindow).
		Msg("moderation: escalation rule triggered")

	return nil
}

// Restore is the administrative reversal of any moderation status back to
// active. Restoring already-active content is allowed and still logged; the
// report history is never touched, so a restored confession with enough
// historical reports re-escalates on its very next report.
//
// There is no automatic retry here: any persistence failure surfaces
// directly so the operator can decide.
func (s *Service) Restore(ctx context.Context, contentID, actorID string) error {
	ctx, span := tracing.ModerationSpan(ctx, "restore", contentID)
	defer span.End()

	head, err := s.content.GetContentHead(ctx, contentID)
	if err != nil {
		tracing.EndWithError(span, err)
		return fmt.Errorf("load content: %w", err)
	}
	if head == nil {
		return ErrContentNotFound
	}

	if err := s.content.RestoreContent(ctx, contentID); err != nil {
		tracing.EndWithError(span, err)
		return fmt.Errorf("restore content: %w", err)
	}

	now := s.now().UTC()
	entry := LogEntry{
		ID:            uuid.NewString(),
		ContentID:     contentID,
		Rule:          RuleManualRestore,
		StatusApplied: StatusActive,
		TotalReports:  0,
		Automatic:     false,
		Timestamp:     now,
		Details: map[string]string{
			"admin_id":    actorID,
			"restored_at": now.Format(time.RFC3339),
		},
	}
	if err := s.reports.AppendLogEntry(ctx, entry); err != nil {
		tracing.EndWithError(span, err)
		return fmt.Errorf("append restore log: %w", err)
	}

	log.Info().
		Str("content_id", contentID).
		Str("by", actorID).
		Str("previous_status", string(head.Status)).
		Msg("moderation: content restored")

	return nil
}

func ruleWindowSeconds(id RuleID) int {
	rule := RuleByID(id)
	if rule == nil || rule.Window == 0 {
		return 0
	}
	return int(rule.Window / time.Second)
}

func escalationMessage(eval Evaluation) string {
	switch eval.Rule {
	case RuleR1:
		return fmt.Sprintf("content hidden pending review (%d rapid reports)", eval.ReportsInWindow)
	case RuleR2:
		return fmt.Sprintf("content removed (%d reports in 5 minutes)", eval.ReportsInWindow)
	case RuleR3:
		return fmt.Sprintf("content deleted (%d reports in 1 hour)", eval.ReportsInWindow)
	case RuleR4:
		return fmt.Sprintf("content permanently deleted (%d total reports)", eval.TotalReports)
	}
	return "report recorded"
}
