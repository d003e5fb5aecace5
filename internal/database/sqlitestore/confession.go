package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"veiller/internal/models"
	"veiller/internal/moderation"
	"veiller/internal/tracing"

	"github.com/google/uuid"
)

// ConfessionStore provides persistent storage for confessions. It implements
// both database.Store and moderation.ContentStore.
type ConfessionStore struct {
	db *sql.DB
}

const confessionColumns = `id, author_id, content, mood, created_at,
	moderation_status, moderation_rule, moderation_triggered_at, total_reports_at_trigger`

func scanConfession(row interface{ Scan(...any) error }) (*models.Confession, error) {
	var c models.Confession
	var triggeredAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.AuthorID, &c.Content, &c.Mood, &c.CreatedAt,
		&c.ModerationStatus, &c.ModerationRule, &triggeredAt, &c.TotalReportsAtTrigger,
	)
	if err != nil {
		return nil, err
	}
	if triggeredAt.Valid {
		t := triggeredAt.Time
		c.ModerationTriggeredAt = &t
	}
	return &c, nil
}

// CreateConfession persists a new confession with an active moderation status.
func (s *ConfessionStore) CreateConfession(ctx context.Context, authorID string, req *models.CreateConfessionRequest) (*models.Confession, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "create_confession")
	defer span.End()

	confession := &models.Confession{
		ID:               uuid.NewString(),
		AuthorID:         authorID,
		Content:          req.Content,
		Mood:             req.Mood,
		CreatedAt:        time.Now().UTC(),
		ModerationStatus: moderation.StatusActive,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confessions (id, author_id, content, mood, created_at, moderation_status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		confession.ID, confession.AuthorID, confession.Content, confession.Mood,
		confession.CreatedAt, confession.ModerationStatus,
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("insert confession: %w", err)
	}

	return confession, nil
}

// GetConfession retrieves a confession by ID, or nil when absent.
func (s *ConfessionStore) GetConfession(ctx context.Context, id string) (*models.Confession, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "get_confession")
	defer span.End()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+confessionColumns+` FROM confessions WHERE id = ?`, id)

	confession, err := scanConfession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("get confession: %w", err)
	}
	return confession, nil
}

// ListFeed returns active confessions, newest first.
func (s *ConfessionStore) ListFeed(ctx context.Context, limit int) ([]*models.Confession, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "list_feed")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+confessionColumns+`
		FROM confessions
		WHERE moderation_status = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		moderation.StatusActive, limit,
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("list feed: %w", err)
	}
	defer rows.Close()

	return collectConfessions(rows)
}

// ListModerated returns non-active confessions matching the queue filter,
// most recently triggered first.
func (s *ConfessionStore) ListModerated(ctx context.Context, filter moderation.QueueFilter, limit int) ([]*models.Confession, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "list_moderated")
	defer span.End()

	var statuses []any
	for _, status := range moderation.ModeratedStatuses() {
		if filter.Matches(status) {
			statuses = append(statuses, status)
		}
	}
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := "?"
	for i := 1; i < len(statuses); i++ {
		placeholders += ", ?"
	}
	args := append(statuses, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+confessionColumns+`
		FROM confessions
		WHERE moderation_status IN (`+placeholders+`)
		ORDER BY moderation_triggered_at DESC
		LIMIT ?`,
		args...,
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("list moderated: %w", err)
	}
	defer rows.Close()

	return collectConfessions(rows)
}

func collectConfessions(rows *sql.Rows) ([]*models.Confession, error) {
	var confessions []*models.Confession
	for rows.Next() {
		confession, err := scanConfession(rows)
		if err != nil {
			return nil, err
		}
		confessions = append(confessions, confession)
	}
	return confessions, rows.Err()
}

// CountModeratedByStatus returns the number of confessions per non-active
// status. Every moderated status is present in the map, zero-valued when empty.
func (s *ConfessionStore) CountModeratedByStatus(ctx context.Context) (map[moderation.ModerationStatus]int, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "count_moderated")
	defer span.End()

	counts := make(map[moderation.ModerationStatus]int)
	for _, status := range moderation.ModeratedStatuses() {
		counts[status] = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT moderation_status, COUNT(*)
		FROM confessions
		WHERE moderation_status != ?
		GROUP BY moderation_status`,
		moderation.StatusActive,
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("count moderated: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status moderation.ModerationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// GetContentHead returns the author and status of a confession, or (nil, nil)
// when it does not exist.
func (s *ConfessionStore) GetContentHead(ctx context.Context, contentID string) (*moderation.ContentHead, error) {
	var head moderation.ContentHead
	err := s.db.QueryRowContext(ctx,
		`SELECT author_id, moderation_status FROM confessions WHERE id = ?`, contentID,
	).Scan(&head.AuthorID, &head.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content head: %w", err)
	}
	return &head, nil
}

// ApplyModeration writes the escalation meta if the confession is still
// active. The WHERE clause makes the write conditional, so of two racing
// escalations exactly one observes applied=true.
func (s *ConfessionStore) ApplyModeration(ctx context.Context, contentID string, meta moderation.Meta) (bool, error) {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "apply_moderation")
	defer span.End()

	res, err := s.db.ExecContext(ctx, `
		UPDATE confessions
		SET moderation_status = ?,
		    moderation_rule = ?,
		    moderation_triggered_at = ?,
		    total_reports_at_trigger = ?
		WHERE id = ? AND moderation_status = ?`,
		meta.Status, meta.Rule, meta.TriggeredAt, meta.TotalReportsAtTrigger,
		contentID, moderation.StatusActive,
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return false, fmt.Errorf("apply moderation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// RestoreContent sets the status back to active, retaining the rule tag,
// trigger time and report snapshot from the last escalation.
func (s *ConfessionStore) RestoreContent(ctx context.Context, contentID string) error {
	ctx, span := tracing.StoreSpan(ctx, "sqlite", "restore_content")
	defer span.End()

	res, err := s.db.ExecContext(ctx,
		`UPDATE confessions SET moderation_status = ? WHERE id = ?`,
		moderation.StatusActive, contentID,
	)
	if err != nil {
		tracing.EndWithError(span, err)
		return fmt.Errorf("restore content: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("confession not found: %s", contentID)
	}
	return nil
}
