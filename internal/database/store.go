package database

import (
	"context"

	"veiller/internal/models"
	"veiller/internal/moderation"
)

// Store defines the confession repository consumed by the HTTP layer. The
// moderation engine itself depends only on the narrower moderation.ContentStore
// and moderation.ReportStore interfaces; both backends implement all three.
// All methods accept a context.Context to support cancellation and timeouts.
type Store interface {
	// CreateConfession persists a new confession for the given author and
	// returns it with ID, timestamps and an active moderation status.
	CreateConfession(ctx context.Context, authorID string, req *models.CreateConfessionRequest) (*models.Confession, error)

	// GetConfession returns a confession by ID, or nil when absent.
	// Moderated content is returned too; visibility filtering is the
	// caller's concern.
	GetConfession(ctx context.Context, id string) (*models.Confession, error)

	// ListFeed returns active confessions, newest first.
	ListFeed(ctx context.Context, limit int) ([]*models.Confession, error)

	// ListModerated returns non-active confessions matching the queue
	// filter, most recently triggered first.
	ListModerated(ctx context.Context, filter moderation.QueueFilter, limit int) ([]*models.Confession, error)

	// CountModeratedByStatus returns the number of confessions per
	// non-active status. Every moderated status is present in the map,
	// zero-valued when empty.
	CountModeratedByStatus(ctx context.Context) (map[moderation.ModerationStatus]int, error)
}
