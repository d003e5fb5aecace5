package database

import (
	"context"

	"veiller/internal/models"
	"veiller/internal/moderation"
)

// MockStore is a mock implementation of the Store interface for testing.
// Uses function fields to allow tests to inject custom behavior.
type MockStore struct {
	CreateConfessionFunc       func(ctx context.Context, authorID string, req *models.CreateConfessionRequest) (*models.Confession, error)
	GetConfessionFunc          func(ctx context.Context, id string) (*models.Confession, error)
	ListFeedFunc               func(ctx context.Context, limit int) ([]*models.Confession, error)
	ListModeratedFunc          func(ctx context.Context, filter moderation.QueueFilter, limit int) ([]*models.Confession, error)
	CountModeratedByStatusFunc func(ctx context.Context) (map[moderation.ModerationStatus]int, error)
}

// CreateConfession calls the mock function or returns nil if not set
func (m *MockStore) CreateConfession(ctx context.Context, authorID string, req *models.CreateConfessionRequest) (*models.Confession, error) {
	if m.CreateConfessionFunc != nil {
		return m.CreateConfessionFunc(ctx, authorID, req)
	}
	return nil, nil
}

// GetConfession calls the mock function or returns nil if not set
func (m *MockStore) GetConfession(ctx context.Context, id string) (*models.Confession, error) {
	if m.GetConfessionFunc != nil {
		return m.GetConfessionFunc(ctx, id)
	}
	return nil, nil
}

// ListFeed calls the mock function or returns empty slice if not set
func (m *MockStore) ListFeed(ctx context.Context, limit int) ([]*models.Confession, error) {
	if m.ListFeedFunc != nil {
		return m.ListFeedFunc(ctx, limit)
	}
	return []*models.Confession{}, nil
}

// ListModerated calls the mock function or returns empty slice if not set
func (m *MockStore) ListModerated(ctx context.Context, filter moderation.QueueFilter, limit int) ([]*models.Confession, error) {
	if m.ListModeratedFunc != nil {
		return m.ListModeratedFunc(ctx, filter, limit)
	}
	return []*models.Confession{}, nil
}

// CountModeratedByStatus calls the mock function or returns zeroed counts if not set
func (m *MockStore) CountModeratedByStatus(ctx context.Context) (map[moderation.ModerationStatus]int, error) {
	if m.CountModeratedByStatusFunc != nil {
		return m.CountModeratedByStatusFunc(ctx)
	}
	counts := make(map[moderation.ModerationStatus]int)
	for _, status := range moderation.ModeratedStatuses() {
		counts[status] = 0
	}
	return counts, nil
}
