package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"veiller/internal/models"
	"veiller/internal/moderation"
	"veiller/internal/tracing"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// ConfessionStore provides persistent storage for confessions. It implements
// both database.Store and moderation.ContentStore.
type ConfessionStore struct {
	db *bolt.DB
}

// CreateConfession persists a new confession with an active moderation status.
func (s *ConfessionStore) CreateConfession(ctx context.Context, authorID string, req *models.CreateConfessionRequest) (*models.Confession, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "create_confession")
	defer span.End()

	confession := &models.Confession{
		ID:               uuid.NewString(),
		AuthorID:         authorID,
		Content:          req.Content,
		Mood:             req.Mood,
		CreatedAt:        time.Now().UTC(),
		ModerationStatus: moderation.StatusActive,
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketConfessions)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketConfessions)
		}

		data, err := json.Marshal(confession)
		if err != nil {
			return fmt.Errorf("failed to marshal confession: %w", err)
		}

		if err := bucket.Put([]byte(confession.ID), data); err != nil {
			return err
		}

		// Index chronologically for feed iteration
		feedIndex := tx.Bucket(BucketFeedByTime)
		if feedIndex == nil {
			return fmt.Errorf("bucket not found: %s", BucketFeedByTime)
		}
		key := fmt.Sprintf("%020d:%s", confession.CreatedAt.UnixNano(), confession.ID)
		return feedIndex.Put([]byte(key), []byte(confession.ID))
	})
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, err
	}

	return confession, nil
}

// GetConfession retrieves a confession by ID, or nil when absent.
func (s *ConfessionStore) GetConfession(ctx context.Context, id string) (*models.Confession, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "get_confession")
	defer span.End()

	var confession *models.Confession

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketConfessions)
		if bucket == nil {
			return nil
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return nil
		}

		confession = &models.Confession{}
		return json.Unmarshal(data, confession)
	})

	return confession, err
}

// ListFeed returns active confessions, newest first.
func (s *ConfessionStore) ListFeed(ctx context.Context, limit int) ([]*models.Confession, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "list_feed")
	defer span.End()

	var confessions []*models.Confession

	err := s.db.View(func(tx *bolt.Tx) error {
		feedIndex := tx.Bucket(BucketFeedByTime)
		bucket := tx.Bucket(BucketConfessions)
		if feedIndex == nil || bucket == nil {
			return nil
		}

		// Iterate the time index backwards for newest-first order
		cursor := feedIndex.Cursor()
		for k, id := cursor.Last(); k != nil && len(confessions) < limit; k, id = cursor.Prev() {
			data := bucket.Get(id)
			if data == nil {
				continue
			}

			var confession models.Confession
			if err := json.Unmarshal(data, &confession); err != nil {
				continue // Skip malformed entries
			}
			if confession.ModerationStatus != moderation.StatusActive {
				continue
			}
			confessions = append(confessions, &confession)
		}

		return nil
	})

	return confessions, err
}

// ListModerated returns non-active confessions matching the queue filter,
// most recently triggered first.
func (s *ConfessionStore) ListModerated(ctx context.Context, filter moderation.QueueFilter, limit int) ([]*models.Confession, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "list_moderated")
	defer span.End()

	var confessions []*models.Confession

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketConfessions)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var confession models.Confession
			if err := json.Unmarshal(v, &confession); err != nil {
				return nil // Skip malformed entries
			}
			if !filter.Matches(confession.ModerationStatus) {
				return nil
			}
			confessions = append(confessions, &confession)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(confessions, func(i, j int) bool {
		ti, tj := confessions[i].ModerationTriggeredAt, confessions[j].ModerationTriggeredAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.After(*tj)
	})
	if len(confessions) > limit {
		confessions = confessions[:limit]
	}

	return confessions, nil
}

// CountModeratedByStatus returns the number of confessions per non-active
// status. Every moderated status is present in the map, zero-valued when empty.
func (s *ConfessionStore) CountModeratedByStatus(ctx context.Context) (map[moderation.ModerationStatus]int, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "count_moderated")
	defer span.End()

	counts := make(map[moderation.ModerationStatus]int)
	for _, status := range moderation.ModeratedStatuses() {
		counts[status] = 0
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketConfessions)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var confession models.Confession
			if err := json.Unmarshal(v, &confession); err != nil {
				return nil // Skip malformed entries
			}
			if confession.ModerationStatus != moderation.StatusActive {
				counts[confession.ModerationStatus]++
			}
			return nil
		})
	})

	return counts, err
}

// GetContentHead returns the author and status of a confession, or (nil, nil)
// when it does not exist.
func (s *ConfessionStore) GetContentHead(ctx context.Context, contentID string) (*moderation.ContentHead, error) {
	confession, err := s.GetConfession(ctx, contentID)
	if err != nil || confession == nil {
		return nil, err
	}
	return &moderation.ContentHead{
		AuthorID: confession.AuthorID,
		Status:   confession.ModerationStatus,
	}, nil
}

// ApplyModeration writes the escalation meta if the confession is still
// active. The read-check-write runs inside one update transaction, so two
// racing escalations serialize and exactly one observes applied=true.
func (s *ConfessionStore) ApplyModeration(ctx context.Context, contentID string, meta moderation.Meta) (bool, error) {
	_, span := tracing.StoreSpan(ctx, "bolt", "apply_moderation")
	defer span.End()

	var applied bool

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketConfessions)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketConfessions)
		}

		data := bucket.Get([]byte(contentID))
		if data == nil {
			return fmt.Errorf("confession not found: %s", contentID)
		}

		var confession models.Confession
		if err := json.Unmarshal(data, &confession); err != nil {
			return err
		}
		if confession.ModerationStatus != moderation.StatusActive {
			return nil
		}

		triggeredAt := meta.TriggeredAt
		confession.ModerationStatus = meta.Status
		confession.ModerationRule = meta.Rule
		confession.ModerationTriggeredAt = &triggeredAt
		confession.TotalReportsAtTrigger = meta.TotalReportsAtTrigger

		newData, err := json.Marshal(&confession)
		if err != nil {
			return err
		}
		if err := bucket.Put([]byte(contentID), newData); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		tracing.EndWithError(span, err)
		return false, err
	}

	return applied, nil
}

// RestoreContent sets the status back to active, retaining the rule tag,
// trigger time and report snapshot from the last escalation.
func (s *ConfessionStore) RestoreContent(ctx context.Context, contentID string) error {
	_, span := tracing.StoreSpan(ctx, "bolt", "restore_content")
	defer span.End()

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketConfessions)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketConfessions)
		}

		data := bucket.Get([]byte(contentID))
		if data == nil {
			return fmt.Errorf("confession not found: %s", contentID)
		}

		var confession models.Confession
		if err := json.Unmarshal(data, &confession); err != nil {
			return err
		}

		confession.ModerationStatus = moderation.StatusActive

		newData, err := json.Marshal(&confession)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(contentID), newData)
	})
	if err != nil {
		tracing.EndWithError(span, err)
	}
	return err
}
