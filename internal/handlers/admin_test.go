package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"veiller/internal/models"
	"veiller/internal/moderation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRestore(t *testing.T) {
	t.Run("requires identity", func(t *testing.T) {
		tc := NewTestContext(t)
		req := NewJSONRequest(http.MethodPost, "/_mod/restore", "", RestoreRequest{ConfessionID: "c1"})
		rec := httptest.NewRecorder()
		tc.Handler.HandleRestore(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("forbidden without restore permission", func(t *testing.T) {
		tc := NewTestContext(t)
		// mod-1 can view the queue but not restore
		req := NewJSONRequest(http.MethodPost, "/_mod/restore", "mod-1", RestoreRequest{ConfessionID: "c1"})
		rec := httptest.NewRecorder()
		tc.Handler.HandleRestore(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing confession_id", func(t *testing.T) {
		tc := NewTestContext(t)
		req := NewJSONRequest(http.MethodPost, "/_mod/restore", "admin-1", RestoreRequest{})
		rec := httptest.NewRecorder()
		tc.Handler.HandleRestore(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown confession is 404", func(t *testing.T) {
		tc := NewTestContext(t)
		req := NewJSONRequest(http.MethodPost, "/_mod/restore", "admin-1", RestoreRequest{ConfessionID: "nonexistent"})
		rec := httptest.NewRecorder()
		tc.Handler.HandleRestore(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("restores and logs", func(t *testing.T) {
		tc := NewTestContext(t)
		restored := false
		tc.Content.RestoreContentFunc = func(ctx context.Context, contentID string) error {
			restored = true
			return nil
		}

		req := NewJSONRequest(http.MethodPost, "/_mod/restore", "admin-1",
			RestoreRequest{ConfessionID: tc.Fixtures.Moderated.ID})
		rec := httptest.NewRecorder()
		tc.Handler.HandleRestore(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, restored)
		entries := tc.Reports.LogEntries()
		require.Len(t, entries, 1)
		assert.Equal(t, moderation.RuleManualRestore, entries[0].Rule)
		assert.Equal(t, "admin-1", entries[0].Details["admin_id"])
	})
}

func TestHandleQueue(t *testing.T) {
	tc := NewTestContext(t)

	var gotFilter moderation.QueueFilter
	tc.MockStore.ListModeratedFunc = func(ctx context.Context, filter moderation.QueueFilter, limit int) ([]*models.Confession, error) {
		gotFilter = filter
		return []*models.Confession{tc.Fixtures.Moderated}, nil
	}

	t.Run("forbidden for strangers", func(t *testing.T) {
		req := NewJSONRequest(http.MethodGet, "/_mod/queue", "stranger", nil)
		rec := httptest.NewRecorder()
		tc.Handler.HandleQueue(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("moderator sees queue with filter", func(t *testing.T) {
		req := NewJSONRequest(http.MethodGet, "/_mod/queue?filter=critical", "mod-1", nil)
		rec := httptest.NewRecorder()
		tc.Handler.HandleQueue(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, moderation.QueueCritical, gotFilter)

		var resp struct {
			Filter string `json:"filter"`
			Count  int    `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "critical", resp.Filter)
		assert.Equal(t, 1, resp.Count)
	})

	t.Run("unknown filter falls back to all", func(t *testing.T) {
		req := NewJSONRequest(http.MethodGet, "/_mod/queue?filter=bogus", "mod-1", nil)
		rec := httptest.NewRecorder()
		tc.Handler.HandleQueue(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, moderation.QueueAll, gotFilter)
	})
}

func TestHandleModerationDetails(t *testing.T) {
	tc := NewTestContext(t)
	tc.MockStore.GetConfessionFunc = func(ctx context.Context, id string) (*models.Confession, error) {
		if id == tc.Fixtures.Moderated.ID {
			return tc.Fixtures.Moderated, nil
		}
		return nil, nil
	}

	ctx := context.Background()
	base := time.Now().UnixMilli()
	require.NoError(t, tc.Reports.InsertReport(ctx, tc.Fixtures.Moderated.ID, "u1", base))
	require.NoError(t, tc.Reports.InsertReport(ctx, tc.Fixtures.Moderated.ID, "u2", base+100))
	require.NoError(t, tc.Reports.AppendLogEntry(ctx, moderation.LogEntry{
		ID:            uuid.NewString(),
		ContentID:     tc.Fixtures.Moderated.ID,
		Rule:          moderation.RuleR1,
		StatusApplied: moderation.StatusHiddenPendingReview,
		TotalReports:  4,
		Automatic:     true,
		Timestamp:     time.Now(),
	}))

	details := func(id string) *httptest.ResponseRecorder {
		req := NewJSONRequest(http.MethodGet, "/_mod/confessions/"+id, "mod-1", nil)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		tc.Handler.HandleModerationDetails(rec, req)
		return rec
	}

	t.Run("full detail view", func(t *testing.T) {
		rec := details(tc.Fixtures.Moderated.ID)
		require.Equal(t, http.StatusOK, rec.Code)

		var got ModerationDetails
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.NotNil(t, got.Confession)
		assert.Equal(t, tc.Fixtures.Moderated.ID, got.Confession.ID)
		assert.Equal(t, 2, got.ReportCount)
		require.Len(t, got.ReportTimes, 2)
		require.Len(t, got.AuditLog, 1)
		assert.Equal(t, moderation.RuleR1, got.AuditLog[0].Rule)
	})

	t.Run("missing is 404", func(t *testing.T) {
		rec := details("nonexistent")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleStats(t *testing.T) {
	tc := NewTestContext(t)
	tc.MockStore.CountModeratedByStatusFunc = func(ctx context.Context) (map[moderation.ModerationStatus]int, error) {
		return map[moderation.ModerationStatus]int{
			moderation.StatusHiddenPendingReview:    3,
			moderation.StatusRemovedHighRisk:        1,
			moderation.StatusAutoDeletedMassReports: 0,
			moderation.StatusAutoDeletedAbsolute:    2,
		}, nil
	}

	ctx := context.Background()
	require.NoError(t, tc.Reports.AppendLogEntry(ctx, moderation.LogEntry{
		ID: uuid.NewString(), ContentID: "c1", Rule: moderation.RuleR1,
		StatusApplied: moderation.StatusHiddenPendingReview,
		Automatic:     true, Timestamp: time.Now(),
	}))

	req := NewJSONRequest(http.MethodGet, "/_mod/stats", "mod-1", nil)
	rec := httptest.NewRecorder()
	tc.Handler.HandleStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats ModerationStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 6, stats.TotalModerated)
	assert.Equal(t, 3, stats.ByStatus[moderation.StatusHiddenPendingReview])
	assert.Equal(t, 1, stats.ActionsLast24h)
}

func TestHandleAuditLog(t *testing.T) {
	tc := NewTestContext(t)

	t.Run("view_audit_log gated", func(t *testing.T) {
		// mod-1 lacks view_audit_log
		req := NewJSONRequest(http.MethodGet, "/_mod/audit-log", "mod-1", nil)
		rec := httptest.NewRecorder()
		tc.Handler.HandleAuditLog(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin sees entries", func(t *testing.T) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, tc.Reports.AppendLogEntry(ctx, moderation.LogEntry{
				ID: uuid.NewString(), ContentID: "c1", Rule: moderation.RuleR2,
				StatusApplied: moderation.StatusRemovedHighRisk,
				Automatic:     true, Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			}))
		}

		req := NewJSONRequest(http.MethodGet, "/_mod/audit-log?limit=2", "admin-1", nil)
		rec := httptest.NewRecorder()
		tc.Handler.HandleAuditLog(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
	})
}
