package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"veiller/internal/models"
	"veiller/internal/moderation"

	"github.com/ptdewey/shutter"
	"github.com/stretchr/testify/require"
)

// TestReportEscalation_Snapshot pins the response shape the client sees when
// a report burst trips the first rule tier.
func TestReportEscalation_Snapshot(t *testing.T) {
	tc := NewTestContext(t)

	for i := 1; i <= 3; i++ {
		rec := doReport(tc, tc.Fixtures.Active.ID, fmt.Sprintf("u%d", i))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doReport(tc, tc.Fixtures.Active.ID, "u4")
	require.Equal(t, http.StatusOK, rec.Code)

	shutter.SnapJSON(t, "report_escalation", rec.Body.String())
}

// TestQueue_Snapshot pins the moderation queue response format.
func TestQueue_Snapshot(t *testing.T) {
	tc := NewTestContext(t)
	tc.MockStore.ListModeratedFunc = func(ctx context.Context, filter moderation.QueueFilter, limit int) ([]*models.Confession, error) {
		return []*models.Confession{tc.Fixtures.Moderated}, nil
	}

	req := NewJSONRequest(http.MethodGet, "/_mod/queue", "mod-1", nil)
	rec := httptest.NewRecorder()
	tc.Handler.HandleQueue(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	shutter.SnapJSON(t, "moderation_queue", rec.Body.String())
}
