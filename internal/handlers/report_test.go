package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"veiller/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doReport(tc *TestContext, contentID, asUser string) *httptest.ResponseRecorder {
	req := NewJSONRequest(http.MethodPost, "/api/confessions/"+contentID+"/report", asUser, nil)
	req.SetPathValue("id", contentID)
	rec := httptest.NewRecorder()
	tc.Handler.HandleReport(rec, req)
	return rec
}

func TestHandleReport_RequiresIdentity(t *testing.T) {
	tc := NewTestContext(t)
	rec := doReport(tc, tc.Fixtures.Active.ID, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleReport_NotFound(t *testing.T) {
	tc := NewTestContext(t)
	rec := doReport(tc, "nonexistent", "u1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReport_ModeratedTargetIsGone(t *testing.T) {
	tc := NewTestContext(t)
	rec := doReport(tc, tc.Fixtures.Moderated.ID, "u1")
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestHandleReport_SelfReport(t *testing.T) {
	tc := NewTestContext(t)
	rec := doReport(tc, tc.Fixtures.Active.ID, tc.Fixtures.Active.AuthorID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "your own confession")
}

func TestHandleReport_Duplicate(t *testing.T) {
	tc := NewTestContext(t)

	rec := doReport(tc, tc.Fixtures.Active.ID, "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doReport(tc, tc.Fixtures.Active.ID, "u1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleReport_AcceptedWithoutEscalation(t *testing.T) {
	tc := NewTestContext(t)

	rec := doReport(tc, tc.Fixtures.Active.ID, "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	var result moderation.ReportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Empty(t, result.Rule)
	assert.Equal(t, 1, result.TotalReports)
	assert.Equal(t, "report recorded", result.Message)
}

func TestHandleReport_BurstEscalates(t *testing.T) {
	tc := NewTestContext(t)

	// The mock content store reports the fixture as active throughout, so
	// the conditional apply (default true) fires on the fourth report.
	for i := 1; i <= 3; i++ {
		rec := doReport(tc, tc.Fixtures.Active.ID, fmt.Sprintf("u%d", i))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doReport(tc, tc.Fixtures.Active.ID, "u4")
	require.Equal(t, http.StatusOK, rec.Code)

	var result moderation.ReportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, moderation.RuleR1, result.Rule)
	assert.Equal(t, moderation.StatusHiddenPendingReview, result.Status)
	assert.Equal(t, 4, result.TotalReports)
	assert.Equal(t, 4, result.ReportsInWindow)

	require.Len(t, tc.Reports.LogEntries(), 1)
}
