package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"veiller/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCreateConfession(t *testing.T) {
	t.Run("requires identity", func(t *testing.T) {
		tc := NewTestContext(t)
		req := NewJSONRequest(http.MethodPost, "/api/confessions", "", models.CreateConfessionRequest{Content: "hi"})
		rec := httptest.NewRecorder()
		tc.Handler.HandleCreateConfession(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		tc := NewTestContext(t)
		req := httptest.NewRequest(http.MethodPost, "/api/confessions", strings.NewReader("{nope"))
		req.Header.Set("X-User-ID", "u1")
		rec := httptest.NewRecorder()
		tc.Handler.HandleCreateConfession(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		tc := NewTestContext(t)
		req := NewJSONRequest(http.MethodPost, "/api/confessions", "u1", models.CreateConfessionRequest{Content: "   "})
		rec := httptest.NewRecorder()
		tc.Handler.HandleCreateConfession(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("creates confession", func(t *testing.T) {
		tc := NewTestContext(t)
		tc.MockStore.CreateConfessionFunc = func(ctx context.Context, authorID string, req *models.CreateConfessionRequest) (*models.Confession, error) {
			require.Equal(t, "u1", authorID)
			c := *tc.Fixtures.Active
			c.Content = req.Content
			return &c, nil
		}

		req := NewJSONRequest(http.MethodPost, "/api/confessions", "u1", models.CreateConfessionRequest{Content: "a secret"})
		rec := httptest.NewRecorder()
		tc.Handler.HandleCreateConfession(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var got models.Confession
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "a secret", got.Content)
	})
}

func TestHandleFeed(t *testing.T) {
	tc := NewTestContext(t)
	tc.MockStore.ListFeedFunc = func(ctx context.Context, limit int) ([]*models.Confession, error) {
		assert.Equal(t, DefaultFeedLimit, limit)
		return []*models.Confession{tc.Fixtures.Active}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	rec := httptest.NewRecorder()
	tc.Handler.HandleFeed(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Confessions []*models.Confession `json:"confessions"`
		Count       int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Confessions, 1)
	assert.Equal(t, tc.Fixtures.Active.ID, resp.Confessions[0].ID)
}

func TestHandleGetConfession(t *testing.T) {
	tc := NewTestContext(t)
	tc.MockStore.GetConfessionFunc = func(ctx context.Context, id string) (*models.Confession, error) {
		switch id {
		case tc.Fixtures.Active.ID:
			return tc.Fixtures.Active, nil
		case tc.Fixtures.Moderated.ID:
			return tc.Fixtures.Moderated, nil
		}
		return nil, nil
	}

	get := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/confessions/"+id, nil)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		tc.Handler.HandleGetConfession(rec, req)
		return rec
	}

	t.Run("active is visible", func(t *testing.T) {
		rec := get(tc.Fixtures.Active.ID)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing is 404", func(t *testing.T) {
		rec := get("nonexistent")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("moderated looks identical to missing", func(t *testing.T) {
		rec := get(tc.Fixtures.Moderated.ID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 50, parseLimit("", 50))
	assert.Equal(t, 10, parseLimit("10", 50))
	assert.Equal(t, 50, parseLimit("-3", 50))
	assert.Equal(t, 50, parseLimit("abc", 50))
	assert.Equal(t, MaxFeedLimit, parseLimit("100000", 50))
}
