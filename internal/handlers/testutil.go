package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"veiller/internal/database"
	"veiller/internal/models"
	"veiller/internal/moderation"

	"github.com/stretchr/testify/require"
)

// TestFixtures contains sample data for testing
type TestFixtures struct {
	Active    *models.Confession
	Moderated *models.Confession
}

// NewTestFixtures creates a set of sample test data
func NewTestFixtures() *TestFixtures {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	triggeredAt := createdAt.Add(2 * time.Hour)

	active := &models.Confession{
		ID:               "conf-active-1",
		AuthorID:         "author-1",
		Content:          "I replace the office coffee with decaf on Fridays",
		Mood:             "mischievous",
		CreatedAt:        createdAt,
		ModerationStatus: moderation.StatusActive,
	}

	moderated := &models.Confession{
		ID:                    "conf-hidden-1",
		AuthorID:              "author-2",
		Content:               "something the crowd disliked",
		CreatedAt:             createdAt,
		ModerationStatus:      moderation.StatusHiddenPendingReview,
		ModerationRule:        moderation.RuleR1,
		ModerationTriggeredAt: &triggeredAt,
		TotalReportsAtTrigger: 4,
	}

	return &TestFixtures{
		Active:    active,
		Moderated: moderated,
	}
}

// TestContext contains test dependencies
type TestContext struct {
	Handler   *Handler
	MockStore *database.MockStore
	Content   *moderation.MockContentStore
	Reports   *moderation.MemReportStore
	Fixtures  *TestFixtures
}

const testModeratorsConfig = `{
	"roles": {
		"admin": {
			"description": "Full moderation control",
			"permissions": ["restore_content", "view_queue", "view_audit_log"]
		},
		"moderator": {
			"description": "Queue triage only",
			"permissions": ["view_queue"]
		}
	},
	"users": [
		{"user_id": "admin-1", "role": "admin"},
		{"user_id": "mod-1", "role": "moderator"}
	]
}`

// NewTestContext creates a test context with mock dependencies. The content
// store serves the fixtures; the report store is a real in-memory one so the
// intake path exercises the uniqueness constraint.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	fixtures := NewTestFixtures()
	mockStore := &database.MockStore{}
	reports := moderation.NewMemReportStore()

	content := &moderation.MockContentStore{
		GetContentHeadFunc: func(ctx context.Context, contentID string) (*moderation.ContentHead, error) {
			switch contentID {
			case fixtures.Active.ID:
				return &moderation.ContentHead{
					AuthorID: fixtures.Active.AuthorID,
					Status:   fixtures.Active.ModerationStatus,
				}, nil
			case fixtures.Moderated.ID:
				return &moderation.ContentHead{
					AuthorID: fixtures.Moderated.AuthorID,
					Status:   fixtures.Moderated.ModerationStatus,
				}, nil
			}
			return nil, nil
		},
	}

	rolesPath := filepath.Join(t.TempDir(), "moderators.json")
	require.NoError(t, os.WriteFile(rolesPath, []byte(testModeratorsConfig), 0644))
	roles, err := moderation.NewRoles(rolesPath)
	require.NoError(t, err)

	svc := moderation.NewService(content, reports)

	return &TestContext{
		Handler:   NewHandler(mockStore, svc, reports, roles),
		MockStore: mockStore,
		Content:   content,
		Reports:   reports,
		Fixtures:  fixtures,
	}
}

// NewJSONRequest creates a request with an optional JSON body and the
// X-User-ID identity header.
func NewJSONRequest(method, path, asUser string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asUser != "" {
		req.Header.Set("X-User-ID", asUser)
	}
	return req
}
