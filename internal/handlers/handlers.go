// Package handlers contains the HTTP handler methods for the public
// confession API and the moderation dashboard surface.
package handlers

import (
	"encoding/json"
	"net/http"

	"veiller/internal/database"
	"veiller/internal/moderation"

	"github.com/rs/zerolog/log"
)

// DefaultFeedLimit bounds the public feed when no limit parameter is given.
const DefaultFeedLimit = 50

// MaxFeedLimit caps a caller-supplied feed or queue limit.
const MaxFeedLimit = 200

// Handler contains all HTTP handler methods and their dependencies.
// Dependencies are injected via the constructor for better testability.
type Handler struct {
	store      database.Store
	moderation *moderation.Service
	reports    moderation.ReportStore
	roles      *moderation.Roles
}

// NewHandler creates a new Handler with all required dependencies.
// This constructor pattern ensures the Handler is always fully initialized.
func NewHandler(store database.Store, svc *moderation.Service, reports moderation.ReportStore, roles *moderation.Roles) *Handler {
	return &Handler{
		store:      store,
		moderation: svc,
		reports:    reports,
		roles:      roles,
	}
}

// userID extracts the caller identity. Authentication happens upstream; the
// proxy is trusted to set X-User-ID on every request it forwards.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// errorResponse is the uniform JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes and writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response with the given status code
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, errorResponse{Error: message})
}
