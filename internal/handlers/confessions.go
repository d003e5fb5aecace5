package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"veiller/internal/metrics"
	"veiller/internal/models"
	"veiller/internal/moderation"

	"github.com/rs/zerolog/log"
)

// HandleCreateConfession handles POST /api/confessions.
func (h *Handler) HandleCreateConfession(w http.ResponseWriter, r *http.Request) {
	authorID := userID(r)
	if authorID == "" {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req models.CreateConfessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	confession, err := h.store.CreateConfession(r.Context(), authorID, &req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create confession")
		writeError(w, "Failed to create confession", http.StatusInternalServerError)
		return
	}

	metrics.ConfessionsCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, confession)
}

// HandleFeed handles GET /api/feed. Only active confessions are listed.
func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), DefaultFeedLimit)

	confessions, err := h.store.ListFeed(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list feed")
		writeError(w, "Failed to load feed", http.StatusInternalServerError)
		return
	}
	if confessions == nil {
		confessions = []*models.Confession{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"confessions": confessions,
		"count":       len(confessions),
	})
}

// HandleGetConfession handles GET /api/confessions/{id}. Moderated content is
// indistinguishable from deleted content for public callers.
func (h *Handler) HandleGetConfession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	confession, err := h.store.GetConfession(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to get confession")
		writeError(w, "Failed to load confession", http.StatusInternalServerError)
		return
	}
	if confession == nil {
		writeError(w, "Confession not found", http.StatusNotFound)
		return
	}
	if confession.ModerationStatus != moderation.StatusActive {
		writeError(w, "Content no longer available", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, confession)
}

// parseLimit parses a limit query parameter, falling back to def and capping
// at MaxFeedLimit.
func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}
