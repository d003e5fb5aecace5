package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"veiller/internal/metrics"
	"veiller/internal/models"
	"veiller/internal/moderation"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultAuditLogLimit bounds GET /_mod/audit-log when no limit is given.
const DefaultAuditLogLimit = 100

// RestoreRequest is the JSON body for POST /_mod/restore.
type RestoreRequest struct {
	ConfessionID string `json:"confession_id"`
}

// requirePermission checks the moderator roster for the given permission.
// Returns the acting user ID, or "" after writing the error response.
func (h *Handler) requirePermission(w http.ResponseWriter, r *http.Request, perm moderation.Permission) string {
	actorID := userID(r)
	if actorID == "" {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return ""
	}
	if h.roles == nil || !h.roles.IsEnabled() {
		writeError(w, "Moderation is not enabled", http.StatusServiceUnavailable)
		return ""
	}
	if !h.roles.HasPermission(actorID, perm) {
		log.Warn().Str("user_id", actorID).Str("permission", string(perm)).Msg("Moderation access denied")
		writeError(w, "Forbidden", http.StatusForbidden)
		return ""
	}
	return actorID
}

// HandleRestore handles POST /_mod/restore: the administrative reversal of
// any moderation status.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	actorID := h.requirePermission(w, r, moderation.PermissionRestoreContent)
	if actorID == "" {
		return
	}

	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ConfessionID == "" {
		writeError(w, "confession_id is required", http.StatusBadRequest)
		return
	}

	if err := h.moderation.Restore(r.Context(), req.ConfessionID, actorID); err != nil {
		if errors.Is(err, moderation.ErrContentNotFound) {
			writeError(w, "Confession not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("content_id", req.ConfessionID).Msg("Restore failed")
		writeError(w, "Failed to restore confession", http.StatusInternalServerError)
		return
	}

	metrics.RestoresTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"confession_id": req.ConfessionID,
		"status":        string(moderation.StatusActive),
	})
}

// HandleQueue handles GET /_mod/queue. The filter parameter selects a rule
// tier: all (default), R1, R2 or critical.
func (h *Handler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	if h.requirePermission(w, r, moderation.PermissionViewQueue) == "" {
		return
	}

	filter := moderation.ParseQueueFilter(r.URL.Query().Get("filter"))
	limit := parseLimit(r.URL.Query().Get("limit"), DefaultFeedLimit)

	confessions, err := h.store.ListModerated(r.Context(), filter, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list moderation queue")
		writeError(w, "Failed to load queue", http.StatusInternalServerError)
		return
	}
	if confessions == nil {
		confessions = []*models.Confession{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filter":      filter,
		"confessions": confessions,
		"count":       len(confessions),
	})
}

// ModerationDetails is the response body for GET /_mod/confessions/{id}:
// the full record plus its report history and audit trail.
type ModerationDetails struct {
	Confession  *models.Confession    `json:"confession"`
	ReportCount int                   `json:"report_count"`
	ReportTimes []time.Time           `json:"report_times"`
	AuditLog    []moderation.LogEntry `json:"audit_log"`
}

// HandleModerationDetails handles GET /_mod/confessions/{id}.
func (h *Handler) HandleModerationDetails(w http.ResponseWriter, r *http.Request) {
	if h.requirePermission(w, r, moderation.PermissionViewQueue) == "" {
		return
	}

	id := r.PathValue("id")

	// Fetch record, report history and audit trail in parallel
	g, ctx := errgroup.WithContext(r.Context())

	var confession *models.Confession
	var timestamps []int64
	var entries []moderation.LogEntry

	g.Go(func() error {
		var err error
		confession, err = h.store.GetConfession(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		timestamps, err = h.reports.ListReportTimestamps(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = h.reports.ListLogEntries(ctx, id)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to load moderation details")
		writeError(w, "Failed to load details", http.StatusInternalServerError)
		return
	}
	if confession == nil {
		writeError(w, "Confession not found", http.StatusNotFound)
		return
	}

	details := ModerationDetails{
		Confession:  confession,
		ReportCount: len(timestamps),
		ReportTimes: make([]time.Time, 0, len(timestamps)),
		AuditLog:    entries,
	}
	for _, ts := range timestamps {
		details.ReportTimes = append(details.ReportTimes, time.UnixMilli(ts).UTC())
	}
	if details.AuditLog == nil {
		details.AuditLog = []moderation.LogEntry{}
	}

	writeJSON(w, http.StatusOK, details)
}

// ModerationStats is the response body for GET /_mod/stats.
type ModerationStats struct {
	ByStatus       map[moderation.ModerationStatus]int `json:"by_status"`
	TotalModerated int                                 `json:"total_moderated"`
	ActionsLast24h int                                 `json:"actions_last_24h"`
	RestoresTotal  int                                 `json:"restores_total"`
}

// HandleStats handles GET /_mod/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if h.requirePermission(w, r, moderation.PermissionViewQueue) == "" {
		return
	}

	counts, err := h.store.CountModeratedByStatus(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to count moderated content")
		writeError(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	actions, err := h.reports.CountLogEntriesSince(r.Context(), time.Now().Add(-24*time.Hour))
	if err != nil {
		log.Error().Err(err).Msg("Failed to count recent moderation actions")
		writeError(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	stats := ModerationStats{
		ByStatus:       counts,
		ActionsLast24h: actions,
		// Restore volume since process start comes from the counter itself
		RestoresTotal: int(getCounterValue(metrics.RestoresTotal)),
	}
	for _, count := range counts {
		stats.TotalModerated += count
	}

	writeJSON(w, http.StatusOK, stats)
}

// getCounterValue reads the current value of a prometheus.Counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return 0
}

// HandleAuditLog handles GET /_mod/audit-log.
func (h *Handler) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	if h.requirePermission(w, r, moderation.PermissionViewAuditLog) == "" {
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), DefaultAuditLogLimit)

	entries, err := h.reports.ListAuditLog(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list audit log")
		writeError(w, "Failed to load audit log", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []moderation.LogEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
