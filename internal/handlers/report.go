package handlers

import (
	"errors"
	"net/http"

	"veiller/internal/metrics"
	"veiller/internal/moderation"

	"github.com/rs/zerolog/log"
)

// HandleReport handles POST /api/confessions/{id}/report. Requires identity,
// validates the target, persists the report and applies any escalation the
// rule table demands.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	reporterID := userID(r)
	if reporterID == "" {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	contentID := r.PathValue("id")

	result, err := h.moderation.SubmitReport(r.Context(), contentID, reporterID)
	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrContentNotFound):
			metrics.ReportsSubmittedTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			writeError(w, "Confession not found", http.StatusNotFound)
		case errors.Is(err, moderation.ErrContentNotAvailable):
			metrics.ReportsSubmittedTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			writeError(w, "Content no longer available", http.StatusGone)
		case errors.Is(err, moderation.ErrSelfReport):
			metrics.ReportsSubmittedTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			writeError(w, "You cannot report your own confession", http.StatusBadRequest)
		case errors.Is(err, moderation.ErrDuplicateReport):
			metrics.ReportsSubmittedTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			writeError(w, "You have already reported this confession", http.StatusConflict)
		default:
			metrics.ReportsSubmittedTotal.WithLabelValues(metrics.OutcomeError).Inc()
			log.Error().Err(err).Str("content_id", contentID).Msg("Report submission failed")
			writeError(w, "Failed to submit report", http.StatusInternalServerError)
		}
		return
	}

	metrics.ReportsSubmittedTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	if result.Rule != "" {
		metrics.EscalationsTotal.WithLabelValues(string(result.Rule)).Inc()
	}

	writeJSON(w, http.StatusOK, result)
}
