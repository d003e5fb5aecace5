package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veiller_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "veiller_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Event counters (incremented on occurrence)
var (
	ConfessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veiller_confessions_created_total",
		Help: "Total number of confessions posted",
	})

	ReportsSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veiller_reports_submitted_total",
		Help: "Total number of report submissions by outcome",
	}, []string{"outcome"})

	EscalationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veiller_escalations_total",
		Help: "Total number of automatic moderation escalations by rule",
	}, []string{"rule"})

	RestoresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veiller_restores_total",
		Help: "Total number of manual content restorations",
	})
)

// Report submission outcome labels.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Business metrics (gauges updated periodically by collector)
var (
	ModeratedContentByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "veiller_moderated_content_by_status",
		Help: "Number of confessions per non-active moderation status",
	}, []string{"status"})
)

// NormalizePath reduces high-cardinality path labels by replacing dynamic
// segments with placeholders. This keeps the metric label space bounded.
func NormalizePath(path string) string {
	segments := splitPath(path)
	if len(segments) < 2 {
		return path
	}

	switch segments[0] {
	case "api":
		if segments[1] == "confessions" {
			if len(segments) == 3 {
				return "/api/confessions/:id"
			}
			if len(segments) == 4 && segments[3] == "report" {
				return "/api/confessions/:id/report"
			}
		}
	case "_mod":
		if segments[1] == "confessions" && len(segments) == 3 {
			return "/_mod/confessions/:id"
		}
	}

	return path
}

func splitPath(path string) []string {
	// Skip leading slash
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	var segments []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		segments = append(segments, path[start:])
	}
	return segments
}
