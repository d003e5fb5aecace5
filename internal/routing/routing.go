// Package routing wires the HTTP routes and the middleware chain.
package routing

import (
	"net/http"

	"veiller/internal/handlers"
	"veiller/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MaxBodyBytes caps JSON request bodies. Confessions max out at a few KB;
// anything larger is garbage.
const MaxBodyBytes = 64 << 10

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// Public API
	mux.HandleFunc("POST /api/confessions", h.HandleCreateConfession)
	mux.HandleFunc("GET /api/feed", h.HandleFeed)
	mux.HandleFunc("GET /api/confessions/{id}", h.HandleGetConfession)
	mux.HandleFunc("POST /api/confessions/{id}/report", h.HandleReport)

	// Moderation dashboard API (roster-gated in the handlers)
	mux.HandleFunc("POST /_mod/restore", h.HandleRestore)
	mux.HandleFunc("GET /_mod/queue", h.HandleQueue)
	mux.HandleFunc("GET /_mod/confessions/{id}", h.HandleModerationDetails)
	mux.HandleFunc("GET /_mod/stats", h.HandleStats)
	mux.HandleFunc("GET /_mod/audit-log", h.HandleAuditLog)

	// Operational endpoints
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = mux

	// 1. Limit request body size (innermost - runs first on request)
	handler = middleware.BodyLimitMiddleware(MaxBodyBytes)(handler)

	// 2. Trace every request
	handler = otelhttp.NewHandler(handler, "http.server")

	// 3. Apply logging middleware (outermost - wraps everything)
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	return handler
}
