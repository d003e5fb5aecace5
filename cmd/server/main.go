package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"veiller/internal/database"
	"veiller/internal/database/boltstore"
	"veiller/internal/database/sqlitestore"
	"veiller/internal/handlers"
	"veiller/internal/metrics"
	"veiller/internal/moderation"
	"veiller/internal/routing"
	"veiller/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure zerolog
	// Set log level from environment (default: info)
	logLevel := os.Getenv("LOG_LEVEL")
	switch logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Use pretty console logging in development, JSON in production
	if os.Getenv("LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	log.Info().Msg("Starting Veiller")

	ctx := context.Background()

	// Initialize tracing unless explicitly disabled
	if os.Getenv("OTEL_ENABLED") != "false" {
		tp, err := tracing.Init(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("Tracer shutdown failed")
				}
			}()
		}
	}

	// Get port from env or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "18920"
	}

	// Resolve database location
	dbPath := os.Getenv("VEILLER_DB_PATH")
	if dbPath == "" {
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to get home directory")
			}
			dataDir = filepath.Join(home, ".local", "share")
		}
		dbPath = filepath.Join(dataDir, "veiller", "veiller.db")
	}

	// Open the selected backend. Both expose the same store interfaces.
	var (
		store      database.Store
		content    moderation.ContentStore
		reports    moderation.ReportStore
		closeStore func() error
	)
	switch backend := os.Getenv("VEILLER_DB_BACKEND"); backend {
	case "sqlite":
		db, err := sqlitestore.Open(dbPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", dbPath).Msg("Failed to open sqlite database")
		}
		store = db.ConfessionStore()
		content = db.ConfessionStore()
		reports = db.ModerationStore()
		closeStore = db.Close
		log.Info().Str("path", dbPath).Str("backend", "sqlite").Msg("Database opened")
	case "bolt", "":
		db, err := boltstore.Open(boltstore.Options{Path: dbPath})
		if err != nil {
			log.Fatal().Err(err).Str("path", dbPath).Msg("Failed to open bolt database")
		}
		store = db.ConfessionStore()
		content = db.ConfessionStore()
		reports = db.ModerationStore()
		closeStore = db.Close
		log.Info().Str("path", dbPath).Str("backend", "bolt").Msg("Database opened")
	default:
		log.Fatal().Str("backend", backend).Msg("Unknown VEILLER_DB_BACKEND (want bolt or sqlite)")
	}
	defer closeStore()

	// Load the moderator roster; without one the admin surface stays dark
	roles, err := moderation.NewRoles(os.Getenv("MODERATORS_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load moderators config")
	}
	if !roles.IsEnabled() {
		log.Warn().Msg("No moderators configured, admin endpoints will refuse all requests")
	}

	// Moderation service on top of the shared stores
	moderationService := moderation.NewService(content, reports)

	// Periodic gauge collection for the dashboard
	metrics.StartCollector(ctx, metrics.StatsSource{
		ModeratedCountByStatus: func() map[string]int {
			counts, err := store.CountModeratedByStatus(context.Background())
			if err != nil {
				log.Warn().Err(err).Msg("Failed to collect moderation counts")
				return nil
			}
			out := make(map[string]int, len(counts))
			for status, count := range counts {
				out[string(status)] = count
			}
			return out
		},
	}, time.Minute)

	// Initialize handlers with all dependencies via constructor injection
	h := handlers.NewHandler(store, moderationService, reports, roles)

	// Setup router with middleware
	handler := routing.SetupRouter(routing.Config{
		Handlers: h,
		Logger:   log.Logger,
	})

	log.Info().
		Str("address", "0.0.0.0:"+port).
		Str("url", "http://localhost:"+port).
		Str("database", dbPath).
		Msg("Starting HTTP server")

	if err := http.ListenAndServe("0.0.0.0:"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
