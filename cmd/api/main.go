// Command api is the draftboard HTTP server.
//
// Usage:
//
//	draftboard-api
//	API_PORT=8080 REFRESH_SCHEDULE="0 6 * * *" draftboard-api

// @title Draftboard API
// @version 1.0.0
// @description Auction draft board backed by scraped NFL season stats.
// @BasePath /
// @schemes http https
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/ffdraft/draftboard/internal/api"
	"github.com/ffdraft/draftboard/internal/api/handler"
	"github.com/ffdraft/draftboard/internal/cache"
	"github.com/ffdraft/draftboard/internal/config"
	"github.com/ffdraft/draftboard/internal/db"
	"github.com/ffdraft/draftboard/internal/draft"
	"github.com/ffdraft/draftboard/internal/research"
	"github.com/ffdraft/draftboard/internal/scheduler"
	"github.com/ffdraft/draftboard/internal/seed"
	"github.com/ffdraft/draftboard/internal/store"

	_ "github.com/ffdraft/draftboard/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var logHandler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		logHandler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Schema first: prepared statements need the tables
	if cfg.AutoMigrate {
		if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Components
	st := store.New(pool.Pool, logger)
	board := draft.NewBoard(pool.Pool, st, draft.Options{
		Season:      cfg.DraftSeason,
		StatsSeason: cfg.StatsSeason,
		Inflation:   cfg.AuctionInflation,
	}, logger)
	collector := seed.FromConfig(cfg, pool.Pool, -1, logger)

	deps := handler.Deps{
		Board:     board,
		Collector: collector,
		DB:        pool,
		Cache:     appCache,
		Logger:    logger,
	}
	if cfg.HasResearch() {
		deps.Researcher = research.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, logger)
		logger.Info("Player research enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("Player research disabled (no OPENAI_API_KEY)")
	}

	// Scheduled refresh
	sched, err := scheduler.New(collector, scheduler.Config{
		Schedule: cfg.RefreshSchedule,
		Limit:    cfg.RefreshLimit,
		AfterRefresh: func(seed.Result) {
			appCache.InvalidatePrefix("player:")
		},
	}, logger)
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		os.Exit(1)
	}
	if err := sched.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Create router
	router := api.NewRouter(deps, cfg)

	// Create HTTP server. Refresh endpoints run synchronously, so the write
	// timeout is generous.
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Draftboard API",
			"addr", addr,
			"environment", cfg.Environment,
			"season", cfg.DraftSeason,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	if err := sched.Stop(); err != nil {
		logger.Error("Scheduler shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
