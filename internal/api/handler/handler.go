// Package handler provides HTTP handlers for all API endpoints.
// Handlers depend on narrow interfaces over the draft board, the collector
// and the researcher so they can be exercised without Postgres.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ffdraft/draftboard/internal/api/respond"
	"github.com/ffdraft/draftboard/internal/cache"
	"github.com/ffdraft/draftboard/internal/config"
	"github.com/ffdraft/draftboard/internal/draft"
	"github.com/ffdraft/draftboard/internal/research"
	"github.com/ffdraft/draftboard/internal/seed"
)

// Board is the draft board. *draft.Board implements it.
type Board interface {
	Season() int
	List(ctx context.Context, q draft.Query) ([]draft.Player, error)
	Get(ctx context.Context, name string) (*draft.Player, error)
	Detail(ctx context.Context, name string) (*draft.Detail, error)
	UpdateStatus(ctx context.Context, name string, st draft.Status) (*draft.Player, error)
	Teammates(ctx context.Context, name string) ([]draft.Teammate, error)
	Analyze(ctx context.Context, name string, r research.Researcher, model string) (*draft.Analysis, bool, error)
}

// Collector scrapes and stores stats. *seed.Collector implements it.
type Collector interface {
	CollectPlayer(ctx context.Context, query string) seed.Outcome
	RefreshAll(ctx context.Context, limit int) seed.Result
}

// Researcher writes player reports. *research.OpenAI implements it.
type Researcher interface {
	research.Researcher
	Model() string
}

// HealthChecker reports database reachability. *db.Pool implements it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the handler dependencies. Researcher may be nil.
type Deps struct {
	Board      Board
	Collector  Collector
	Researcher Researcher
	DB         HealthChecker
	Cache      *cache.Cache
	Config     *config.Config
	Logger     *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	board      Board
	collector  Collector
	researcher Researcher
	db         HealthChecker
	cache      *cache.Cache
	cfg        *config.Config
	logger     *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Cache == nil {
		d.Cache = cache.New(false)
	}
	return &Handler{
		board:      d.Board,
		collector:  d.Collector,
		researcher: d.Researcher,
		db:         d.DB,
		cache:      d.Cache,
		cfg:        d.Config,
		logger:     d.Logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and the draft season.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":     "Draftboard API",
		"version":  "1.0.0",
		"status":   "running",
		"docs":     "/docs/",
		"season":   h.board.Season(),
		"research": h.researcher != nil,
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
