package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ffdraft/draftboard/internal/api/respond"
	"github.com/ffdraft/draftboard/internal/research"
)

// AnalyzePlayer returns the stored analysis for a player, researching and
// storing one first if none exists.
// @Summary Analyze player
// @Description Returns the stored research report, or runs research and stores the result.
// @Tags players
// @Produce json
// @Param name path string true "Player name as listed on the board"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/players/{name}/analyze [post]
func (h *Handler) AnalyzePlayer(w http.ResponseWriter, r *http.Request) {
	name, ok := playerName(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "Player name is required")
		return
	}
	if h.researcher == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "RESEARCH_DISABLED", "Player research is not configured")
		return
	}

	a, created, err := h.board.Analyze(r.Context(), name, h.researcher, h.researcher.Model())
	switch {
	case err == nil:
	case errors.Is(err, research.ErrDisabled):
		respond.WriteError(w, http.StatusServiceUnavailable, "RESEARCH_DISABLED", "Player research is not configured")
		return
	case errors.Is(err, research.ErrBadResponse):
		h.logger.Warn("Research response unusable", "player", name, "error", err)
		respond.WriteError(w, http.StatusBadGateway, "RESEARCH_FAILED", "Research returned an unusable report")
		return
	default:
		h.writeBoardError(w, r, err)
		return
	}

	if created {
		h.cache.Delete(playerKey(name))
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"player_name": name,
		"created":     created,
		"analysis":    a,
	})
}

// RefreshPlayerStats scrapes and stores one player's stats.
// @Summary Refresh player stats
// @Description Scrapes the player's stat page and replaces stored stats. Runs synchronously.
// @Tags ingestion
// @Produce json
// @Param name path string true "Player name or PFR id"
// @Success 200 {object} seed.Outcome
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/players/{name}/refresh-stats [post]
func (h *Handler) RefreshPlayerStats(w http.ResponseWriter, r *http.Request) {
	name, ok := playerName(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "Player name is required")
		return
	}

	out := h.collector.CollectPlayer(r.Context(), name)
	if !out.Success {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "REFRESH_FAILED", "Could not refresh player stats", out.Error)
		return
	}
	// The path may be a PFR id or a name that differs from the board name,
	// so every cached detail is dropped.
	h.cache.InvalidatePrefix("player:")
	respond.WriteJSONObject(w, http.StatusOK, out)
}

// RefreshAllStats re-scrapes the best-ranked board players.
// @Summary Refresh all stats
// @Description Re-scrapes the top board players in rank order. Runs synchronously and may take several minutes.
// @Tags ingestion
// @Produce json
// @Param limit query int false "Number of players (default from REFRESH_LIMIT)"
// @Success 200 {object} seed.Result
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/refresh-all-stats [post]
func (h *Handler) RefreshAllStats(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if h.cfg != nil {
		limit = h.cfg.RefreshLimit
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	res := h.collector.RefreshAll(r.Context(), limit)
	n := h.cache.InvalidatePrefix("player:")
	h.logger.Info("Refresh finished", "summary", res.Summary(), "invalidated", n)
	respond.WriteJSONObject(w, http.StatusOK, res)
}
