package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ffdraft/draftboard/internal/api/respond"
	"github.com/ffdraft/draftboard/internal/cache"
	"github.com/ffdraft/draftboard/internal/draft"
)

const maxBodyBytes = 64 << 10

func playerKey(name string) string { return "player:" + name }

// playerName reads the {name} path parameter.
func playerName(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "name")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

// writeBoardError maps board errors onto API errors. Unexpected errors are
// logged and reported without detail.
func (h *Handler) writeBoardError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, draft.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "PLAYER_NOT_FOUND", "Player is not on the draft board")
	case errors.Is(err, draft.ErrInvalidFilter):
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_FILTER",
			"filter must be one of all, available, drafted, targets, avoid", err.Error())
	case errors.As(err, &verrs):
		respond.WriteErrorDetail(w, http.StatusUnprocessableEntity, "INVALID_STATUS", "Invalid status update", verrs.Error())
	default:
		h.logger.Error("Request failed", "path", r.URL.Path, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// ListPlayers returns the draft board.
// @Summary List draft board players
// @Description Returns ranked board players for the draft season with inflated auction values. Kickers and defenses are excluded.
// @Tags players
// @Produce json
// @Param filter query string false "Status filter" Enums(all, available, drafted, targets, avoid)
// @Param position query string false "Position (QB, RB, WR, TE)"
// @Param search query string false "Fuzzy name search"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := draft.ParseFilter(q.Get("filter"))
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}

	players, err := h.board.List(r.Context(), draft.Query{
		Filter:   filter,
		Position: q.Get("position"),
		Search:   q.Get("search"),
	})
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"season":  h.board.Season(),
		"filter":  filter,
		"count":   len(players),
		"players": players,
	})
}

// GetPlayer returns one player's board row with teammates, recent stats and
// stored analysis.
// @Summary Get player detail
// @Description Board row, teammates, the last three seasons of scraped stats and stored analysis. Supports ETag revalidation.
// @Tags players
// @Produce json
// @Param name path string true "Player name as listed on the board"
// @Success 200 {object} draft.Detail
// @Success 304 "Not modified"
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/players/{name} [get]
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	name, ok := playerName(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "Player name is required")
		return
	}
	key := playerKey(name)

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLPlayerDetail, true)
		return
	}

	detail, err := h.board.Detail(r.Context(), name)
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	data, err := json.Marshal(detail)
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}

	etag := h.cache.Set(key, data, cache.TTLPlayerDetail)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, cache.TTLPlayerDetail, false)
}

// UpdateStatus replaces a player's draft status.
// @Summary Update draft status
// @Description Replaces target, avoid, drafted and note fields for a board player.
// @Tags players
// @Accept json
// @Produce json
// @Param name path string true "Player name as listed on the board"
// @Param status body draft.Status true "New status"
// @Success 200 {object} draft.Player
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /api/players/{name}/status [post]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	name, ok := playerName(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "Player name is required")
		return
	}

	var st draft.Status
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&st); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be a status object", err.Error())
		return
	}

	p, err := h.board.UpdateStatus(r.Context(), name, st)
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	h.cache.Delete(playerKey(name))
	respond.WriteJSONObject(w, http.StatusOK, p)
}

// GetTeammates lists a player's skill-position teammates.
// @Summary Get teammates
// @Tags players
// @Produce json
// @Param name path string true "Player name as listed on the board"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/players/{name}/teammates [get]
func (h *Handler) GetTeammates(w http.ResponseWriter, r *http.Request) {
	name, ok := playerName(r)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "Player name is required")
		return
	}
	if _, err := h.board.Get(r.Context(), name); err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	mates, err := h.board.Teammates(r.Context(), name)
	if err != nil {
		h.writeBoardError(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"player_name": name,
		"teammates":   mates,
	})
}
