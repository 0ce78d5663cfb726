package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ffdraft/draftboard/internal/api"
	"github.com/ffdraft/draftboard/internal/api/handler"
	"github.com/ffdraft/draftboard/internal/api/respond"
	"github.com/ffdraft/draftboard/internal/cache"
	"github.com/ffdraft/draftboard/internal/config"
	"github.com/ffdraft/draftboard/internal/draft"
	"github.com/ffdraft/draftboard/internal/research"
	"github.com/ffdraft/draftboard/internal/seed"
	"github.com/ffdraft/draftboard/internal/store"
)

// --------------------------------------------------------------------------
// Doubles
// --------------------------------------------------------------------------

type fakeBoard struct {
	players     []draft.Player
	gotQuery    draft.Query
	details     int
	analyses    map[string]*draft.Analysis
	updateErr   error
	gotStatus   draft.Status
	listErr     error
	researchRan int
}

func (f *fakeBoard) Season() int { return 2025 }

func (f *fakeBoard) List(_ context.Context, q draft.Query) ([]draft.Player, error) {
	f.gotQuery = q
	return draft.Search(f.players, q.Search), f.listErr
}

func (f *fakeBoard) Get(_ context.Context, name string) (*draft.Player, error) {
	for i := range f.players {
		if f.players[i].Name == name {
			return &f.players[i], nil
		}
	}
	return nil, draft.ErrNotFound
}

func (f *fakeBoard) Detail(ctx context.Context, name string) (*draft.Detail, error) {
	p, err := f.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	f.details++
	return &draft.Detail{Player: *p, Teammates: []draft.Teammate{{Name: "Joe Burrow", Position: "QB"}}}, nil
}

func (f *fakeBoard) UpdateStatus(ctx context.Context, name string, st draft.Status) (*draft.Player, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p, err := f.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	f.gotStatus = st
	p.Status = st
	return p, nil
}

func (f *fakeBoard) Teammates(context.Context, string) ([]draft.Teammate, error) {
	return []draft.Teammate{{Name: "Joe Burrow", Position: "QB"}, {Name: "Tee Higgins", Position: "WR"}}, nil
}

func (f *fakeBoard) Analyze(ctx context.Context, name string, r research.Researcher, model string) (*draft.Analysis, bool, error) {
	if _, err := f.Get(ctx, name); err != nil {
		return nil, false, err
	}
	if a, ok := f.analyses[name]; ok {
		return a, false, nil
	}
	rep, err := r.Research(ctx, name, 2025)
	if err != nil {
		return nil, false, err
	}
	f.researchRan++
	a := &draft.Analysis{PlayerName: name, Season: 2025, Report: *rep, Model: model}
	f.analyses[name] = a
	return a, true, nil
}

type fakeCollector struct {
	outcome  seed.Outcome
	gotQuery string
	gotLimit int
}

func (f *fakeCollector) CollectPlayer(_ context.Context, q string) seed.Outcome {
	f.gotQuery = q
	out := f.outcome
	out.Query = q
	return out
}

func (f *fakeCollector) RefreshAll(_ context.Context, limit int) seed.Result {
	f.gotLimit = limit
	return seed.Result{Successful: 2, RowsStored: 9, Errors: []string{}}
}

type fakeResearcher struct{ err error }

func (f fakeResearcher) Research(context.Context, string, int) (*research.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &research.Report{Outlook: "WR1"}, nil
}

func (fakeResearcher) Model() string { return "test-model" }

type fakeDB struct{ err error }

func (f fakeDB) HealthCheck(context.Context) error { return f.err }

func floatPtr(v float64) *float64 { return &v }

type env struct {
	board     *fakeBoard
	collector *fakeCollector
	cache     *cache.Cache
	srv       http.Handler
}

func newEnv(t *testing.T, researcher handler.Researcher) *env {
	t.Helper()
	e := &env{
		board: &fakeBoard{
			players: []draft.Player{
				{Name: "Ja'Marr Chase", Season: 2025, Position: "WR", DraftValue: floatPtr(67)},
				{Name: "Bijan Robinson", Season: 2025, Position: "RB", DraftValue: floatPtr(64)},
			},
			analyses: map[string]*draft.Analysis{},
		},
		collector: &fakeCollector{outcome: seed.Outcome{Success: true, PFRID: "ChasJa00", Written: store.WriteResult{Receiving: 4}}},
		cache:     cache.New(true),
	}
	t.Cleanup(e.cache.Close)

	cfg := &config.Config{RefreshLimit: 25, CORSAllowOrigins: []string{"http://localhost:5173"}}
	e.srv = api.NewRouter(handler.Deps{
		Board:      e.board,
		Collector:  e.collector,
		Researcher: researcher,
		DB:         fakeDB{},
		Cache:      e.cache,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, cfg)
	return e
}

func (e *env) do(t *testing.T, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorBody {
	t.Helper()
	var resp respond.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestRootAndHealth(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"season":2025`)
	assert.Contains(t, rec.Body.String(), `"research":false`)
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health/db", "", nil).Code)

	rec = e.do(t, http.MethodGet, "/health/cache", "", nil)
	assert.Contains(t, rec.Body.String(), `"enabled":true`)
}

func TestHealthDB_Down(t *testing.T) {
	h := handler.New(handler.Deps{DB: fakeDB{err: errors.New("connection refused")}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	rec := httptest.NewRecorder()
	h.HealthCheckDB(rec, httptest.NewRequest(http.MethodGet, "/health/db", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestListPlayers(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/players?filter=available&position=wr&search=chase", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, draft.Query{Filter: draft.FilterAvailable, Position: "wr", Search: "chase"}, e.board.gotQuery)

	var body struct {
		Count   int            `json:"count"`
		Players []draft.Player `json:"players"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "Ja'Marr Chase", body.Players[0].Name)
	assert.Equal(t, 67.0, *body.Players[0].DraftValue)

	rec = e.do(t, http.MethodGet, "/api/players?filter=sleepers", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FILTER", decodeError(t, rec).Code)
}

func TestListPlayers_InternalErrorHidesDetail(t *testing.T) {
	e := newEnv(t, nil)
	e.board.listErr = errors.New(`relation "draft_values" does not exist`)

	rec := e.do(t, http.MethodGet, "/api/players", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "draft_values")
}

func TestGetPlayer_CachedWithETag(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/players/Ja'Marr%20Chase", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Contains(t, rec.Body.String(), `"teammates":[{"name":"Joe Burrow"`)

	rec = e.do(t, http.MethodGet, "/api/players/Ja'Marr%20Chase", "", nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = e.do(t, http.MethodGet, "/api/players/Ja'Marr%20Chase", "", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Equal(t, 1, e.board.details)

	rec = e.do(t, http.MethodGet, "/api/players/Nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PLAYER_NOT_FOUND", decodeError(t, rec).Code)
}

func TestUpdateStatus(t *testing.T) {
	e := newEnv(t, nil)
	e.do(t, http.MethodGet, "/api/players/Bijan%20Robinson", "", nil)
	require.Equal(t, 1, e.cache.Stats().TotalKeys)

	rec := e.do(t, http.MethodPost, "/api/players/Bijan%20Robinson/status",
		`{"is_drafted":true,"drafted_by":"Team 2","drafted_price":64}`, map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, e.board.gotStatus.IsDrafted)
	assert.Equal(t, 64, e.board.gotStatus.DraftedPrice)
	assert.Zero(t, e.cache.Stats().TotalKeys, "detail invalidated")

	rec = e.do(t, http.MethodPost, "/api/players/Bijan%20Robinson/status", `{"is_drafted":"yes"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/players/Bijan%20Robinson/status", `{"bogus":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/players/Nobody/status", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatus_ValidationError(t *testing.T) {
	e := newEnv(t, nil)
	v := validator.New()
	e.board.updateErr = v.Struct(draft.Status{DraftedPrice: -5})
	require.Error(t, e.board.updateErr)

	rec := e.do(t, http.MethodPost, "/api/players/Bijan%20Robinson/status", `{"drafted_price":-5}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_STATUS", decodeError(t, rec).Code)
}

func TestGetTeammates(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/players/Ja'Marr%20Chase/teammates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Tee Higgins"`)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/players/Nobody/teammates", "", nil).Code)
}

func TestAnalyzePlayer(t *testing.T) {
	e := newEnv(t, fakeResearcher{})

	rec := e.do(t, http.MethodPost, "/api/players/Ja'Marr%20Chase/analyze", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"created":true`)
	assert.Contains(t, rec.Body.String(), `"model":"test-model"`)

	rec = e.do(t, http.MethodPost, "/api/players/Ja'Marr%20Chase/analyze", "", nil)
	assert.Contains(t, rec.Body.String(), `"created":false`)
	assert.Equal(t, 1, e.board.researchRan)
}

func TestAnalyzePlayer_Errors(t *testing.T) {
	rec := newEnv(t, nil).do(t, http.MethodPost, "/api/players/Ja'Marr%20Chase/analyze", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = newEnv(t, fakeResearcher{err: research.ErrBadResponse}).do(t, http.MethodPost, "/api/players/Ja'Marr%20Chase/analyze", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "RESEARCH_FAILED", decodeError(t, rec).Code)
}

func TestRefreshPlayerStats(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodPost, "/api/players/Ja'Marr%20Chase/refresh-stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ja'Marr Chase", e.collector.gotQuery)
	assert.Contains(t, rec.Body.String(), `"pfr_id":"ChasJa00"`)

	e.collector.outcome = seed.Outcome{Error: "no candidates", Duration: time.Second}
	rec = e.do(t, http.MethodPost, "/api/players/Nobody/refresh-stats", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "no candidates", decodeError(t, rec).Detail)
}

func TestRefreshPlayerStats_ByIDDropsNamedDetail(t *testing.T) {
	e := newEnv(t, nil)
	e.cache.Set("player:Ja'Marr Chase", []byte("{}"), time.Minute)

	rec := e.do(t, http.MethodPost, "/api/players/ChasJa00/refresh-stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, _, ok := e.cache.Get("player:Ja'Marr Chase")
	assert.False(t, ok)
}

func TestRefreshPlayerStats_FailureKeepsCache(t *testing.T) {
	e := newEnv(t, nil)
	e.cache.Set("player:Ja'Marr Chase", []byte("{}"), time.Minute)
	e.collector.outcome = seed.Outcome{Error: "fetch failed"}

	rec := e.do(t, http.MethodPost, "/api/players/ChasJa00/refresh-stats", "", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	_, _, ok := e.cache.Get("player:Ja'Marr Chase")
	assert.True(t, ok)
}

func TestRefreshAllStats(t *testing.T) {
	e := newEnv(t, nil)
	e.cache.Set("player:A", []byte("{}"), time.Minute)

	rec := e.do(t, http.MethodPost, "/api/refresh-all-stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, e.collector.gotLimit)
	assert.Contains(t, rec.Body.String(), `"rows_stored":9`)
	assert.Zero(t, e.cache.Stats().TotalKeys)

	e.do(t, http.MethodPost, "/api/refresh-all-stats?limit=5", "", nil)
	assert.Equal(t, 5, e.collector.gotLimit)

	rec = e.do(t, http.MethodPost, "/api/refresh-all-stats?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
