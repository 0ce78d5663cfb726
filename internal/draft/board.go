// Package draft serves the auction draft board: ranked players with their
// inflated auction values, per-player draft status, teammates, recent stats
// and stored research.
package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ffdraft/draftboard/internal/config"
	"github.com/ffdraft/draftboard/internal/db"
	"github.com/ffdraft/draftboard/internal/provider"
	"github.com/ffdraft/draftboard/internal/research"
	"github.com/ffdraft/draftboard/internal/store"
)

var (
	// ErrNotFound is returned when a player is not on the board for the season.
	ErrNotFound = errors.New("player not on draft board")
	// ErrInvalidFilter is returned for an unknown board filter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrNoAnalysis is returned when a player has no stored analysis.
	ErrNoAnalysis = errors.New("no analysis stored")
)

// Filter narrows the board by draft status.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterAvailable Filter = "available"
	FilterDrafted   Filter = "drafted"
	FilterTargets   Filter = "targets"
	FilterAvoid     Filter = "avoid"
)

// ParseFilter validates s. An empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterAvailable, FilterDrafted, FilterTargets, FilterAvoid:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidFilter, s)
	}
}

// Query selects board rows.
type Query struct {
	Filter   Filter
	Position string
	Search   string
}

// excludedPositions never appear on the board.
var excludedPositions = []string{"K", "DST"}

// Status is the user's draft-day markup for one player.
type Status struct {
	IsTarget             bool   `json:"is_target"`
	IsAvoid              bool   `json:"is_avoid"`
	IsDrafted            bool   `json:"is_drafted"`
	DraftedBy            string `json:"drafted_by" validate:"max=100"`
	DraftedPrice         int    `json:"drafted_price" validate:"gte=0,lte=1000"`
	HasInjuryRisk        bool   `json:"has_injury_risk"`
	HasBreakoutPotential bool   `json:"has_breakout_potential"`
	CustomTags           string `json:"custom_tags" validate:"max=500"`
	DraftNotes           string `json:"draft_notes" validate:"max=2000"`
}

// Player is one board row.
type Player struct {
	Name        string   `json:"player_name"`
	Season      int      `json:"season"`
	Position    string   `json:"position"`
	Team        string   `json:"team"`
	RankOverall *int     `json:"rank_overall"`
	BaseValue   *float64 `json:"base_value"`
	DraftValue  *float64 `json:"draft_value"`
	Status
	HasAnalysis bool `json:"has_analysis"`
}

// Teammate is a skill-position teammate of a board player.
type Teammate struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// Analysis is a stored research report.
type Analysis struct {
	PlayerName   string          `json:"player_name"`
	Season       int             `json:"season"`
	AnalysisText string          `json:"analysis_text"`
	Report       research.Report `json:"report"`
	Model        string          `json:"model,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Detail is everything the board shows for one player.
type Detail struct {
	Player
	PFRID     string                `json:"pfr_id,omitempty"`
	Teammates []Teammate            `json:"teammates"`
	Stats     *provider.PlayerStats `json:"stats,omitempty"`
	Analysis  *Analysis             `json:"analysis,omitempty"`
}

// StatsReader reads scraped stats. Implemented by *store.Store.
type StatsReader interface {
	PlayerByQuery(ctx context.Context, q string) (*store.Player, error)
	StatsForPlayer(ctx context.Context, playerID int64, seasons []int) (provider.PlayerStats, error)
}

// Options configure a Board.
type Options struct {
	// Season is the draft season the board rows belong to.
	Season int
	// StatsSeason is the most recent completed season shown in Detail.
	StatsSeason int
	// Inflation multiplies every auction value.
	Inflation float64
}

const statSeasons = 3

// Board reads and updates the draft board.
type Board struct {
	pool     *pgxpool.Pool
	stats    StatsReader
	validate *validator.Validate
	opts     Options
	logger   *slog.Logger
}

// NewBoard creates a Board. A zero Inflation means 1.
func NewBoard(pool *pgxpool.Pool, stats StatsReader, opts Options, logger *slog.Logger) *Board {
	if opts.Inflation <= 0 {
		opts.Inflation = 1
	}
	if opts.StatsSeason == 0 {
		opts.StatsSeason = opts.Season - 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		pool:     pool,
		stats:    stats,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
		logger:   logger,
	}
}

// Season returns the draft season.
func (b *Board) Season() int { return b.opts.Season }

// Inflate applies the inflation factor to an auction value, rounded to a
// whole dollar.
func Inflate(value, factor float64) float64 {
	return math.Round(value * factor)
}

// listSQL builds the board query. Filtering by name uses the exact board
// name; fuzzy search happens after the rows are read.
func listSQL(season int, q Query, name string) (string, []any) {
	var sb strings.Builder
	args := []any{season, excludedPositions}

	sb.WriteString(`
		SELECT dv.player_name, dv.season, dv.position, COALESCE(dv.team, ''), dv.rank_overall, dv.draft_value,
		       COALESCE(s.is_target, FALSE), COALESCE(s.is_avoid, FALSE), COALESCE(s.is_drafted, FALSE),
		       COALESCE(s.drafted_by, ''), COALESCE(s.drafted_price, 0),
		       COALESCE(s.has_injury_risk, FALSE), COALESCE(s.has_breakout_potential, FALSE),
		       COALESCE(s.custom_tags, ''), COALESCE(s.draft_notes, ''),
		       (a.player_name IS NOT NULL)
		FROM ` + config.DraftValuesTable + ` dv
		LEFT JOIN ` + config.DraftStatusTable + ` s ON s.player_name = dv.player_name AND s.season = dv.season
		LEFT JOIN ` + config.AnalysisTable + ` a ON a.player_name = dv.player_name AND a.season = dv.season
		WHERE dv.season = $1 AND NOT (UPPER(dv.position) = ANY($2))`)

	switch q.Filter {
	case FilterAvailable:
		sb.WriteString(` AND NOT COALESCE(s.is_drafted, FALSE)`)
	case FilterDrafted:
		sb.WriteString(` AND COALESCE(s.is_drafted, FALSE)`)
	case FilterTargets:
		sb.WriteString(` AND COALESCE(s.is_target, FALSE)`)
	case FilterAvoid:
		sb.WriteString(` AND COALESCE(s.is_avoid, FALSE)`)
	}
	if pos := strings.TrimSpace(q.Position); pos != "" {
		args = append(args, strings.ToUpper(pos))
		sb.WriteString(` AND UPPER(dv.position) = $` + strconv.Itoa(len(args)))
	}
	if name != "" {
		args = append(args, name)
		sb.WriteString(` AND dv.player_name = $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY dv.rank_overall NULLS LAST, dv.player_name`)
	return sb.String(), args
}

func (b *Board) query(ctx context.Context, q Query, name string) ([]Player, error) {
	sql, args := listSQL(b.opts.Season, q, name)
	rows, err := b.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query board: %w", err)
	}
	players, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Player, error) {
		var p Player
		err := row.Scan(&p.Name, &p.Season, &p.Position, &p.Team, &p.RankOverall, &p.BaseValue,
			&p.IsTarget, &p.IsAvoid, &p.IsDrafted, &p.DraftedBy, &p.DraftedPrice,
			&p.HasInjuryRisk, &p.HasBreakoutPotential, &p.CustomTags, &p.DraftNotes, &p.HasAnalysis)
		if p.BaseValue != nil {
			v := Inflate(*p.BaseValue, b.opts.Inflation)
			p.DraftValue = &v
		}
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan board: %w", err)
	}
	return players, nil
}

// List returns board rows in rank order.
func (b *Board) List(ctx context.Context, q Query) ([]Player, error) {
	players, err := b.query(ctx, q, "")
	if err != nil {
		return nil, err
	}
	return Search(players, q.Search), nil
}

// Search keeps players whose name fuzzily matches term, preserving order.
// Matching ignores case and diacritics; an empty term keeps everything.
func Search(players []Player, term string) []Player {
	term = strings.TrimSpace(term)
	if term == "" {
		return players
	}
	out := players[:0:0]
	for _, p := range players {
		if fuzzy.MatchNormalizedFold(term, p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// Get returns one board row by exact player name.
func (b *Board) Get(ctx context.Context, name string) (*Player, error) {
	players, err := b.query(ctx, Query{}, name)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, ErrNotFound
	}
	return &players[0], nil
}

// Validate checks a status update.
func (b *Board) Validate(st Status) error {
	return b.validate.Struct(st)
}

// UpdateStatus replaces a player's draft status.
func (b *Board) UpdateStatus(ctx context.Context, name string, st Status) (*Player, error) {
	if err := b.Validate(st); err != nil {
		return nil, err
	}
	if _, err := b.Get(ctx, name); err != nil {
		return nil, err
	}

	_, err := b.pool.Exec(ctx, `
		INSERT INTO `+config.DraftStatusTable+` (player_name, season, is_target, is_avoid, is_drafted,
			drafted_by, drafted_price, has_injury_risk, has_breakout_potential, custom_tags, draft_notes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (player_name, season) DO UPDATE SET
			is_target = EXCLUDED.is_target,
			is_avoid = EXCLUDED.is_avoid,
			is_drafted = EXCLUDED.is_drafted,
			drafted_by = EXCLUDED.drafted_by,
			drafted_price = EXCLUDED.drafted_price,
			has_injury_risk = EXCLUDED.has_injury_risk,
			has_breakout_potential = EXCLUDED.has_breakout_potential,
			custom_tags = EXCLUDED.custom_tags,
			draft_notes = EXCLUDED.draft_notes,
			updated_at = NOW()`,
		name, b.opts.Season, st.IsTarget, st.IsAvoid, st.IsDrafted,
		strings.TrimSpace(st.DraftedBy), st.DraftedPrice, st.HasInjuryRisk, st.HasBreakoutPotential,
		strings.TrimSpace(st.CustomTags), st.DraftNotes)
	if err != nil {
		return nil, fmt.Errorf("update status %q: %w", name, err)
	}
	b.logger.Info("Draft status updated", "player", name, "drafted", st.IsDrafted, "target", st.IsTarget)
	return b.Get(ctx, name)
}

// Teammates lists a player's skill-position teammates, QB first.
func (b *Board) Teammates(ctx context.Context, name string) ([]Teammate, error) {
	rows, err := b.pool.Query(ctx, db.StmtTeammates, name, b.opts.Season)
	if err != nil {
		return nil, fmt.Errorf("teammates %q: %w", name, err)
	}
	mates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Teammate, error) {
		var t Teammate
		err := row.Scan(&t.Name, &t.Position)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("teammates %q: %w", name, err)
	}
	return mates, nil
}

// StatSeasons returns the seasons shown in Detail, newest first.
func (b *Board) StatSeasons() []int {
	seasons := make([]int, statSeasons)
	for i := range seasons {
		seasons[i] = b.opts.StatsSeason - i
	}
	return seasons
}

// RecentStats reads the last three seasons of scraped stats for name. It
// returns store.ErrNotFound when the player was never scraped.
func (b *Board) RecentStats(ctx context.Context, name string) (*store.Player, provider.PlayerStats, error) {
	p, err := b.stats.PlayerByQuery(ctx, name)
	if err != nil {
		return nil, provider.PlayerStats{}, err
	}
	stats, err := b.stats.StatsForPlayer(ctx, p.ID, b.StatSeasons())
	if err != nil {
		return nil, provider.PlayerStats{}, err
	}
	return p, stats, nil
}

// Detail assembles the board row, teammates, recent stats and stored
// analysis for one player. Missing stats or analysis are omitted.
func (b *Board) Detail(ctx context.Context, name string) (*Detail, error) {
	p, err := b.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	d := &Detail{Player: *p}

	if d.Teammates, err = b.Teammates(ctx, name); err != nil {
		return nil, err
	}

	sp, stats, err := b.RecentStats(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		b.logger.Debug("No scraped stats for board player", "player", name)
	case err != nil:
		return nil, err
	default:
		d.PFRID = sp.PFRID
		d.Stats = &stats
	}

	a, err := b.Analysis(ctx, name)
	switch {
	case errors.Is(err, ErrNoAnalysis):
	case err != nil:
		return nil, err
	default:
		d.Analysis = a
	}
	return d, nil
}

// Analysis returns the stored analysis for name.
func (b *Board) Analysis(ctx context.Context, name string) (*Analysis, error) {
	var a Analysis
	var pt, ir, br, bu *int
	err := b.pool.QueryRow(ctx, db.StmtAnalysisGet, name, b.opts.Season).Scan(
		&a.PlayerName, &a.Season, &a.AnalysisText,
		&a.Report.PlayingTime, &a.Report.InjuryRisk, &a.Report.BreakoutRisk, &a.Report.BustRisk,
		&a.Report.KeyChanges, &a.Report.Outlook,
		&pt, &ir, &br, &bu, &a.Model, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoAnalysis
	}
	if err != nil {
		return nil, fmt.Errorf("read analysis %q: %w", name, err)
	}
	a.Report.Scores = scoresFrom(pt, ir, br, bu)
	return &a, nil
}

func scoresFrom(pt, ir, br, bu *int) *research.Scores {
	if pt == nil && ir == nil && br == nil && bu == nil {
		return nil
	}
	deref := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	return &research.Scores{PlayingTime: deref(pt), InjuryRisk: deref(ir), BreakoutRisk: deref(br), BustRisk: deref(bu)}
}

func scoreArgs(s *research.Scores) (pt, ir, br, bu *int) {
	if s == nil {
		return nil, nil, nil, nil
	}
	return &s.PlayingTime, &s.InjuryRisk, &s.BreakoutRisk, &s.BustRisk
}

// SaveAnalysis stores a report for name, replacing any earlier one.
func (b *Board) SaveAnalysis(ctx context.Context, name string, r *research.Report, model string) (*Analysis, error) {
	linked := r.Linkified()
	pt, ir, br, bu := scoreArgs(r.Scores)

	_, err := b.pool.Exec(ctx, `
		INSERT INTO `+config.AnalysisTable+` (player_name, season, analysis_text, playing_time, injury_risk,
			breakout_risk, bust_risk, key_changes, outlook, playing_time_score, injury_risk_score,
			breakout_risk_score, bust_risk_score, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''), NOW())
		ON CONFLICT (player_name, season) DO UPDATE SET
			analysis_text = EXCLUDED.analysis_text,
			playing_time = EXCLUDED.playing_time,
			injury_risk = EXCLUDED.injury_risk,
			breakout_risk = EXCLUDED.breakout_risk,
			bust_risk = EXCLUDED.bust_risk,
			key_changes = EXCLUDED.key_changes,
			outlook = EXCLUDED.outlook,
			playing_time_score = EXCLUDED.playing_time_score,
			injury_risk_score = EXCLUDED.injury_risk_score,
			breakout_risk_score = EXCLUDED.breakout_risk_score,
			bust_risk_score = EXCLUDED.bust_risk_score,
			model = EXCLUDED.model,
			created_at = NOW()`,
		name, b.opts.Season, r.AnalysisText(), linked.PlayingTime, linked.InjuryRisk,
		linked.BreakoutRisk, linked.BustRisk, linked.KeyChanges, linked.Outlook,
		pt, ir, br, bu, model)
	if err != nil {
		return nil, fmt.Errorf("save analysis %q: %w", name, err)
	}
	return b.Analysis(ctx, name)
}

// Analyze returns the stored analysis for name, or researches and stores a
// new one. created reports whether research ran.
func (b *Board) Analyze(ctx context.Context, name string, r research.Researcher, model string) (a *Analysis, created bool, err error) {
	if _, err := b.Get(ctx, name); err != nil {
		return nil, false, err
	}
	a, err = b.Analysis(ctx, name)
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, ErrNoAnalysis) {
		return nil, false, err
	}

	start := time.Now()
	report, err := r.Research(ctx, name, b.opts.Season)
	if err != nil {
		return nil, false, fmt.Errorf("research %q: %w", name, err)
	}
	a, err = b.SaveAnalysis(ctx, name, report, model)
	if err != nil {
		return nil, false, err
	}
	b.logger.Info("Analysis stored", "player", name, "model", model, "duration", time.Since(start).Round(time.Millisecond))
	return a, true, nil
}

// PendingAnalysis lists board players without an analysis, best ranked
// first.
func (b *Board) PendingAnalysis(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := b.pool.Query(ctx, `
		SELECT dv.player_name
		FROM `+config.DraftValuesTable+` dv
		LEFT JOIN `+config.AnalysisTable+` a ON a.player_name = dv.player_name AND a.season = dv.season
		WHERE dv.season = $1 AND a.player_name IS NULL AND NOT (UPPER(dv.position) = ANY($2))
		ORDER BY dv.rank_overall NULLS LAST, dv.player_name
		LIMIT $3`, b.opts.Season, excludedPositions, limit)
	if err != nil {
		return nil, fmt.Errorf("pending analysis: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("pending analysis: %w", err)
	}
	return names, nil
}
