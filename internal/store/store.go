// Package store persists scraped players and season stats to Postgres.
//
// Writes are idempotent: players upsert on pfr_id, stat rows upsert on
// (player_id, team_id, season) with the newest values winning. A full
// refresh of one player runs delete-then-insert inside a single
// transaction so readers never see a half-written player.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ffdraft/draftboard/internal/config"
	"github.com/ffdraft/draftboard/internal/db"
	"github.com/ffdraft/draftboard/internal/provider"
)

// ErrNotFound is returned by read methods when no player matches.
var ErrNotFound = errors.New("player not found")

// ErrEmptyTeam is returned by TeamID for a blank abbreviation.
var ErrEmptyTeam = errors.New("empty team abbreviation")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is the Postgres persistence layer.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a store over a pool created by db.New.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// WriteResult counts what a stats write did.
type WriteResult struct {
	Passing   int `json:"passing"`
	Rushing   int `json:"rushing"`
	Receiving int `json:"receiving"`
	// Skipped counts records whose player or team could not be resolved.
	Skipped int `json:"skipped"`
}

// Total returns the number of rows written.
func (w WriteResult) Total() int { return w.Passing + w.Rushing + w.Receiving }

// --------------------------------------------------------------------------
// Players and teams
// --------------------------------------------------------------------------

// UpsertPlayer inserts or updates a player by PFR id and returns its internal
// id. Known values are kept when the new profile omits them.
func (s *Store) UpsertPlayer(ctx context.Context, p provider.PlayerInfo) (int64, error) {
	if p.PFRID == "" {
		return 0, fmt.Errorf("upsert player: empty pfr id")
	}
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO `+config.PlayersTable+` (
			pfr_id, name, position, height, weight, birth_date, college,
			drafted_year, drafted_round, drafted_pick
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (pfr_id) DO UPDATE SET
			name = EXCLUDED.name,
			position = COALESCE(EXCLUDED.position, `+config.PlayersTable+`.position),
			height = COALESCE(EXCLUDED.height, `+config.PlayersTable+`.height),
			weight = COALESCE(EXCLUDED.weight, `+config.PlayersTable+`.weight),
			birth_date = COALESCE(EXCLUDED.birth_date, `+config.PlayersTable+`.birth_date),
			college = COALESCE(EXCLUDED.college, `+config.PlayersTable+`.college),
			drafted_year = COALESCE(EXCLUDED.drafted_year, `+config.PlayersTable+`.drafted_year),
			drafted_round = COALESCE(EXCLUDED.drafted_round, `+config.PlayersTable+`.drafted_round),
			drafted_pick = COALESCE(EXCLUDED.drafted_pick, `+config.PlayersTable+`.drafted_pick),
			updated_at = NOW()
		RETURNING id`,
		p.PFRID, p.Name, nilEmpty(p.Position), nilEmpty(p.Height), p.Weight,
		parseDate(p.BirthDate), nilEmpty(p.College),
		p.DraftedYear, p.DraftedRound, p.DraftedPick,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert player %s: %w", p.PFRID, err)
	}
	return id, nil
}

// TeamID returns the id for a team abbreviation, creating the team with the
// abbreviation as its name when it is unknown. Matching is case-insensitive.
func (s *Store) TeamID(ctx context.Context, abbr string) (int64, error) {
	return teamID(ctx, s.pool, abbr)
}

func teamID(ctx context.Context, q querier, abbr string) (int64, error) {
	abbr = strings.TrimSpace(abbr)
	if abbr == "" {
		return 0, ErrEmptyTeam
	}

	var id int64
	err := q.QueryRow(ctx, db.StmtTeamIDByAbbr, abbr).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("lookup team %s: %w", abbr, err)
	}

	err = q.QueryRow(ctx, db.StmtTeamInsert, abbr).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("create team %s: %w", abbr, err)
	}

	// Lost a race with another writer; its row is visible now.
	if err := q.QueryRow(ctx, db.StmtTeamIDByAbbr, abbr).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup team %s after conflict: %w", abbr, err)
	}
	return id, nil
}

// --------------------------------------------------------------------------
// Stats
// --------------------------------------------------------------------------

// InsertStats upserts every record, resolving each record's player by PFR id.
// Records for unknown players or blank teams are skipped with a warning.
func (s *Store) InsertStats(ctx context.Context, stats provider.PlayerStats) (WriteResult, error) {
	ids := make(map[string]int64)
	resolve := func(ctx context.Context, pfrID string) (int64, bool, error) {
		if id, ok := ids[pfrID]; ok {
			return id, true, nil
		}
		var id int64
		err := s.pool.QueryRow(ctx, db.StmtPlayerIDByPFRID, pfrID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, fmt.Errorf("lookup player %s: %w", pfrID, err)
		}
		ids[pfrID] = id
		return id, true, nil
	}
	return s.writeStats(ctx, s.pool, stats, resolve)
}

// ReplacePlayerStats deletes every stat row of playerID and writes stats in
// one transaction. Any failure rolls the whole player back.
func (s *Store) ReplacePlayerStats(ctx context.Context, playerID int64, stats provider.PlayerStats) (WriteResult, error) {
	var res WriteResult
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, table := range config.StatTables {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE player_id = $1", playerID); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		fixed := func(context.Context, string) (int64, bool, error) { return playerID, true, nil }
		var err error
		res, err = s.writeStats(ctx, tx, stats, fixed)
		return err
	})
	if err != nil {
		return WriteResult{}, fmt.Errorf("replace stats for player %d: %w", playerID, err)
	}
	return res, nil
}

type resolveFunc func(ctx context.Context, pfrID string) (int64, bool, error)

// writeStats resolves ids, then sends every upsert in one batch.
func (s *Store) writeStats(ctx context.Context, q querier, stats provider.PlayerStats, resolvePlayer resolveFunc) (WriteResult, error) {
	var res WriteResult
	teams := make(map[string]int64)

	keys := func(k provider.SeasonKey) (playerID, team int64, ok bool, err error) {
		playerID, found, err := resolvePlayer(ctx, k.PlayerID)
		if err != nil {
			return 0, 0, false, err
		}
		if !found {
			s.logger.Warn("Skipping stat record for unknown player",
				"player", k.PlayerID, "season", k.Season, "team", k.Team)
			res.Skipped++
			return 0, 0, false, nil
		}
		upper := strings.ToUpper(k.Team)
		team, cached := teams[upper]
		if !cached {
			team, err = teamID(ctx, q, k.Team)
			if errors.Is(err, ErrEmptyTeam) {
				s.logger.Warn("Skipping stat record without team",
					"player", k.PlayerID, "season", k.Season)
				res.Skipped++
				return 0, 0, false, nil
			}
			if err != nil {
				return 0, 0, false, err
			}
			teams[upper] = team
		}
		return playerID, team, true, nil
	}

	batch := &pgx.Batch{}
	var kinds []*int

	for _, r := range stats.Passing {
		pid, tid, ok, err := keys(r.SeasonKey)
		if err != nil {
			return res, err
		}
		if ok {
			batch.Queue(passingUpsert, append([]any{pid, tid, r.Season}, passingArgs(r)...)...)
			kinds = append(kinds, &res.Passing)
		}
	}
	for _, r := range stats.Rushing {
		pid, tid, ok, err := keys(r.SeasonKey)
		if err != nil {
			return res, err
		}
		if ok {
			batch.Queue(rushingUpsert, append([]any{pid, tid, r.Season}, rushingArgs(r)...)...)
			kinds = append(kinds, &res.Rushing)
		}
	}
	for _, r := range stats.Receiving {
		pid, tid, ok, err := keys(r.SeasonKey)
		if err != nil {
			return res, err
		}
		if ok {
			batch.Queue(receivingUpsert, append([]any{pid, tid, r.Season}, receivingArgs(r)...)...)
			kinds = append(kinds, &res.Receiving)
		}
	}

	if batch.Len() == 0 {
		return res, nil
	}

	br := q.SendBatch(ctx, batch)
	for _, counter := range kinds {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return res, fmt.Errorf("upsert stats: %w", err)
		}
		*counter++
	}
	if err := br.Close(); err != nil {
		return res, fmt.Errorf("close batch: %w", err)
	}
	return res, nil
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

// Player is a stored player with its internal id.
type Player struct {
	ID int64 `json:"id"`
	provider.PlayerInfo
	UpdatedAt time.Time `json:"updated_at"`
}

const playerColumns = `id, pfr_id, name, COALESCE(position, ''), COALESCE(height, ''), weight,
	birth_date, COALESCE(college, ''), drafted_year, drafted_round, drafted_pick, updated_at`

func scanPlayer(row pgx.Row) (Player, error) {
	var p Player
	var birth *time.Time
	err := row.Scan(&p.ID, &p.PFRID, &p.Name, &p.Position, &p.Height, &p.Weight,
		&birth, &p.College, &p.DraftedYear, &p.DraftedRound, &p.DraftedPick, &p.UpdatedAt)
	if birth != nil {
		p.BirthDate = birth.Format(time.DateOnly)
	}
	return p, err
}

// PlayerByQuery finds one player by PFR id or name. An exact id or
// case-insensitive name match wins; otherwise the most recently updated
// partial name match is returned.
func (s *Store) PlayerByQuery(ctx context.Context, q string) (*Player, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM `+config.PlayersTable+`
		WHERE pfr_id = $1 OR LOWER(name) = LOWER($1) OR name ILIKE '%' || $1 || '%'
		ORDER BY (pfr_id = $1) DESC, (LOWER(name) = LOWER($1)) DESC, updated_at DESC
		LIMIT 1`, q)
	p, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find player %q: %w", q, err)
	}
	return &p, nil
}

// SearchPlayers lists stored players whose name contains q, optionally
// restricted to a position.
func (s *Store) SearchPlayers(ctx context.Context, q, position string, limit int) ([]Player, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+playerColumns+`
		FROM `+config.PlayersTable+`
		WHERE name ILIKE '%' || $1 || '%' AND ($2 = '' OR position = UPPER($2))
		ORDER BY name
		LIMIT $3`, strings.TrimSpace(q), strings.TrimSpace(position), limit)
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	players, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Player, error) {
		return scanPlayer(row)
	})
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	return players, nil
}

// StatsForPlayer reads a player's stats, newest season first. An empty
// seasons slice means every season.
func (s *Store) StatsForPlayer(ctx context.Context, playerID int64, seasons []int) (provider.PlayerStats, error) {
	var out provider.PlayerStats
	var err error

	if out.Passing, err = readStats(ctx, s.pool, config.PassingStatsTable, passingColumns, playerID, seasons, passingDest); err != nil {
		return out, err
	}
	if out.Rushing, err = readStats(ctx, s.pool, config.RushingStatsTable, rushingColumns, playerID, seasons, rushingDest); err != nil {
		return out, err
	}
	if out.Receiving, err = readStats(ctx, s.pool, config.ReceivingStatsTable, receivingColumns, playerID, seasons, receivingDest); err != nil {
		return out, err
	}
	return out, nil
}

// keyed is the set of season stat record types.
type keyed interface {
	provider.PassingStats | provider.RushingStats | provider.ReceivingStats
}

func readStats[T keyed](ctx context.Context, q querier, table string, cols []string, playerID int64, seasons []int, dest func(*T) []any) ([]T, error) {
	sql := `SELECT p.pfr_id, s.season, t.abbreviation, s.` + strings.Join(cols, ", s.") + `
		FROM ` + table + ` s
		JOIN ` + config.PlayersTable + ` p ON p.id = s.player_id
		JOIN ` + config.TeamsTable + ` t ON t.id = s.team_id
		WHERE s.player_id = $1 AND (cardinality($2::int[]) = 0 OR s.season = ANY($2))
		ORDER BY s.season DESC, s.id`
	if seasons == nil {
		seasons = []int{}
	}
	rows, err := q.Query(ctx, sql, playerID, seasons)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		var rec T
		var key provider.SeasonKey
		err := row.Scan(append([]any{&key.PlayerID, &key.Season, &key.Team}, dest(&rec)...)...)
		setKey(&rec, key)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return out, nil
}

func setKey(rec any, k provider.SeasonKey) {
	switch r := rec.(type) {
	case *provider.PassingStats:
		r.SeasonKey = k
	case *provider.RushingStats:
		r.SeasonKey = k
	case *provider.ReceivingStats:
		r.SeasonKey = k
	}
}

// Counts is the row count of every core table.
type Counts struct {
	Players   int64 `json:"players"`
	Teams     int64 `json:"teams"`
	Passing   int64 `json:"passing_stats"`
	Rushing   int64 `json:"rushing_stats"`
	Receiving int64 `json:"receiving_stats"`
}

// Counts reports table sizes.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM `+config.PlayersTable+`),
		(SELECT COUNT(*) FROM `+config.TeamsTable+`),
		(SELECT COUNT(*) FROM `+config.PassingStatsTable+`),
		(SELECT COUNT(*) FROM `+config.RushingStatsTable+`),
		(SELECT COUNT(*) FROM `+config.ReceivingStatsTable+`)`,
	).Scan(&c.Players, &c.Teams, &c.Passing, &c.Rushing, &c.Receiving)
	if err != nil {
		return c, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// RefreshNames returns up to limit player names from the draft values of
// season, best ranked first.
func (s *Store) RefreshNames(ctx context.Context, season, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, db.StmtRefreshNames, season, limit)
	if err != nil {
		return nil, fmt.Errorf("refresh names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("refresh names: %w", err)
	}
	return names, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// nilEmpty returns nil for empty strings (so Postgres stores NULL).
func nilEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseDate converts YYYY-MM-DD to a date parameter; anything else is NULL.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}
