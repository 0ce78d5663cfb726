// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking and the embedded schema migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ffdraft/draftboard/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must already be
// migrated: statements are prepared against it on every new connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Prepared statement names shared with the store and draft packages.
const (
	StmtHealthCheck     = "health_check"
	StmtPlayerIDByPFRID = "player_id_by_pfr_id"
	StmtTeamIDByAbbr    = "team_id_by_abbr"
	StmtTeamInsert      = "team_insert"
	StmtRefreshNames    = "refresh_names"
	StmtTeammates       = "teammates"
	StmtAnalysisGet     = "analysis_get"
)

// registerPreparedStatements registers the statements used on hot paths:
// per-record id resolution during ingestion and per-request board lookups.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		StmtHealthCheck: "SELECT 1",

		// Ingestion: identity resolution
		StmtPlayerIDByPFRID: "SELECT id FROM " + config.PlayersTable + " WHERE pfr_id = $1",
		StmtTeamIDByAbbr:    "SELECT id FROM " + config.TeamsTable + " WHERE abbreviation = UPPER($1)",
		StmtTeamInsert: "INSERT INTO " + config.TeamsTable + " (abbreviation, name) VALUES (UPPER($1), UPPER($1)) " +
			"ON CONFLICT (abbreviation) DO NOTHING RETURNING id",

		// Ingestion: refresh list, highest ranked first
		StmtRefreshNames: "SELECT player_name FROM " + config.DraftValuesTable +
			" WHERE season = $1 ORDER BY rank_overall NULLS LAST, player_name LIMIT $2",

		// Draft board
		StmtTeammates: "SELECT teammate_name, teammate_position FROM " + config.TeammatesTable +
			" WHERE player_name = $1 AND season = $2" +
			" ORDER BY CASE teammate_position WHEN 'QB' THEN 1 WHEN 'RB' THEN 2 WHEN 'WR' THEN 3 WHEN 'TE' THEN 4 ELSE 5 END, teammate_name",
		StmtAnalysisGet: "SELECT player_name, season, analysis_text, COALESCE(playing_time, ''), COALESCE(injury_risk, '')," +
			" COALESCE(breakout_risk, ''), COALESCE(bust_risk, ''), COALESCE(key_changes, ''), COALESCE(outlook, '')," +
			" playing_time_score, injury_risk_score, breakout_risk_score, bust_risk_score," +
			" COALESCE(model, ''), created_at FROM " + config.AnalysisTable + " WHERE player_name = $1 AND season = $2",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
