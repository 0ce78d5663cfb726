package store

import (
	"fmt"
	"strings"

	"github.com/ffdraft/draftboard/internal/config"
	"github.com/ffdraft/draftboard/internal/provider"
)

// Column lists per stat table. Order matches the *Args and *Dest functions.
var (
	passingColumns = []string{
		"games", "games_started", "completions", "attempts", "completion_pct",
		"passing_yards", "passing_tds", "interceptions", "yards_per_attempt",
		"yards_per_completion", "quarterback_rating", "sacks", "sack_yards",
	}
	rushingColumns = []string{
		"games", "games_started", "rushing_attempts", "rushing_yards",
		"yards_per_attempt", "rushing_tds", "longest_rush", "fumbles", "fumbles_lost",
	}
	receivingColumns = []string{
		"games", "games_started", "targets", "receptions", "receiving_yards",
		"yards_per_reception", "receiving_tds", "longest_reception", "catch_pct",
		"yards_per_target", "fumbles", "fumbles_lost",
	}
)

var (
	passingUpsert   = upsertSQL(config.PassingStatsTable, passingColumns)
	rushingUpsert   = upsertSQL(config.RushingStatsTable, rushingColumns)
	receivingUpsert = upsertSQL(config.ReceivingStatsTable, receivingColumns)
)

// upsertSQL builds an insert keyed on (player_id, team_id, season) where
// the incoming row replaces every stat column, absent values included.
func upsertSQL(table string, cols []string) string {
	placeholders := make([]string, 0, len(cols)+3)
	for i := range len(cols) + 3 {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = EXCLUDED."+c)
	}
	sets = append(sets, "updated_at = NOW()")

	return "INSERT INTO " + table + " (player_id, team_id, season, " + strings.Join(cols, ", ") + ")" +
		" VALUES (" + strings.Join(placeholders, ", ") + ")" +
		" ON CONFLICT (player_id, team_id, season) DO UPDATE SET " + strings.Join(sets, ", ")
}

func passingArgs(r provider.PassingStats) []any {
	return []any{
		r.Games, r.GamesStarted, r.Completions, r.Attempts, r.CompletionPct,
		r.PassingYards, r.PassingTDs, r.Interceptions, r.YardsPerAttempt,
		r.YardsPerCompletion, r.QuarterbackRating, r.Sacks, r.SackYards,
	}
}

func passingDest(r *provider.PassingStats) []any {
	return []any{
		&r.Games, &r.GamesStarted, &r.Completions, &r.Attempts, &r.CompletionPct,
		&r.PassingYards, &r.PassingTDs, &r.Interceptions, &r.YardsPerAttempt,
		&r.YardsPerCompletion, &r.QuarterbackRating, &r.Sacks, &r.SackYards,
	}
}

func rushingArgs(r provider.RushingStats) []any {
	return []any{
		r.Games, r.GamesStarted, r.Attempts, r.Yards,
		r.YardsPerAttempt, r.TDs, r.Longest, r.Fumbles, r.FumblesLost,
	}
}

func rushingDest(r *provider.RushingStats) []any {
	return []any{
		&r.Games, &r.GamesStarted, &r.Attempts, &r.Yards,
		&r.YardsPerAttempt, &r.TDs, &r.Longest, &r.Fumbles, &r.FumblesLost,
	}
}

func receivingArgs(r provider.ReceivingStats) []any {
	return []any{
		r.Games, r.GamesStarted, r.Targets, r.Receptions, r.Yards,
		r.YardsPerReception, r.TDs, r.Longest, r.CatchPct,
		r.YardsPerTarget, r.Fumbles, r.FumblesLost,
	}
}

func receivingDest(r *provider.ReceivingStats) []any {
	return []any{
		&r.Games, &r.GamesStarted, &r.Targets, &r.Receptions, &r.Yards,
		&r.YardsPerReception, &r.TDs, &r.Longest, &r.CatchPct,
		&r.YardsPerTarget, &r.Fumbles, &r.FumblesLost,
	}
}
