// Command ingest is the draftboard stats ingestion CLI.
//
// Usage:
//
//	draftboard-ingest collect top
//	draftboard-ingest collect player "Patrick Mahomes" McCaCh01
//	draftboard-ingest refresh all --limit 150
//	draftboard-ingest search "mike williams" --remote
//	draftboard-ingest stats --player MahoPa00
//	draftboard-ingest analyze --limit 20
//	draftboard-ingest migrate up
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ffdraft/draftboard/internal/config"
	"github.com/ffdraft/draftboard/internal/db"
	"github.com/ffdraft/draftboard/internal/draft"
	"github.com/ffdraft/draftboard/internal/provider/pfr"
	"github.com/ffdraft/draftboard/internal/research"
	"github.com/ffdraft/draftboard/internal/seed"
	"github.com/ffdraft/draftboard/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// delaySeconds overrides SCRAPER_DELAY_SECONDS when non-negative.
var delaySeconds float64

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "draftboard-ingest",
		Short:        "Draftboard stats ingestion CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().Float64Var(&delaySeconds, "delay", -1, "Seconds between requests to the stats source (default from SCRAPER_DELAY_SECONDS)")

	root.AddCommand(collectCmd())
	root.AddCommand(refreshCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func scrapeDelay() time.Duration {
	if delaySeconds < 0 {
		return -1
	}
	return time.Duration(delaySeconds * float64(time.Second))
}

// --------------------------------------------------------------------------
// collect command
// --------------------------------------------------------------------------

func collectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Scrape player stats into the database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "top",
		Short: "Collect the curated list of top fantasy players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				result := seed.FromConfig(cfg, pool.Pool, scrapeDelay(), logger).CollectTop(ctx)
				return report("Top players collection finished", result)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "player <name-or-id>...",
		Short: "Collect one or more players by name or PFR id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				result := seed.FromConfig(cfg, pool.Pool, scrapeDelay(), logger).CollectBatch(ctx, args)
				return report("Player collection finished", result)
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// refresh command
// --------------------------------------------------------------------------

func refreshCmd() *cobra.Command {
	var limit int
	all := &cobra.Command{
		Use:   "all",
		Short: "Re-scrape the best-ranked draft board players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if limit <= 0 {
					limit = cfg.RefreshLimit
				}
				result := seed.FromConfig(cfg, pool.Pool, scrapeDelay(), logger).RefreshAll(ctx, limit)
				return report("Refresh finished", result)
			})
		},
	}
	all.Flags().IntVar(&limit, "limit", 0, "Number of players (default from REFRESH_LIMIT)")

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh stored stats",
	}
	cmd.AddCommand(all)
	return cmd
}

// report logs a run summary and its errors. A run where every player failed
// is an error.
func report(msg string, result seed.Result) error {
	logger.Info(msg, "summary", result.Summary())
	for _, e := range result.Errors {
		logger.Error("collect error", "error", e)
	}
	if result.Successful == 0 && result.Failed > 0 {
		return fmt.Errorf("no players collected (%d failed)", result.Failed)
	}
	return nil
}

// --------------------------------------------------------------------------
// search command
// --------------------------------------------------------------------------

func searchCmd() *cobra.Command {
	var (
		position string
		limit    int
		remote   bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored players, or the stats source with --remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
				defer cancel()

				delay := scrapeDelay()
				if delay < 0 {
					delay = cfg.ScrapeDelay()
				}
				scraper := pfr.NewScraper(pfr.NewClient(seed.ClientOptions(cfg, delay), logger), logger)
				ids, err := scraper.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, pfr.PlayerURL(id))
				}
				return nil
			}

			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				players, err := store.New(pool.Pool, logger).SearchPlayers(ctx, args[0], position, limit)
				if err != nil {
					return err
				}
				for _, p := range players {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", p.PFRID, p.Name, p.Position, p.UpdatedAt.Format(time.DateOnly))
				}
				logger.Info("Search finished", "query", args[0], "results", len(players))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&position, "position", "", "Filter by position (QB, RB, WR, TE)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum results")
	cmd.Flags().BoolVar(&remote, "remote", false, "Search the stats source instead of the database")
	return cmd
}

// --------------------------------------------------------------------------
// stats command
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	var player string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show table counts, or one player's stored stats with --player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				st := store.New(pool.Pool, logger)
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				if player == "" {
					counts, err := st.Counts(ctx)
					if err != nil {
						return err
					}
					return enc.Encode(counts)
				}

				p, err := st.PlayerByQuery(ctx, player)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no stored player matches %q", player)
				}
				if err != nil {
					return err
				}
				stats, err := st.StatsForPlayer(ctx, p.ID, nil)
				if err != nil {
					return err
				}
				return enc.Encode(map[string]any{"player": p, "stats": stats})
			})
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "Player name or PFR id")
	return cmd
}

// --------------------------------------------------------------------------
// analyze command
// --------------------------------------------------------------------------

func analyzeCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "analyze [names...]",
		Short: "Research board players without a stored analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if !cfg.HasResearch() {
					return fmt.Errorf("OPENAI_API_KEY is required")
				}
				ai := research.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, logger)
				board := draft.NewBoard(pool.Pool, store.New(pool.Pool, logger), draft.Options{
					Season:      cfg.DraftSeason,
					StatsSeason: cfg.StatsSeason,
					Inflation:   cfg.AuctionInflation,
				}, logger)

				names := args
				if len(names) == 0 {
					var err error
					if names, err = board.PendingAnalysis(ctx, limit); err != nil {
						return err
					}
				}
				logger.Info("Analysis started", "players", len(names), "model", ai.Model())

				start := time.Now()
				created, failed := 0, 0
				for _, name := range names {
					if ctx.Err() != nil {
						break
					}
					_, isNew, err := board.Analyze(ctx, name, ai, ai.Model())
					if err != nil {
						failed++
						logger.Error("analysis failed", "player", name, "error", err)
						continue
					}
					if isNew {
						created++
					}
				}
				logger.Info("Analysis finished",
					"created", created, "failed", failed,
					"duration", time.Since(start).Round(time.Second))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Players to analyze when no names are given")
	return cmd
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error { return m.Up() })
		},
	})
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error { return m.Down(steps) })
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
				return nil
			})
		},
	})
	return cmd
}

func withMigrator(fn func(m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	m, err := db.NewMigrator(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runSeed handles config loading, migrations, DB connection, and context
// cancellation.
func runSeed(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
