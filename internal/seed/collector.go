package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ffdraft/draftboard/internal/provider"
	"github.com/ffdraft/draftboard/internal/provider/pfr"
	"github.com/ffdraft/draftboard/internal/store"
)

// ErrNoStats is returned when no candidate for a query has any stat rows.
var ErrNoStats = errors.New("no stats for any candidate")

// DefaultRefreshLimit caps RefreshAll when no limit is given.
const DefaultRefreshLimit = 100

// Source is the scraping side of a collection run. *pfr.Scraper implements it.
type Source interface {
	Resolve(ctx context.Context, query string) ([]string, error)
	FetchPlayer(ctx context.Context, id string) (*pfr.PlayerPage, error)
}

// Store is the persistence side of a collection run. *store.Store implements it.
type Store interface {
	UpsertPlayer(ctx context.Context, p provider.PlayerInfo) (int64, error)
	ReplacePlayerStats(ctx context.Context, playerID int64, stats provider.PlayerStats) (store.WriteResult, error)
	RefreshNames(ctx context.Context, season, limit int) ([]string, error)
}

// Options tunes a Collector.
type Options struct {
	// Delay is the pause between players in a batch. The client's limiter
	// still spaces individual requests.
	Delay time.Duration
	// Season selects the draft_values rows RefreshAll reads names from.
	Season int
}

// Collector runs collections. Runs are serialized: an API-triggered refresh
// and a scheduled one never scrape at the same time.
type Collector struct {
	source Source
	store  Store
	opts   Options
	logger *slog.Logger

	mu sync.Mutex
}

// NewCollector creates a collector.
func NewCollector(source Source, st Store, opts Options, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{source: source, store: st, opts: opts, logger: logger}
}

// CollectPlayer collects one player by name or PFR id.
func (c *Collector) CollectPlayer(ctx context.Context, query string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collect(ctx, query)
}

// CollectBatch collects each query in order. A failed player is recorded and
// the batch moves on; cancellation stops it between players and reports the
// rest as failed.
func (c *Collector) CollectBatch(ctx context.Context, queries []string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batch(ctx, queries)
}

// CollectTop collects the curated TopPlayers list.
func (c *Collector) CollectTop(ctx context.Context) Result {
	c.logger.Info("Collecting top fantasy players", "count", len(TopPlayers))
	return c.CollectBatch(ctx, TopPlayers)
}

// RefreshAll re-collects the best-ranked players of the draft board.
func (c *Collector) RefreshAll(ctx context.Context, limit int) Result {
	if limit <= 0 {
		limit = DefaultRefreshLimit
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.store.RefreshNames(ctx, c.opts.Season, limit)
	if err != nil {
		r := newResult()
		r.AddErrorf("load refresh list: %v", err)
		r.finish()
		return r
	}
	c.logger.Info("Refreshing draft board players", "season", c.opts.Season, "count", len(names))
	return c.batch(ctx, names)
}

func (c *Collector) batch(ctx context.Context, queries []string) Result {
	result := newResult()
	c.logger.Info("Collection started", "run", result.RunID, "players", len(queries))

	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			for _, rest := range queries[i:] {
				result.Add(Outcome{Query: rest, Error: fmt.Sprintf("not attempted: %v", err)})
			}
			break
		}

		c.logger.Info("Processing player", "n", i+1, "of", len(queries), "query", q)
		result.Add(c.collect(ctx, q))

		if i < len(queries)-1 {
			_ = sleep(ctx, c.opts.Delay)
		}
	}

	result.finish()
	c.logger.Info("Collection complete", "summary", result.Summary())
	return result
}

// collect runs the resolve, fetch, choose and persist steps for one query.
func (c *Collector) collect(ctx context.Context, query string) Outcome {
	start := time.Now()
	out := Outcome{Query: strings.TrimSpace(query)}
	fail := func(err error) Outcome {
		out.Error = err.Error()
		out.Duration = time.Since(start)
		c.logger.Warn("Collection failed", "query", out.Query, "error", err)
		return out
	}

	if out.Query == "" {
		return fail(fmt.Errorf("empty player name"))
	}

	ids, err := c.source.Resolve(ctx, out.Query)
	if err != nil {
		return fail(fmt.Errorf("resolve: %w", err))
	}
	out.Candidates = len(ids)

	pages := make([]*pfr.PlayerPage, 0, len(ids))
	var lastErr error
	for _, id := range ids {
		page, err := c.source.FetchPlayer(ctx, id)
		if err != nil {
			c.logger.Warn("Candidate fetch failed", "query", out.Query, "player", id, "error", err)
			lastErr = err
			continue
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 && lastErr != nil {
		return fail(fmt.Errorf("fetch: %w", lastErr))
	}

	page := Choose(pages, out.Query)
	if page == nil {
		return fail(ErrNoStats)
	}
	if len(ids) > 1 {
		c.logger.Info("Chose candidate", "query", out.Query, "player", page.Info.PFRID,
			"latest_season", page.Stats.LatestSeason(), "rows", page.Stats.Total())
	}
	out.PFRID, out.Name = page.Info.PFRID, page.Info.Name

	playerID, err := c.store.UpsertPlayer(ctx, page.Info)
	if err != nil {
		return fail(err)
	}
	written, err := c.store.ReplacePlayerStats(ctx, playerID, page.Stats)
	if err != nil {
		return fail(err)
	}

	out.Success = true
	out.Written = written
	out.Duration = time.Since(start)
	c.logger.Info("Collected player",
		"player", out.PFRID, "name", out.Name, "seasons", page.Stats.Seasons(),
		"passing", written.Passing, "rushing", written.Rushing, "receiving", written.Receiving)
	return out
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
