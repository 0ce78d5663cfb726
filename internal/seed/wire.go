package seed

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ffdraft/draftboard/internal/config"
	"github.com/ffdraft/draftboard/internal/provider/pfr"
	"github.com/ffdraft/draftboard/internal/store"
)

// ClientOptions maps the scraper settings onto pfr client options. A zero
// configured delay turns request pacing off.
func ClientOptions(cfg *config.Config, delay time.Duration) pfr.Options {
	clientDelay := delay
	if clientDelay == 0 {
		clientDelay = -1
	}
	return pfr.Options{
		BaseURL:   cfg.ScraperBaseURL,
		UserAgent: cfg.ScraperUserAgent,
		Delay:     clientDelay,
		Timeout:   cfg.ScraperTimeout,
	}
}

// FromConfig builds a Collector that scrapes the configured source into pool.
// delay overrides the configured scrape delay when non-negative.
func FromConfig(cfg *config.Config, pool *pgxpool.Pool, delay time.Duration, logger *slog.Logger) *Collector {
	if delay < 0 {
		delay = cfg.ScrapeDelay()
	}
	client := pfr.NewClient(ClientOptions(cfg, delay), logger)
	return NewCollector(
		pfr.NewScraper(client, logger),
		store.New(pool, logger),
		Options{Delay: delay, Season: cfg.DraftSeason},
		logger,
	)
}
