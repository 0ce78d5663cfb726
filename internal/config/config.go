// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// --------------------------------------------------------------------------
// Table names, matching the migrations.
// --------------------------------------------------------------------------

const (
	PlayersTable        = "players"
	TeamsTable          = "teams"
	PassingStatsTable   = "passing_stats"
	RushingStatsTable   = "rushing_stats"
	ReceivingStatsTable = "receiving_stats"
	DraftValuesTable    = "draft_values"
	DraftStatusTable    = "draft_player_status"
	AnalysisTable       = "player_analysis"
	TeammatesTable      = "player_teammates"
)

// StatTables lists the per-category season stat tables in write order.
var StatTables = []string{PassingStatsTable, RushingStatsTable, ReceivingStatsTable}

// --------------------------------------------------------------------------
// Config is populated from environment variables.
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	DBPoolMinConns int           `envconfig:"DB_POOL_MIN_CONNS" default:"1"`
	DBPoolMaxConns int           `envconfig:"DB_POOL_MAX_CONNS" default:"4"`
	DBPoolMaxLife  time.Duration `envconfig:"DB_POOL_MAX_LIFE" default:"30m"`
	AutoMigrate    bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	// API server
	APIHost     string `envconfig:"API_HOST" default:"0.0.0.0"`
	APIPort     int    `envconfig:"API_PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"` // development, staging, production
	Debug       bool   `envconfig:"DEBUG" default:"false"`

	// CORS
	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:5173,http://localhost:8080"`

	// Rate limiting (inbound API)
	RateLimitEnabled  bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`

	// Scraper (outbound to pro-football-reference)
	ScraperBaseURL      string        `envconfig:"SCRAPER_BASE_URL" default:"https://www.pro-football-reference.com"`
	ScraperUserAgent    string        `envconfig:"SCRAPER_USER_AGENT" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"`
	ScraperDelaySeconds float64       `envconfig:"SCRAPER_DELAY_SECONDS" default:"2"`
	ScraperTimeout      time.Duration `envconfig:"SCRAPER_TIMEOUT" default:"30s"`

	// Draft board
	DraftSeason      int     `envconfig:"DRAFT_SEASON" default:"2025"`
	StatsSeason      int     `envconfig:"STATS_SEASON" default:"2024"` // most recent complete season
	AuctionInflation float64 `envconfig:"AUCTION_INFLATION" default:"1.11"`
	RefreshLimit     int     `envconfig:"REFRESH_LIMIT" default:"100"`
	RefreshSchedule  string  `envconfig:"REFRESH_SCHEDULE"` // cron expression or duration; empty disables

	// Player research (LLM)
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-2024-08-06"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`

	// Cache
	CacheEnabled bool `envconfig:"CACHE_ENABLED" default:"true"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = envOr("POSTGRES_URL", envOr("DB_URL", ""))
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL, POSTGRES_URL, or DB_URL must be set")
	}
	if cfg.ScraperDelaySeconds < 0 {
		return nil, fmt.Errorf("SCRAPER_DELAY_SECONDS must not be negative, got %v", cfg.ScraperDelaySeconds)
	}

	return &cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ScrapeDelay is the minimum spacing between requests to the stats source,
// also applied between players in a batch.
func (c *Config) ScrapeDelay() time.Duration {
	return time.Duration(c.ScraperDelaySeconds * float64(time.Second))
}

// HasResearch reports whether LLM player research is configured.
func (c *Config) HasResearch() bool {
	return c.OpenAIAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
