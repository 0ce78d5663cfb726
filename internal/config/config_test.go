package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/draftboard")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/draftboard", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Second, cfg.ScrapeDelay())
	assert.Equal(t, "https://www.pro-football-reference.com", cfg.ScraperBaseURL)
	assert.Equal(t, 2025, cfg.DraftSeason)
	assert.Equal(t, 2024, cfg.StatsSeason)
	assert.InDelta(t, 1.11, cfg.AuctionInflation, 1e-9)
	assert.Equal(t, 100, cfg.RefreshLimit)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Len(t, cfg.CORSAllowOrigins, 3)
	assert.False(t, cfg.HasResearch())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_DatabaseURLFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("DB_URL", "postgres://fallback/db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://fallback/db", cfg.DatabaseURL)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("DB_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_FractionalDelay(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/draftboard")
	t.Setenv("SCRAPER_DELAY_SECONDS", "1.5")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.ScrapeDelay())
	assert.True(t, cfg.HasResearch())
}

func TestLoad_NegativeDelay(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/draftboard")
	t.Setenv("SCRAPER_DELAY_SECONDS", "-1")

	_, err := Load()
	require.Error(t, err)
}
