// Package scheduler runs the periodic stats refresh inside the API process.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ffdraft/draftboard/internal/seed"
)

// Refresher re-collects board players. *seed.Collector implements it.
type Refresher interface {
	RefreshAll(ctx context.Context, limit int) seed.Result
}

// Config controls the refresh job.
type Config struct {
	// Schedule is a cron expression ("0 6 * * *") or a Go duration ("6h").
	// Empty disables the job.
	Schedule string
	// Limit is passed to RefreshAll.
	Limit int
	// Location for cron expressions. Defaults to UTC.
	Location *time.Location
	// AfterRefresh, if set, runs after every refresh.
	AfterRefresh func(seed.Result)
}

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	s         gocron.Scheduler
	refresher Refresher
	cfg       Config
	logger    *slog.Logger
}

// New creates a scheduler. Nothing runs until Start.
func New(r Refresher, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(cfg.Location))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{s: s, refresher: r, cfg: cfg, logger: logger}, nil
}

// jobDefinition parses a schedule as a duration first, then as cron.
func jobDefinition(schedule string) gocron.JobDefinition {
	if d, err := time.ParseDuration(schedule); err == nil {
		return gocron.DurationJob(d)
	}
	return gocron.CronJob(schedule, false)
}

// Start registers the refresh job and starts the scheduler. Runs never
// overlap: a run still in progress when the next one is due skips it.
func (s *Scheduler) Start(ctx context.Context) error {
	schedule := strings.TrimSpace(s.cfg.Schedule)
	if schedule == "" {
		s.logger.Info("Scheduled refresh disabled (no REFRESH_SCHEDULE)")
		return nil
	}

	_, err := s.s.NewJob(
		jobDefinition(schedule),
		gocron.NewTask(func() { s.RunNow(ctx) }),
		gocron.WithName("refresh-all-stats"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create refresh job %q: %w", schedule, err)
	}

	s.s.Start()
	s.logger.Info("Scheduled refresh started", "schedule", schedule, "limit", s.cfg.Limit)
	return nil
}

// RunNow runs one refresh synchronously.
func (s *Scheduler) RunNow(ctx context.Context) seed.Result {
	if ctx.Err() != nil {
		return seed.Result{}
	}
	start := time.Now()
	res := s.refresher.RefreshAll(ctx, s.cfg.Limit)
	s.logger.Info("Scheduled refresh complete",
		"summary", res.Summary(),
		"duration", time.Since(start).Round(time.Millisecond))
	if s.cfg.AfterRefresh != nil {
		s.cfg.AfterRefresh(res)
	}
	return res
}

// Stop shuts the scheduler down, waiting for a running job.
func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}
