// Package scheduler drives the detection engine's polling cadence using
// gocron. The engine itself never self-schedules; this is the external
// scheduler that invokes its cycle.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// CycleRunner is the scheduled unit of work, satisfied by the detection
// engine's RunCycle.
type CycleRunner interface {
	RunCycle(ctx context.Context)
}

// Config holds the scheduler configuration.
type Config struct {
	Engine CycleRunner
	Logger *slog.Logger
	// PollInterval is the detection cycle cadence.
	PollInterval time.Duration
	// CycleTimeout bounds one whole cycle. Zero means no bound beyond the
	// engine's own per-fetch timeouts.
	CycleTimeout time.Duration
}

// Scheduler manages the periodic detection cycle using gocron.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	logger *slog.Logger
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &Scheduler{cron: cron, cfg: cfg, logger: cfg.Logger}, nil
}

// Start schedules the detection cycle and starts the scheduler.
func (s *Scheduler) Start(_ context.Context) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(s.cfg.PollInterval),
		gocron.NewTask(s.runDetectionCycle),
		// If a cycle outlives the interval, the engine skips the overlap
		// itself; cap queued reruns anyway.
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling detection cycle: %w", err)
	}

	s.cron.Start()
	s.logger.Info("detection scheduler started", "interval", s.cfg.PollInterval.String())
	return nil
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

func (s *Scheduler) runDetectionCycle() {
	ctx := context.Background()
	if s.cfg.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CycleTimeout)
		defer cancel()
	}
	s.cfg.Engine.RunCycle(ctx)
}
