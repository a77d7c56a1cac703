package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Runner executes one ingestion run.
type Runner interface {
	Run(ctx context.Context) (Report, error)
}

// Scheduler runs a Runner on a fixed interval. It implements suture.Service;
// failed runs are logged and never stop the schedule.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runOnStart bool
	name       string

	// after is swappable in tests.
	after func(time.Duration) <-chan time.Time
}

// NewScheduler creates a Scheduler. A non-positive interval defaults to 24h.
func NewScheduler(runner Runner, interval time.Duration, runOnStart bool) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runOnStart: runOnStart,
		name:       "ingest-scheduler",
		after:      time.After,
	}
}

// Serve implements suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	log.Info().Dur("interval", s.interval).Bool("run_on_start", s.runOnStart).Msg("ingest scheduler started")
	if s.runOnStart {
		s.runOnce(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(s.interval):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.runner.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRunInProgress):
		log.Info().Msg("ingest: previous run still in progress, skipping")
	case errors.Is(err, context.Canceled):
	default:
		log.Error().Err(err).Int("scraped", report.Scraped).Msg("ingest: run failed")
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *Scheduler) String() string { return s.name }
