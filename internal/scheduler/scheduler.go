package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/covid19-stats/internal/covid"
)

// Runner executes one refresh cycle.
type Runner interface {
	Run(ctx context.Context) (covid.BuildReport, error)
}

// Scheduler periodically triggers refresh cycles.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	schedule  string
	log       zerolog.Logger
}

// New creates a new Scheduler. A non-empty cron schedule takes precedence
// over interval.
func New(runner Runner, interval time.Duration, schedule string, log zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	s.WaitForScheduleAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		schedule:  schedule,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.schedule == "" && s.interval <= 0 {
		s.log.Warn().Msg("no refresh interval configured; nothing to schedule")
		return nil
	}

	var err error
	if s.schedule != "" {
		_, err = s.scheduler.Cron(s.schedule).Do(s.tick)
	} else {
		_, err = s.scheduler.Every(s.interval).Do(s.tick)
	}
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().
		Dur("interval", s.interval).
		Str("schedule", s.schedule).
		Msg("refresh scheduler started")
	return nil
}

func (s *Scheduler) tick() {
	report, err := s.runner.Run(context.Background())
	switch {
	case errors.Is(err, covid.ErrCycleInProgress):
		s.log.Debug().Msg("refresh already running; trigger dropped")
	case err != nil:
		s.log.Error().Err(err).Str("cycle", report.CycleID).Msg("scheduled refresh failed")
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
