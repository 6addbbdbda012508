package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the sweeper on a fixed cadence using a cron runner.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  *Sweeper
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler ticking the sweeper every interval.
// If log is nil, a default logger will be used.
func NewScheduler(sweeper *Sweeper, interval time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sweeper:  sweeper,
		interval: interval,
		logger:   log.With(slog.String("component", "sweep_scheduler")),
	}
}

// Start registers the tick job and starts the cron runner. The supplied
// context is the lifetime context for all ticks.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.sweeper.Tick(ctx); err != nil {
			s.logger.Error("sweep tick reported errors",
				slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("sweep scheduler started",
		slog.Duration("interval", s.interval))
	return nil
}

// Stop halts scheduling and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("sweep scheduler stopped")
}
