// Package scheduler runs the periodic doctor-report job.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler wraps a UTC cron instance around a single report job.
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	logger     *zap.Logger
	reportFunc func(ctx context.Context) error
}

func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// SetReportFunction sets the job invoked on every cron trigger.
func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Start registers the cron entry and starts the scheduler. A missing
// report function disables scheduling without failing startup.
func (s *Scheduler) Start(spec string) error {
	if s.reportFunc == nil {
		s.logger.Warn("report function not set, scheduler will not generate reports")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("triggered scheduled report generation", zap.String("spec", spec))
		if err := s.reportFunc(s.ctx); err != nil {
			s.logger.Error("scheduled report generation failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", spec))
	return nil
}

// Stop drains running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether any cron entries are registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
