// Package scheduler runs periodic maintenance jobs. The only registered job
// today is the nightly balance reconciliation, which walks every active
// tenant and realigns mirrored chart account balances.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mizan-erp/backend/internal/infrastructure/config"
)

// Job is a named unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context)
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler creates a scheduler and registers the reconciliation job on
// the configured cron expression
func NewScheduler(cfg config.SchedulerConfig, reconciliation Job, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:   c,
		logger: logger,
	}

	if _, err := c.AddFunc(cfg.ReconciliationSchedule, func() {
		s.runJob(reconciliation)
	}); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) runJob(job Job) {
	s.logger.Info("scheduled job starting", zap.String("job", job.Name()))
	job.Run(context.Background())
	s.logger.Info("scheduled job finished", zap.String("job", job.Name()))
}

// Start begins the cron scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
