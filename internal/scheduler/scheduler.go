// Package scheduler runs the dump producer unattended on a cron
// expression, for deployments without an external OS scheduler.
package scheduler

import (
	"context"
	"fmt"

	"clinic-backup/internal/logging"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work
type Job func(ctx context.Context)

// Scheduler wraps a cron runner. Overlapping invocations are skipped
// rather than queued: two concurrent dump runs against the same store
// could collide on a same-second filename.
type Scheduler struct {
	logger *logging.Logger
}

// New creates a scheduler
func New(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Scheduler{logger: logger}
}

// Run executes job on the given cron spec until ctx is cancelled. It
// returns once the running job, if any, has finished.
func (s *Scheduler) Run(ctx context.Context, spec string, job Job) error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	_, err := c.AddFunc(spec, func() {
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	s.logger.Infof("Scheduler started with spec %q", spec)
	c.Start()

	<-ctx.Done()
	s.logger.Info("Scheduler stopping")

	// Stop returns a context that is done when running jobs complete
	<-c.Stop().Done()
	return nil
}
