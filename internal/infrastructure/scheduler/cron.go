// Package scheduler runs background sweeps on cron specs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one sweep; its int result is logged as the number of items handled.
type Job func(ctx context.Context) (int, error)

type Scheduler struct {
	c       *cron.Cron
	log     *slog.Logger
	timeout time.Duration
}

// New builds a scheduler whose runs never overlap themselves and recover
// from panics. timeout bounds each run.
func New(log *slog.Logger, timeout time.Duration) *Scheduler {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	return &Scheduler{c: c, log: log, timeout: timeout}
}

func (s *Scheduler) Add(spec, name string, job Job) error {
	if _, err := s.c.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := job(ctx)
	if err != nil {
		s.log.Error("scheduled job failed", "job", name, "handled", n, "err", err)
		return
	}
	if n > 0 {
		s.log.Info("scheduled job done", "job", name, "handled", n, "took", time.Since(start))
	}
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
}
