// Package janitor runs scheduled housekeeping against the reminder store.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Defaults for the prune job.
const (
	DefaultSchedule  = "@daily"
	DefaultRetention = 30 * 24 * time.Hour
)

// Pruner deletes reminders dispatched before cutoff. Satisfied by store.Store.
type Pruner interface {
	PruneDispatched(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds janitor configuration.
type Config struct {
	Schedule  string        // cron expression or descriptor, default @daily
	Retention time.Duration // how long dispatched reminders are kept
	Timeout   time.Duration // bound on a single prune, default 1m
}

// Janitor prunes dispatched reminders on a cron schedule.
type Janitor struct {
	pruner    Pruner
	retention time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	cron *cron.Cron
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New creates a Janitor. The schedule is parsed eagerly so a bad expression
// fails at startup.
func New(p Pruner, cfg Config, logger *slog.Logger) (*Janitor, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	j := &Janitor{
		pruner:    p,
		retention: cfg.Retention,
		timeout:   cfg.Timeout,
		logger:    logger.With("component", "janitor"),
		now:       time.Now,
		cron:      cron.New(cron.WithParser(parser)),
	}

	if _, err := j.cron.AddFunc(cfg.Schedule, func() { _, _ = j.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", cfg.Schedule, err)
	}
	return j, nil
}

// RunOnce prunes reminders dispatched more than the retention window ago.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	n, err := j.pruner.PruneDispatched(ctx, cutoff)
	if err != nil {
		j.logger.Error("prune failed", "cutoff", cutoff, "error", err)
		return 0, err
	}
	j.logger.Info("pruned dispatched reminders", "removed", n, "cutoff", cutoff)
	return n, nil
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for a
// running prune to finish.
func (j *Janitor) Run(ctx context.Context) error {
	j.cron.Start()
	<-ctx.Done()
	<-j.cron.Stop().Done()
	return nil
}
