package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Intervals configures how often each reconciliation job ticks.
type Intervals struct {
	Purge         time.Duration
	OccupancySync time.Duration
	AutoComplete  time.Duration
}

// DefaultIntervals mirrors the historical schedule: daily purge, per-minute
// occupancy sync, five-minute auto-complete.
func DefaultIntervals() Intervals {
	return Intervals{
		Purge:         24 * time.Hour,
		OccupancySync: time.Minute,
		AutoComplete:  5 * time.Minute,
	}
}

// Runner drives the reconciliation jobs on fixed-rate tickers. Each job keeps
// a busy flag so a slow run skips overlapping ticks instead of stacking; a
// failed run is logged and retried on the next tick.
type Runner struct {
	jobs      *Jobs
	intervals Intervals
	now       func() time.Time
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewRunner builds a runner around the jobs. Zero interval fields fall back to
// the defaults.
func NewRunner(jobs *Jobs, intervals Intervals, now func() time.Time, logger *slog.Logger) *Runner {
	defaults := DefaultIntervals()
	if intervals.Purge <= 0 {
		intervals.Purge = defaults.Purge
	}
	if intervals.OccupancySync <= 0 {
		intervals.OccupancySync = defaults.OccupancySync
	}
	if intervals.AutoComplete <= 0 {
		intervals.AutoComplete = defaults.AutoComplete
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		jobs:      jobs,
		intervals: intervals,
		now:       now,
		logger:    logger,
	}
}

// Start launches one goroutine per job. The goroutines stop when ctx is
// cancelled; Wait blocks until they have drained.
func (r *Runner) Start(ctx context.Context) {
	r.spawn(ctx, "purge_cancelled", r.intervals.Purge, r.jobs.PurgeOldCancelled)
	r.spawn(ctx, "occupancy_sync", r.intervals.OccupancySync, r.jobs.SyncRoomOccupancy)
	r.spawn(ctx, "auto_complete", r.intervals.AutoComplete, r.jobs.AutoCompleteEnded)
}

// Wait blocks until all job goroutines have exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) spawn(ctx context.Context, name string, interval time.Duration, job func(context.Context, time.Time) (int, error)) {
	var busy atomic.Bool

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !busy.CompareAndSwap(false, true) {
					r.logger.Warn("reconciliation tick skipped, previous run still active", "job", name)
					continue
				}
				if _, err := job(ctx, r.now()); err != nil && ctx.Err() == nil {
					r.logger.Error("reconciliation job failed", "job", name, "error", err)
				}
				busy.Store(false)
			}
		}
	}()
}
