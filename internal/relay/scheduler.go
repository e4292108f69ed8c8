package relay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// Scheduler runs named recurring tasks with a run-to-completion guarantee:
// a tick that arrives while the previous run of the same task is still in
// flight is skipped and logged, never overlapped. Distinct tasks run
// independently and may interleave.
type Scheduler struct {
	logger  log.Logger
	metrics *Metrics
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler.
func NewScheduler(logger log.Logger, metrics *Metrics) *Scheduler {
	if logger == nil {
		logger = log.Nop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Scheduler{logger: logger, metrics: metrics}
}

// Every schedules task to run once immediately and then on every interval
// tick until ctx is cancelled. Task errors are logged and never stop the
// schedule.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, task func(context.Context) error) {
	var busy atomic.Bool

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.runOnce(ctx, name, &busy, task)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx, name, &busy, task)
			}
		}
	}()
}

// Wait blocks until every scheduled task loop has exited and no run is in
// flight. Call after cancelling the scheduler context.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runOnce(ctx context.Context, name string, busy *atomic.Bool, task func(context.Context) error) {
	if !busy.CompareAndSwap(false, true) {
		s.metrics.TicksSkipped.WithLabelValues(name).Inc()
		s.logger.Warn(ctx, "skipping tick, previous run still in flight", "task", name)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer busy.Store(false)

		// one cycle id per run for log correlation
		L := s.logger.With("task", name, "cycle_id", ulid.Make().String())
		cctx := log.WithContext(ctx, L)

		start := time.Now()
		if err := task(cctx); err != nil {
			L.Error(cctx, err, "task run failed")
		}
		s.metrics.CycleDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
}
