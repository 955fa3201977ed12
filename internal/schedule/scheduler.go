package schedule

import (
	"context"
	"time"

	"github.com/Galoup/HARDSTATS/pkg/logger"
)

const (
	defaultGrace   = 180 * time.Second
	maxSleepSlice  = 30 * time.Second
	minSleepSlice  = time.Second
	defaultCollect = 60
)

// Task is one unit of scheduled work. A returned error stops the loop.
type Task func(ctx context.Context) error

// Scheduler runs collection, alert evaluation and the daily recap on a single
// goroutine. Tasks never overlap; a window where both boundaries are due runs
// collect, then alerts, then recap.
type Scheduler struct {
	collect Task
	alerts  Task
	recap   Task

	collectMinutes int
	recapHour      int
	recapMinute    int
	grace          time.Duration
	loc            *time.Location
	now            func() time.Time
	log            logger.Logger
}

// New builds a Scheduler with hourly collection, a 21:00 recap and the
// default grace window. Any task may be nil to disable it.
func New(collect, alerts, recap Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		collect:        collect,
		alerts:         alerts,
		recap:          recap,
		collectMinutes: defaultCollect,
		recapHour:      21,
		recapMinute:    0,
		grace:          defaultGrace,
		loc:            time.Local,
		now:            time.Now,
		log:            logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run loops until ctx is cancelled or a task fails. Boundaries are recomputed
// from the wall clock on every pass, so a suspended process wakes up with
// fresh targets instead of draining a backlog.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		now := s.now().In(s.loc)
		nextCollect := NextAlignedCollect(now, s.collectMinutes)
		prevCollect := nextCollect.Add(-time.Duration(s.collectMinutes) * time.Minute)
		nextRecap := NextRecap(now, s.recapHour, s.recapMinute)
		prevRecap := nextRecap.AddDate(0, 0, -1)

		if Due(now, prevCollect, s.grace) {
			if s.collect != nil {
				if err := s.collect(ctx); err != nil {
					return err
				}
			}
			if s.alerts != nil {
				if err := s.alerts(ctx); err != nil {
					return err
				}
			}
		}
		if Due(now, prevRecap, s.grace) && s.recap != nil {
			if err := s.recap(ctx); err != nil {
				return err
			}
		}

		// Recompute after the work: a long collect may have crossed into the
		// next window already.
		now = s.now().In(s.loc)
		wake := NextAlignedCollect(now, s.collectMinutes)
		if r := NextRecap(now, s.recapHour, s.recapMinute); r.Before(wake) {
			wake = r
		}
		s.log.Debug("sleeping until next boundary", logger.String("wake_at", wake.Format(time.RFC3339)))
		if !s.sleepUntil(ctx, wake) {
			return nil
		}
	}
}

// sleepUntil blocks in bounded slices so cancellation is observed within
// maxSleepSlice. Returns false when ctx ended.
func (s *Scheduler) sleepUntil(ctx context.Context, target time.Time) bool {
	for {
		now := s.now().In(s.loc)
		if !now.Before(target) {
			return true
		}
		d := target.Sub(now)
		if d > maxSleepSlice {
			d = maxSleepSlice
		}
		if d < minSleepSlice {
			d = minSleepSlice
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}
