package schedule

import (
	"time"

	"github.com/Galoup/HARDSTATS/pkg/logger"
)

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithCollectEvery sets the collection period in minutes.
func WithCollectEvery(minutes int) Option {
	return func(s *Scheduler) {
		if minutes > 0 {
			s.collectMinutes = minutes
		}
	}
}

// WithRecapTime sets the local wall-clock time of the daily recap.
func WithRecapTime(hour, minute int) Option {
	return func(s *Scheduler) {
		s.recapHour = hour
		s.recapMinute = minute
	}
}

// WithGrace sets the window after a boundary in which work still runs.
func WithGrace(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.grace = d
		}
	}
}

// WithLocation sets the timezone the boundaries are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}
