// Package schedule drives collection, alerting and the daily recap from
// wall-clock boundaries.
package schedule

import "time"

// Boundary second offsets keep the tracker from racing the upstream cache
// refresh that lands on the exact minute.
const (
	collectBoundarySecond = 10
	recapBoundarySecond   = 15
)

// NextAlignedCollect returns the next multiple of everyMinutes past the hour
// after now, at the collect second offset. everyMinutes must be in 1..1440.
func NextAlignedCollect(now time.Time, everyMinutes int) time.Time {
	bucket := (now.Minute() / everyMinutes) * everyMinutes
	bucketStart := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), bucket, 0, 0, now.Location())
	next := bucketStart.Add(time.Duration(everyMinutes) * time.Minute)
	return next.Add(collectBoundarySecond * time.Second)
}

// NextRecap returns today's recap boundary at hour:minute, rolled to tomorrow
// when already passed.
func NextRecap(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, recapBoundarySecond, 0, now.Location())
	if now.Before(target) {
		return target
	}
	return target.AddDate(0, 0, 1)
}

// Due reports whether now falls inside the grace window after boundary:
// 0 <= now - boundary <= grace. Anything earlier or later is not due, so a
// process offline for more than one period silently skips the missed ticks.
func Due(now, boundary time.Time, grace time.Duration) bool {
	elapsed := now.Sub(boundary)
	return elapsed >= 0 && elapsed <= grace
}
