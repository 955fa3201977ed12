// Package aggregate computes deltas and trend series from snapshot queries.
//
// Rank delta convention: earlier rank minus later rank, so a positive rank
// delta means the player moved toward rank 1.
package aggregate

import (
	"context"

	"github.com/Galoup/HARDSTATS/internal/adapters/repository"
)

// Window lengths, in upstream-timestamp seconds.
const (
	daySeconds  = 24 * 3600
	weekSeconds = 7 * daySeconds
)

// Delta is the change between two snapshots. A nil *Delta anywhere in this
// package means "undetermined", never zero change.
type Delta struct {
	Points int64
	Rank   int
}

// Reader is the store read surface the aggregator needs.
type Reader interface {
	LatestSnapshot(ctx context.Context, key repository.Key) (repository.Snapshot, bool, error)
	TwoLatestSnapshots(ctx context.Context, key repository.Key) ([]repository.Snapshot, error)
	SnapshotAtOrBefore(ctx context.Context, key repository.Key, maxTimestamp int64) (repository.Snapshot, bool, error)
	SnapshotNearOrBefore(ctx context.Context, key repository.Key, targetTimestamp int64) (repository.Snapshot, bool, error)
	SeriesSince(ctx context.Context, key repository.Key, minTimestamp int64) ([]repository.Snapshot, error)
}

func diff(earlier, later repository.Snapshot) *Delta {
	return &Delta{
		Points: later.Points - earlier.Points,
		Rank:   earlier.Rank - later.Rank,
	}
}

// LastUpdateDelta diffs the two most recent snapshots for key. The returned
// snapshot is the latest one (nil when the series is empty); the delta is nil
// until two snapshots exist.
func LastUpdateDelta(ctx context.Context, r Reader, key repository.Key) (*repository.Snapshot, *Delta, error) {
	rows, err := r.TwoLatestSnapshots(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	if len(rows) < 2 {
		return &rows[0], nil, nil
	}
	return &rows[0], diff(rows[1], rows[0]), nil
}

// Rolling24hDelta diffs the latest snapshot against the snapshot nearest to
// 24 hours earlier. No distinct earlier snapshot means no delta.
func Rolling24hDelta(ctx context.Context, r Reader, key repository.Key) (*repository.Snapshot, *Delta, error) {
	last, found, err := r.LatestSnapshot(ctx, key)
	if err != nil || !found {
		return nil, nil, err
	}

	base, found, err := r.SnapshotNearOrBefore(ctx, key, last.APITimestamp-daySeconds)
	if err != nil {
		return &last, nil, err
	}
	if !found || base.APITimestamp == last.APITimestamp {
		return &last, nil, nil
	}
	return &last, diff(base, last), nil
}

// DailyRecapDelta diffs the at-or-before snapshots of the two window edges.
// The delta is nil unless both rows exist and differ in timestamp.
func DailyRecapDelta(ctx context.Context, r Reader, key repository.Key, startTimestamp, endTimestamp int64) (start, end *repository.Snapshot, d *Delta, err error) {
	endRow, endFound, err := r.SnapshotAtOrBefore(ctx, key, endTimestamp)
	if err != nil {
		return nil, nil, nil, err
	}
	startRow, startFound, err := r.SnapshotAtOrBefore(ctx, key, startTimestamp)
	if err != nil {
		return nil, nil, nil, err
	}

	if startFound {
		start = &startRow
	}
	if endFound {
		end = &endRow
	}
	if !startFound || !endFound || startRow.APITimestamp == endRow.APITimestamp {
		return start, end, nil, nil
	}
	return start, end, diff(startRow, endRow), nil
}

// WeeklySeries returns the ascending series over the 7 days ending at
// endTimestamp.
func WeeklySeries(ctx context.Context, r Reader, key repository.Key, endTimestamp int64) ([]repository.Snapshot, error) {
	return r.SeriesSince(ctx, key, endTimestamp-weekSeconds)
}

// MeanAbsDelta is the mean of absolute consecutive differences; 0 for a
// series shorter than 2.
func MeanAbsDelta(points []int64) float64 {
	if len(points) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(points); i++ {
		d := points[i] - points[i-1]
		if d < 0 {
			d = -d
		}
		sum += float64(d)
	}
	return sum / float64(len(points)-1)
}

// PointsOf projects the points column of a series, for MeanAbsDelta.
func PointsOf(series []repository.Snapshot) []int64 {
	out := make([]int64, len(series))
	for i, s := range series {
		out[i] = s.Points
	}
	return out
}
