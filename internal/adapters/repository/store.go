// Package repository persists the tracker state: server registry, player
// directory cache, append-only snapshot log, append-only alert log and the
// job-state table.
package repository

import (
	"context"
	"time"
)

// Key identifies one tracked time series.
type Key struct {
	ServerKey string
	PlayerID  int64
	Metric    string
}

// Snapshot is one appended measurement of points and rank.
type Snapshot struct {
	ID           int64
	Key          Key
	FetchedAt    time.Time
	APITimestamp int64
	Points       int64
	Rank         int
}

// ServerRecord is the registry row for the tracked universe.
type ServerRecord struct {
	ServerKey string
	Community string
	ServerID  string
	Name      string
	BaseURL   string
	Meta      map[string]any
	CreatedAt time.Time
}

// DirectoryEntry is one row of the player directory cache.
type DirectoryEntry struct {
	PlayerID   int64
	Name       string
	Status     string
	AllianceID int64
}

// AlertLogEntry is one appended alert dispatch record.
type AlertLogEntry struct {
	Category     string
	CreatedAt    time.Time
	APITimestamp int64
}

// Store provides read/write access to the persisted state. Lookup methods
// report absence through their bool result; errors are reserved for
// storage-layer failures.
type Store interface {
	UpsertServer(ctx context.Context, rec ServerRecord) error

	// ReplacePlayersCache swaps the whole directory cache for serverKey in one
	// transaction, so a reader never observes rows from two refreshes.
	ReplacePlayersCache(ctx context.Context, serverKey string, fetchedAt time.Time, apiTimestamp int64, players []DirectoryEntry) error
	PlayerIDByName(ctx context.Context, serverKey, name string) (int64, bool, error)
	PlayerNames(ctx context.Context, serverKey string) ([]string, error)
	DirectoryFetchedAt(ctx context.Context, serverKey string) (time.Time, bool, error)

	// InsertSnapshotIfNew appends a snapshot unless apiTimestamp equals the
	// current latest row's timestamp for key. The comparison is deliberately
	// only against the latest row: a late-arriving sample between two existing
	// rows is appended as-is, and readers order by timestamp themselves.
	InsertSnapshotIfNew(ctx context.Context, key Key, fetchedAt time.Time, apiTimestamp, points int64, rank int) (bool, error)
	LatestSnapshot(ctx context.Context, key Key) (Snapshot, bool, error)
	TwoLatestSnapshots(ctx context.Context, key Key) ([]Snapshot, error)
	SnapshotAtOrBefore(ctx context.Context, key Key, maxTimestamp int64) (Snapshot, bool, error)
	// SnapshotNearOrBefore prefers the at-or-before row and falls back to the
	// earliest row strictly after the target. Use only where future leakage is
	// acceptable.
	SnapshotNearOrBefore(ctx context.Context, key Key, targetTimestamp int64) (Snapshot, bool, error)
	SeriesSince(ctx context.Context, key Key, minTimestamp int64) ([]Snapshot, error)

	JobState(ctx context.Context, jobKey string) (map[string]string, bool, error)
	SetJobState(ctx context.Context, jobKey string, value map[string]string, updatedAt time.Time) error

	LogAlert(ctx context.Context, serverKey string, playerID int64, category string, createdAt time.Time, apiTimestamp int64) error
	LastAlert(ctx context.Context, serverKey string, playerID int64, category string) (time.Time, bool, error)
	ListAlerts(ctx context.Context, serverKey string, playerID int64, since time.Time, limit int) ([]AlertLogEntry, error)

	Close() error
}
