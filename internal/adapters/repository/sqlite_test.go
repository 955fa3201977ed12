package repository_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Galoup/HARDSTATS/internal/adapters/repository"
	"github.com/Galoup/HARDSTATS/pkg/logger"
)

func newStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	s, err := repository.New(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testKey() repository.Key {
	return repository.Key{ServerKey: "fr:s123-fr", PlayerID: 101, Metric: "global"}
}

func TestSQLiteStore_InsertSnapshotIfNew(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := testKey()
	now := time.Now().UTC().Truncate(time.Second)

	fresh, err := s.InsertSnapshotIfNew(ctx, key, now, 1000, 5000, 100)
	require.NoError(t, err)
	require.True(t, fresh)

	// Same upstream timestamp: no-op.
	fresh, err = s.InsertSnapshotIfNew(ctx, key, now.Add(time.Hour), 1000, 9999, 1)
	require.NoError(t, err)
	require.False(t, fresh)

	rows, err := s.SeriesSince(ctx, key, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 5000, rows[0].Points)

	// New timestamp appends.
	fresh, err = s.InsertSnapshotIfNew(ctx, key, now.Add(time.Hour), 2000, 5100, 95)
	require.NoError(t, err)
	require.True(t, fresh)

	last, found, err := s.LatestSnapshot(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	require.EqualValues(t, 2000, last.APITimestamp)
	require.EqualValues(t, 5100, last.Points)
	require.Equal(t, 95, last.Rank)

	// A late-arriving sample between existing rows is appended as-is.
	fresh, err = s.InsertSnapshotIfNew(ctx, key, now.Add(2*time.Hour), 1500, 5050, 97)
	require.NoError(t, err)
	require.True(t, fresh)

	rows, err = s.SeriesSince(ctx, key, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.EqualValues(t, 1000, rows[0].APITimestamp)
	require.EqualValues(t, 1500, rows[1].APITimestamp)
	require.EqualValues(t, 2000, rows[2].APITimestamp)
}

func TestSQLiteStore_SnapshotLookups(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	key := testKey()
	now := time.Now().UTC()

	for _, ts := range []int64{1000, 2000, 3000} {
		_, err := s.InsertSnapshotIfNew(ctx, key, now, ts, ts*10, int(ts/100))
		require.NoError(t, err)
	}

	snap, found, err := s.SnapshotAtOrBefore(ctx, key, 2500)
	require.NoError(t, err)
	require.True(t, found)
	require.EqualValues(t, 2000, snap.APITimestamp)

	_, found, err = s.SnapshotAtOrBefore(ctx, key, 500)
	require.NoError(t, err)
	require.False(t, found)

	// nearOrBefore falls forward when nothing precedes the target.
	snap, found, err = s.SnapshotNearOrBefore(ctx, key, 500)
	require.NoError(t, err)
	require.True(t, found)
	require.EqualValues(t, 1000, snap.APITimestamp)

	two, err := s.TwoLatestSnapshots(ctx, key)
	require.NoError(t, err)
	require.Len(t, two, 2)
	require.EqualValues(t, 3000, two[0].APITimestamp)
	require.EqualValues(t, 2000, two[1].APITimestamp)

	series, err := s.SeriesSince(ctx, key, 2000)
	require.NoError(t, err)
	require.Len(t, series, 2)

	// A different metric sees an empty series.
	otherKey := key
	otherKey.Metric = "economy"
	_, found, err = s.LatestSnapshot(ctx, otherKey)
	require.NoError(t, err)
	require.False(t, found)
}

func TestSQLiteStore_PlayersCache(t *testing.T) {
	ctx := context.Background()
	var logBuf bytes.Buffer
	s, err := repository.New(filepath.Join(t.TempDir(), "test.sqlite"),
		repository.WithLogger(logger.New(&logBuf)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	serverKey := "fr:s123-fr"
	fetchedAt := time.Now().UTC().Truncate(time.Second)

	err = s.ReplacePlayersCache(ctx, serverKey, fetchedAt, 1000, []repository.DirectoryEntry{
		{PlayerID: 101, Name: "Galoup", AllianceID: 500},
		{PlayerID: 102, Name: "Other Player", Status: "vi"},
	})
	require.NoError(t, err)
	require.Contains(t, logBuf.String(), "players cache replaced")

	id, found, err := s.PlayerIDByName(ctx, serverKey, "galoup")
	require.NoError(t, err)
	require.True(t, found)
	require.EqualValues(t, 101, id)

	_, found, err = s.PlayerIDByName(ctx, serverKey, "Nobody")
	require.NoError(t, err)
	require.False(t, found)

	got, found, err := s.DirectoryFetchedAt(ctx, serverKey)
	require.NoError(t, err)
	require.True(t, found)
	require.WithinDuration(t, fetchedAt, got, time.Second)

	// The replace swaps the whole generation.
	err = s.ReplacePlayersCache(ctx, serverKey, fetchedAt.Add(time.Hour), 2000, []repository.DirectoryEntry{
		{PlayerID: 103, Name: "Newcomer"},
	})
	require.NoError(t, err)

	_, found, err = s.PlayerIDByName(ctx, serverKey, "Galoup")
	require.NoError(t, err)
	require.False(t, found)

	names, err := s.PlayerNames(ctx, serverKey)
	require.NoError(t, err)
	require.Equal(t, []string{"Newcomer"}, names)
}

func TestSQLiteStore_JobState(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, found, err := s.JobState(ctx, "recap")
	require.NoError(t, err)
	require.False(t, found)

	err = s.SetJobState(ctx, "recap", map[string]string{"last_date": "2024-03-10"}, time.Now())
	require.NoError(t, err)

	st, found, err := s.JobState(ctx, "recap")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "2024-03-10", st["last_date"])

	err = s.SetJobState(ctx, "recap", map[string]string{"last_date": "2024-03-11"}, time.Now())
	require.NoError(t, err)

	st, _, err = s.JobState(ctx, "recap")
	require.NoError(t, err)
	require.Equal(t, "2024-03-11", st["last_date"])
}

func TestSQLiteStore_Alerts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	serverKey := "fr:s123-fr"
	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)

	_, found, err := s.LastAlert(ctx, serverKey, 101, "TOP:global")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.LogAlert(ctx, serverKey, 101, "TOP:global", base, 1000))
	require.NoError(t, s.LogAlert(ctx, serverKey, 101, "TOP:global", base.Add(10*time.Minute), 2000))
	require.NoError(t, s.LogAlert(ctx, serverKey, 101, "FLOP:economy", base.Add(20*time.Minute), 2000))

	last, found, err := s.LastAlert(ctx, serverKey, 101, "TOP:global")
	require.NoError(t, err)
	require.True(t, found)
	require.WithinDuration(t, base.Add(10*time.Minute), last, time.Second)

	entries, err := s.ListAlerts(ctx, serverKey, 101, base.Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "FLOP:economy", entries[0].Category)

	entries, err = s.ListAlerts(ctx, serverKey, 101, base.Add(5*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestSQLiteStore_UpsertServer(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	rec := repository.ServerRecord{
		ServerKey: "fr:s123-fr",
		Community: "fr",
		ServerID:  "s123-fr",
		Name:      "Andromeda",
		BaseURL:   "https://s123-fr.ogame.gameforge.com",
		Meta:      map[string]any{"speed": 4},
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.UpsertServer(ctx, rec))

	rec.Name = "Andromeda Prime"
	require.NoError(t, s.UpsertServer(ctx, rec))
}

func TestCloseMatches(t *testing.T) {
	names := []string{"Galoup", "Galouf", "Someone", "Galactic", "gall"}

	got := repository.CloseMatches("Galoup", names, 5, 0.6)
	require.NotEmpty(t, got)
	require.Equal(t, "Galoup", got[0])
	require.Contains(t, got, "Galouf")
	require.NotContains(t, got, "Someone")

	require.Empty(t, repository.CloseMatches("zzzz", names, 5, 0.6))
}
