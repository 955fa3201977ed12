package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Galoup/HARDSTATS/pkg/logger"
)

// SQLiteStore implements Store on a single exclusive sqlite handle.
// The process has one writer and one reader context, so no locking beyond
// sqlite's own and the transactional directory replace is needed.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// New opens (creating if needed) the sqlite database at path and migrates the
// schema. WAL keeps restarts crash-safe.
func New(path string, opts ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrStorage, err)
	}

	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, path, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.log.Debug("sqlite store ready", logger.String("path", path))
	return s, nil
}

// Close releases the handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS servers(
		   server_key TEXT PRIMARY KEY,
		   community  TEXT,
		   server_id  TEXT,
		   name       TEXT,
		   base_url   TEXT,
		   meta_json  TEXT,
		   created_at TIMESTAMP
		 )`,
		`CREATE TABLE IF NOT EXISTS players_cache(
		   server_key    TEXT,
		   fetched_at    TIMESTAMP,
		   api_timestamp INTEGER,
		   player_id     INTEGER,
		   player_name   TEXT,
		   status        TEXT,
		   alliance_id   INTEGER,
		   name_norm     TEXT,
		   PRIMARY KEY(server_key, player_id)
		 )`,
		`CREATE INDEX IF NOT EXISTS idx_players_cache_name ON players_cache(server_key, name_norm)`,
		`CREATE TABLE IF NOT EXISTS snapshots(
		   id            INTEGER PRIMARY KEY AUTOINCREMENT,
		   server_key    TEXT,
		   player_id     INTEGER,
		   fetched_at    TIMESTAMP,
		   api_timestamp INTEGER,
		   metric_type   TEXT,
		   points        INTEGER,
		   rank          INTEGER
		 )`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_key
		   ON snapshots(server_key, player_id, metric_type, api_timestamp)`,
		`CREATE TABLE IF NOT EXISTS alerts_log(
		   id            INTEGER PRIMARY KEY AUTOINCREMENT,
		   server_key    TEXT,
		   player_id     INTEGER,
		   category      TEXT,
		   created_at    TIMESTAMP,
		   api_timestamp INTEGER
		 )`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_log_cat
		   ON alerts_log(server_key, player_id, category, created_at)`,
		`CREATE TABLE IF NOT EXISTS jobs_state(
		   job_key    TEXT PRIMARY KEY,
		   value_json TEXT,
		   updated_at TIMESTAMP
		 )`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: migrate: %v", ErrStorage, err)
		}
	}
	return nil
}

// NormName is the case-normalized lookup form of a player name.
func NormName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *SQLiteStore) UpsertServer(ctx context.Context, rec ServerRecord) error {
	metaJSON, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("%w: encode server meta: %v", ErrStorage, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO servers(server_key, community, server_id, name, base_url, meta_json, created_at)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(server_key) DO UPDATE SET
		  community=excluded.community,
		  server_id=excluded.server_id,
		  name=excluded.name,
		  base_url=excluded.base_url,
		  meta_json=excluded.meta_json`,
		rec.ServerKey, rec.Community, rec.ServerID, rec.Name, rec.BaseURL, string(metaJSON), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: upsert server: %v", ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) ReplacePlayersCache(ctx context.Context, serverKey string, fetchedAt time.Time, apiTimestamp int64, players []DirectoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin replace: %v", ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM players_cache WHERE server_key=?`, serverKey); err != nil {
		return fmt.Errorf("%w: drop old directory generation: %v", ErrStorage, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO players_cache(server_key, fetched_at, api_timestamp, player_id, player_name, status, alliance_id, name_norm)
		VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare directory insert: %v", ErrStorage, err)
	}
	defer stmt.Close()

	for _, p := range players {
		if _, err := stmt.ExecContext(ctx, serverKey, fetchedAt, apiTimestamp,
			p.PlayerID, p.Name, p.Status, p.AllianceID, NormName(p.Name)); err != nil {
			return fmt.Errorf("%w: insert directory row: %v", ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit replace: %v", ErrStorage, err)
	}
	s.log.Info("players cache replaced",
		logger.String("server_key", serverKey),
		logger.Int("players", len(players)))
	return nil
}

func (s *SQLiteStore) PlayerIDByName(ctx context.Context, serverKey, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT player_id FROM players_cache WHERE server_key=? AND name_norm=? LIMIT 1`,
		serverKey, NormName(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: lookup player by name: %v", ErrStorage, err)
	}
	return id, true, nil
}

func (s *SQLiteStore) PlayerNames(ctx context.Context, serverKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_name FROM players_cache WHERE server_key=? ORDER BY player_name`, serverKey)
	if err != nil {
		return nil, fmt.Errorf("%w: list player names: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan player name: %v", ErrStorage, err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list player names: %v", ErrStorage, err)
	}
	return out, nil
}

func (s *SQLiteStore) DirectoryFetchedAt(ctx context.Context, serverKey string) (time.Time, bool, error) {
	var fetchedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM players_cache WHERE server_key=? LIMIT 1`, serverKey).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: directory freshness: %v", ErrStorage, err)
	}
	return fetchedAt, true, nil
}

const snapshotColumns = `id, server_key, player_id, fetched_at, api_timestamp, metric_type, points, rank`

func (s *SQLiteStore) scanSnapshot(row *sql.Row) (Snapshot, bool, error) {
	var snap Snapshot
	err := row.Scan(&snap.ID, &snap.Key.ServerKey, &snap.Key.PlayerID, &snap.FetchedAt,
		&snap.APITimestamp, &snap.Key.Metric, &snap.Points, &snap.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: scan snapshot: %v", ErrStorage, err)
	}
	return snap, true, nil
}

func (s *SQLiteStore) querySnapshots(ctx context.Context, query string, args ...any) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query snapshots: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Key.ServerKey, &snap.Key.PlayerID, &snap.FetchedAt,
			&snap.APITimestamp, &snap.Key.Metric, &snap.Points, &snap.Rank); err != nil {
			return nil, fmt.Errorf("%w: scan snapshot: %v", ErrStorage, err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query snapshots: %v", ErrStorage, err)
	}
	return out, nil
}

func (s *SQLiteStore) InsertSnapshotIfNew(ctx context.Context, key Key, fetchedAt time.Time, apiTimestamp, points int64, rank int) (bool, error) {
	last, found, err := s.LatestSnapshot(ctx, key)
	if err != nil {
		return false, err
	}
	if found && last.APITimestamp == apiTimestamp {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots(server_key, player_id, fetched_at, api_timestamp, metric_type, points, rank)
		VALUES(?,?,?,?,?,?,?)`,
		key.ServerKey, key.PlayerID, fetchedAt, apiTimestamp, key.Metric, points, rank)
	if err != nil {
		return false, fmt.Errorf("%w: insert snapshot: %v", ErrStorage, err)
	}
	return true, nil
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, key Key) (Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM snapshots
		WHERE server_key=? AND player_id=? AND metric_type=?
		ORDER BY api_timestamp DESC LIMIT 1`,
		key.ServerKey, key.PlayerID, key.Metric)
	return s.scanSnapshot(row)
}

func (s *SQLiteStore) TwoLatestSnapshots(ctx context.Context, key Key) ([]Snapshot, error) {
	return s.querySnapshots(ctx, `
		SELECT `+snapshotColumns+` FROM snapshots
		WHERE server_key=? AND player_id=? AND metric_type=?
		ORDER BY api_timestamp DESC LIMIT 2`,
		key.ServerKey, key.PlayerID, key.Metric)
}

func (s *SQLiteStore) SnapshotAtOrBefore(ctx context.Context, key Key, maxTimestamp int64) (Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM snapshots
		WHERE server_key=? AND player_id=? AND metric_type=? AND api_timestamp<=?
		ORDER BY api_timestamp DESC LIMIT 1`,
		key.ServerKey, key.PlayerID, key.Metric, maxTimestamp)
	return s.scanSnapshot(row)
}

func (s *SQLiteStore) SnapshotNearOrBefore(ctx context.Context, key Key, targetTimestamp int64) (Snapshot, bool, error) {
	snap, found, err := s.SnapshotAtOrBefore(ctx, key, targetTimestamp)
	if err != nil || found {
		return snap, found, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM snapshots
		WHERE server_key=? AND player_id=? AND metric_type=? AND api_timestamp>?
		ORDER BY api_timestamp ASC LIMIT 1`,
		key.ServerKey, key.PlayerID, key.Metric, targetTimestamp)
	return s.scanSnapshot(row)
}

func (s *SQLiteStore) SeriesSince(ctx context.Context, key Key, minTimestamp int64) ([]Snapshot, error) {
	return s.querySnapshots(ctx, `
		SELECT `+snapshotColumns+` FROM snapshots
		WHERE server_key=? AND player_id=? AND metric_type=? AND api_timestamp>=?
		ORDER BY api_timestamp ASC`,
		key.ServerKey, key.PlayerID, key.Metric, minTimestamp)
}

func (s *SQLiteStore) JobState(ctx context.Context, jobKey string) (map[string]string, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value_json FROM jobs_state WHERE job_key=?`, jobKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: job state %s: %v", ErrStorage, jobKey, err)
	}

	var value map[string]string
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false, fmt.Errorf("%w: decode job state %s: %v", ErrStorage, jobKey, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetJobState(ctx context.Context, jobKey string, value map[string]string, updatedAt time.Time) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode job state %s: %v", ErrStorage, jobKey, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs_state(job_key, value_json, updated_at) VALUES(?,?,?)
		ON CONFLICT(job_key) DO UPDATE SET value_json=excluded.value_json, updated_at=excluded.updated_at`,
		jobKey, string(raw), updatedAt)
	if err != nil {
		return fmt.Errorf("%w: set job state %s: %v", ErrStorage, jobKey, err)
	}
	return nil
}

func (s *SQLiteStore) LogAlert(ctx context.Context, serverKey string, playerID int64, category string, createdAt time.Time, apiTimestamp int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts_log(server_key, player_id, category, created_at, api_timestamp)
		VALUES(?,?,?,?,?)`,
		serverKey, playerID, category, createdAt, apiTimestamp)
	if err != nil {
		return fmt.Errorf("%w: log alert: %v", ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) LastAlert(ctx context.Context, serverKey string, playerID int64, category string) (time.Time, bool, error) {
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at FROM alerts_log
		WHERE server_key=? AND player_id=? AND category=?
		ORDER BY created_at DESC LIMIT 1`,
		serverKey, playerID, category).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: last alert: %v", ErrStorage, err)
	}
	return createdAt, true, nil
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, serverKey string, playerID int64, since time.Time, limit int) ([]AlertLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, created_at, api_timestamp FROM alerts_log
		WHERE server_key=? AND player_id=? AND created_at>=?
		ORDER BY created_at DESC LIMIT ?`,
		serverKey, playerID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list alerts: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []AlertLogEntry
	for rows.Next() {
		var e AlertLogEntry
		if err := rows.Scan(&e.Category, &e.CreatedAt, &e.APITimestamp); err != nil {
			return nil, fmt.Errorf("%w: scan alert: %v", ErrStorage, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list alerts: %v", ErrStorage, err)
	}
	return out, nil
}
