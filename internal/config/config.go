// Package config defines tracker configuration structures and loading.
//
// Conventions:
// - Defaults come from New; Load layers an optional YAML file and env on top.
// - Validation failures wrap ErrInvalidConfig so main can exit with the
//   configuration error code instead of retrying.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr optionally exposes Prometheus metrics, e.g. ":9188".
	// Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// Community is the lobby community code, e.g. "fr".
	Community string `koanf:"community"`

	// PlayerName is the tracked player's display name. Required.
	PlayerName string `koanf:"player_name"`

	// Timezone is the IANA zone all wall-clock boundaries are computed in.
	Timezone string `koanf:"timezone"`

	Universe Universe `koanf:"universe"`
	Discord  Discord  `koanf:"discord"`
	Output   Output   `koanf:"output"`
	Storage  Storage  `koanf:"storage"`
	Schedule Schedule `koanf:"schedule"`
	Alerts   Alerts   `koanf:"alerts"`
}

// Universe selects the tracked server.
type Universe struct {
	// ServerID like "s123-fr". Required unless BaseURL is set.
	ServerID string `koanf:"server_id"`
	// BaseURL overrides the derived https://<server_id>.ogame.gameforge.com.
	BaseURL string `koanf:"base_url"`
}

// Discord configures the notification sink.
type Discord struct {
	WebhookURL string `koanf:"webhook_url"`
	Username   string `koanf:"username"`
	AvatarURL  string `koanf:"avatar_url"`
	// DryRun logs payloads instead of delivering them. Also forced on when
	// WebhookURL is empty.
	DryRun bool `koanf:"dry_run"`
}

// Output configures report rendering and publishing.
type Output struct {
	OutDir         string `koanf:"out_dir"`
	PublicBaseURL  string `koanf:"public_base_url"`
	PublishDir     string `koanf:"publish_dir"`
	LatestFilename string `koanf:"latest_filename"`
	KeepHistory    bool   `koanf:"keep_history"`
}

// Storage configures the sqlite store.
type Storage struct {
	DataDir    string `koanf:"data_dir"`
	SQLitePath string `koanf:"sqlite_path"`
}

// Schedule configures the wall-clock loop.
type Schedule struct {
	// CollectMinutes aligns collection to multiples past the hour, 1..1440.
	CollectMinutes int `koanf:"collect_minutes"`
	// RecapTime is the daily recap boundary as HH:MM.
	RecapTime string `koanf:"recap_time"`
}

// Alerts configures the threshold engine.
type Alerts struct {
	Enabled         bool       `koanf:"enabled"`
	CooldownMinutes int        `koanf:"cooldown_minutes"`
	Thresholds      Thresholds `koanf:"thresholds"`
}

// Thresholds holds the alert trigger levels.
type Thresholds struct {
	// RankJump fires a TOP alert when rank improves by at least this many places.
	RankJump int `koanf:"rank_jump_1h"`
	// RankDrop fires a FLOP alert when rank worsens by at least this many places.
	RankDrop int `koanf:"rank_drop_1h"`
	// PctChange24h fires a percent-movement alert, e.g. 0.006 for 0.6%.
	PctChange24h float64 `koanf:"pct_change_24h"`
	// LostSpikeFactor fires a spike alert when the lost-points delta exceeds
	// this multiple of the 7-day mean absolute delta.
	LostSpikeFactor float64 `koanf:"lost_spike_factor"`
}

// Cooldown returns the alert cooldown as a duration.
func (a Alerts) Cooldown() time.Duration {
	return time.Duration(a.CooldownMinutes) * time.Minute
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		Community:  "fr",
		Timezone:   "Europe/Paris",
		PlayerName: "",
		Discord: Discord{
			Username: "OGame Stats",
			DryRun:   true,
		},
		Output: Output{
			OutDir:         "./out",
			PublishDir:     "./docs",
			LatestFilename: "latest.html",
			KeepHistory:    true,
		},
		Storage: Storage{
			DataDir:    "./data",
			SQLitePath: "./data/hardstats.sqlite",
		},
		Schedule: Schedule{
			CollectMinutes: 60,
			RecapTime:      "21:00",
		},
		Alerts: Alerts{
			Enabled:         true,
			CooldownMinutes: 180,
			Thresholds: Thresholds{
				RankJump:        25,
				RankDrop:        25,
				PctChange24h:    0.006,
				LostSpikeFactor: 2.5,
			},
		},
	}
}
