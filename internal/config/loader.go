package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) at path, or HARDSTATS_CONFIG when path is empty
//  3. env (prefix HARDSTATS_, double underscore separates nesting:
//     HARDSTATS_DISCORD__WEBHOOK_URL -> discord.webhook_url)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("HARDSTATS_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	envProvider := env.Provider("HARDSTATS_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "HARDSTATS_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded configuration. All failures wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PlayerName) == "" {
		return fmt.Errorf("%w: player_name is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Community) == "" {
		return fmt.Errorf("%w: community is required", ErrInvalidConfig)
	}
	if c.Schedule.CollectMinutes < 1 || c.Schedule.CollectMinutes > 24*60 {
		return fmt.Errorf("%w: schedule.collect_minutes must be in 1..1440, got %d",
			ErrInvalidConfig, c.Schedule.CollectMinutes)
	}
	if _, _, err := ParseHHMM(c.Schedule.RecapTime); err != nil {
		return fmt.Errorf("%w: schedule.recap_time: %v", ErrInvalidConfig, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	if c.Alerts.CooldownMinutes < 0 {
		return fmt.Errorf("%w: alerts.cooldown_minutes must not be negative", ErrInvalidConfig)
	}
	if c.Storage.SQLitePath == "" {
		return fmt.Errorf("%w: storage.sqlite_path is required", ErrInvalidConfig)
	}
	return nil
}

// Location resolves the configured timezone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseHHMM parses a wall-clock time of day in "HH:MM" form.
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return hour, minute, nil
}
