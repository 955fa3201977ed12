package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const exampleFilePermission = 0o600

// WriteExample writes a commented starter config to path. Existing files are
// kept unless force is set, so repeated init runs are idempotent.
func WriteExample(path string, force bool) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if _, err := os.Stat(abs); err == nil && !force {
		return abs, nil
	}

	example := map[string]any{
		"community": "fr",
		"universe": map[string]any{
			"server_id": "",
			"base_url":  "",
		},
		"player_name": "Galoup",
		"timezone":    "Europe/Paris",
		"discord": map[string]any{
			"webhook_url": "",
			"username":    "OGame Stats",
			"avatar_url":  "",
			"dry_run":     true,
		},
		"output": map[string]any{
			"out_dir":         "./out",
			"public_base_url": "",
			"publish_dir":     "./docs",
			"latest_filename": "latest.html",
			"keep_history":    true,
		},
		"storage": map[string]any{
			"data_dir":    "./data",
			"sqlite_path": "./data/hardstats.sqlite",
		},
		"schedule": map[string]any{
			"collect_minutes": 60,
			"recap_time":      "21:00",
		},
		"alerts": map[string]any{
			"enabled":          true,
			"cooldown_minutes": 180,
			"thresholds": map[string]any{
				"rank_jump_1h":      25,
				"rank_drop_1h":      25,
				"pct_change_24h":    0.006,
				"lost_spike_factor": 2.5,
			},
		},
	}

	out, err := yaml.Marshal(example)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := os.WriteFile(abs, out, exampleFilePermission); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	return abs, nil
}
