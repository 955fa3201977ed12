package alert

import (
	"time"

	"github.com/Galoup/HARDSTATS/pkg/logger"
	"github.com/Galoup/HARDSTATS/pkg/metrics"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithIdentity sets the display names used in alert titles.
func WithIdentity(playerName, universeName string) Option {
	return func(e *Engine) {
		e.playerName = playerName
		e.universeName = universeName
	}
}

// WithThresholds replaces the default trigger levels.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithCooldown sets the minimum gap between two alerts of one category.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.cooldown = d
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logging handle.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics wires the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Engine) { e.metrics = m }
}
