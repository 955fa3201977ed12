package locator

import (
	"github.com/Galoup/HARDSTATS/pkg/logger"
	"github.com/Galoup/HARDSTATS/pkg/metrics"
)

// Option applies a configuration option to the Locator.
type Option func(*Locator)

// WithBlockWidth sets the ranked-list window size per fetch.
func WithBlockWidth(w int) Option {
	return func(l *Locator) {
		if w > 0 {
			l.blockWidth = w
		}
	}
}

// WithMaxScanOffset sets the sequential-scan safety cap.
func WithMaxScanOffset(n int) Option {
	return func(l *Locator) {
		if n > 0 {
			l.maxScanOffset = n
		}
	}
}

// WithLogger sets the logging handle.
func WithLogger(l logger.Logger) Option {
	return func(loc *Locator) {
		if l != nil {
			loc.log = l
		}
	}
}

// WithMetrics wires the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(l *Locator) { l.metrics = m }
}
