package ogame

import (
	"net/http"
	"time"

	"github.com/Galoup/HARDSTATS/pkg/logger"
	"github.com/Galoup/HARDSTATS/pkg/metrics"
)

// Option applies a configuration option to a Client or LobbyClient.
type Option func(*getter)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *getter) {
		if hc != nil {
			g.httpClient = hc
		}
	}
}

// WithTimeout bounds each outbound call.
func WithTimeout(d time.Duration) Option {
	return func(g *getter) {
		if d > 0 {
			g.httpClient.Timeout = d
		}
	}
}

// WithRetries sets the attempt count for each fetch.
func WithRetries(n int) Option {
	return func(g *getter) {
		if n > 0 {
			g.retries = n
		}
	}
}

// WithLogger sets the logging handle.
func WithLogger(l logger.Logger) Option {
	return func(g *getter) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMetrics wires the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(g *getter) { g.metrics = m }
}
