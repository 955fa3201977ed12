package service

import (
	"time"

	"github.com/Galoup/HARDSTATS/internal/adapters/notify"
	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/pkg/logger"
	"github.com/Galoup/HARDSTATS/pkg/metrics"
)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSink overrides the notification sink, for tests.
func WithSink(sink notify.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithAPIClient overrides the highscore API client, for tests.
func WithAPIClient(c *ogame.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.api = c
		}
	}
}

// WithLobbyClient overrides the lobby client, for tests.
func WithLobbyClient(c *ogame.LobbyClient) Option {
	return func(s *Service) {
		if c != nil {
			s.lobby = c
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
