// Package service wires the tracker components into the collect, alert and
// recap flows the commands and the scheduler run.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Galoup/HARDSTATS/internal/adapters/notify"
	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/internal/adapters/repository"
	"github.com/Galoup/HARDSTATS/internal/config"
	"github.com/Galoup/HARDSTATS/internal/domain/alert"
	"github.com/Galoup/HARDSTATS/internal/domain/locator"
	"github.com/Galoup/HARDSTATS/internal/report"
	"github.com/Galoup/HARDSTATS/pkg/logger"
	"github.com/Galoup/HARDSTATS/pkg/metrics"
)

// Service runs the tracker against one universe and one player.
type Service struct {
	cfg   *config.Config
	store repository.Store

	api    *ogame.Client
	lobby  *ogame.LobbyClient
	sink   notify.Sink
	finder *locator.Locator
	alerts *alert.Engine

	// Resolved during Bootstrap.
	serverID     string
	baseURL      string
	serverKey    string
	universeName string
	playerID     int64

	loc     *time.Location
	now     func() time.Time
	log     logger.Logger
	metrics *metrics.Manager
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// New builds a Service from cfg and an opened store. The universe base URL is
// resolved here; the lobby and player lookups run in Bootstrap.
func New(cfg *config.Config, store repository.Store, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:   cfg,
		store: store,
		loc:   cfg.Location(),
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}

	serverID, baseURL, err := ResolveServer(cfg.Community, cfg.Universe.ServerID, cfg.Universe.BaseURL)
	if err != nil {
		return nil, err
	}
	s.serverID = serverID
	s.baseURL = baseURL
	s.serverKey = fmt.Sprintf("%s:%s", cfg.Community, serverID)

	if s.api == nil {
		s.api = ogame.NewClient(baseURL,
			ogame.WithLogger(s.log),
			ogame.WithMetrics(s.metrics))
	}
	if s.lobby == nil {
		s.lobby = ogame.NewLobbyClient(
			ogame.WithLogger(s.log),
			ogame.WithMetrics(s.metrics))
	}
	if s.sink == nil {
		s.sink = notify.NewDiscordWebhook(cfg.Discord.WebhookURL,
			notify.WithUsername(cfg.Discord.Username),
			notify.WithAvatarURL(cfg.Discord.AvatarURL),
			notify.WithDryRun(cfg.Discord.DryRun),
			notify.WithLogger(s.log))
	}
	s.finder = locator.New(s.api,
		locator.WithLogger(s.log),
		locator.WithMetrics(s.metrics))
	return s, nil
}

// ServerKey returns the resolved "<community>:<server_id>" identity.
func (s *Service) ServerKey() string { return s.serverKey }

// PlayerID returns the resolved player id, 0 before Bootstrap.
func (s *Service) PlayerID() int64 { return s.playerID }

// UniverseName returns the lobby display name, empty before Bootstrap.
func (s *Service) UniverseName() string { return s.universeName }

// Bootstrap registers the server, refreshes the player directory when stale
// and resolves the configured player name to an id.
func (s *Service) Bootstrap(ctx context.Context) error {
	name, meta, err := s.lobby.UniverseName(ctx, s.cfg.Community, s.serverID)
	if err != nil {
		// The lobby is best-effort decoration; tracking works without it.
		s.log.Warn("lobby lookup failed, using server id as name", logger.Error(err))
		name = s.serverID
	}
	s.universeName = name

	if err := s.store.UpsertServer(ctx, repository.ServerRecord{
		ServerKey: s.serverKey,
		Community: s.cfg.Community,
		ServerID:  s.serverID,
		Name:      s.universeName,
		BaseURL:   s.baseURL,
		Meta:      meta,
		CreatedAt: s.now(),
	}); err != nil {
		return err
	}

	if err := s.ensurePlayersCache(ctx, false); err != nil {
		return err
	}
	playerID, err := s.resolvePlayerID(ctx)
	if err != nil {
		return err
	}
	s.playerID = playerID

	s.alerts = alert.New(s.store, s.sink, s.serverKey, s.playerID,
		alert.WithIdentity(s.cfg.PlayerName, s.universeName),
		alert.WithThresholds(alert.Thresholds{
			RankJump:        s.cfg.Alerts.Thresholds.RankJump,
			RankDrop:        s.cfg.Alerts.Thresholds.RankDrop,
			PctChange24h:    s.cfg.Alerts.Thresholds.PctChange24h,
			LostSpikeFactor: s.cfg.Alerts.Thresholds.LostSpikeFactor,
		}),
		alert.WithCooldown(s.cfg.Alerts.Cooldown()),
		alert.WithClock(s.now),
		alert.WithLogger(s.log),
		alert.WithMetrics(s.metrics))

	s.log.Info("service ready",
		logger.String("server_key", s.serverKey),
		logger.String("universe", s.universeName),
		logger.String("player", s.cfg.PlayerName),
		logger.Int64("player_id", s.playerID))
	return nil
}

// EvaluateAlerts runs the threshold engine unless alerting is disabled.
func (s *Service) EvaluateAlerts(ctx context.Context) error {
	if !s.cfg.Alerts.Enabled || s.alerts == nil {
		return nil
	}
	return s.alerts.Evaluate(ctx)
}

// key returns the series key for metric.
func (s *Service) key(metric ogame.Metric) repository.Key {
	return repository.Key{
		ServerKey: s.serverKey,
		PlayerID:  s.playerID,
		Metric:    string(metric),
	}
}

// newRenderer builds the report renderer over the service store.
func (s *Service) newRenderer() (*report.Renderer, error) {
	return report.NewRenderer(s.store, s.loc, report.WithRendererLogger(s.log))
}
