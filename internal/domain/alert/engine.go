// Package alert evaluates movement thresholds over fresh snapshots and
// dispatches notifications with a durable cooldown.
//
// The most recent alerts_log row per (server, player, category) is the only
// cooldown state; there is no in-memory debounce, so restarts cannot double
// alert.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Galoup/HARDSTATS/internal/adapters/notify"
	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/internal/adapters/repository"
	"github.com/Galoup/HARDSTATS/internal/domain/aggregate"
	"github.com/Galoup/HARDSTATS/pkg/logger"
	"github.com/Galoup/HARDSTATS/pkg/metrics"
)

const alertColor = 0xFFCC00

// Thresholds holds the trigger levels for one engine.
type Thresholds struct {
	RankJump        int
	RankDrop        int
	PctChange24h    float64
	LostSpikeFactor float64
}

// DefaultThresholds mirrors the shipped example configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{RankJump: 25, RankDrop: 25, PctChange24h: 0.006, LostSpikeFactor: 2.5}
}

// Store is the persistence surface the engine needs: snapshot reads for the
// aggregator plus the append-only alert log.
type Store interface {
	aggregate.Reader
	LastAlert(ctx context.Context, serverKey string, playerID int64, category string) (time.Time, bool, error)
	LogAlert(ctx context.Context, serverKey string, playerID int64, category string, createdAt time.Time, apiTimestamp int64) error
}

// Engine evaluates one tracked player each scheduler cycle.
type Engine struct {
	store        Store
	sink         notify.Sink
	serverKey    string
	playerID     int64
	playerName   string
	universeName string
	thresholds   Thresholds
	cooldown     time.Duration
	now          func() time.Time
	log          logger.Logger
	metrics      *metrics.Manager
}

// New creates an Engine for one (server, player) pair.
func New(store Store, sink notify.Sink, serverKey string, playerID int64, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		sink:       sink,
		serverKey:  serverKey,
		playerID:   playerID,
		thresholds: DefaultThresholds(),
		cooldown:   3 * time.Hour,
		now:        time.Now,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) key(metric ogame.Metric) repository.Key {
	return repository.Key{ServerKey: e.serverKey, PlayerID: e.playerID, Metric: string(metric)}
}

// Evaluate runs all threshold checks against the store's current state.
// Intended to run right after a collection cycle so it sees the freshest
// sample.
func (e *Engine) Evaluate(ctx context.Context) error {
	for _, metric := range ogame.HeadlineMetrics() {
		if err := e.evaluateRankMoves(ctx, metric); err != nil {
			return err
		}
		if err := e.evaluatePctMovement(ctx, metric); err != nil {
			return err
		}
	}
	return e.evaluateLostSpike(ctx)
}

// evaluateRankMoves raises TOP or FLOP on the last-update rank delta.
// TOP is checked first; the two are mutually exclusive per cycle.
func (e *Engine) evaluateRankMoves(ctx context.Context, metric ogame.Metric) error {
	last, delta, err := aggregate.LastUpdateDelta(ctx, e.store, e.key(metric))
	if err != nil {
		return err
	}
	if last == nil || delta == nil {
		return nil
	}

	label := metricLabel(metric)
	switch {
	case delta.Rank >= e.thresholds.RankJump:
		return e.maybeSend(ctx, "TOP:"+string(metric),
			fmt.Sprintf("TOP %s — %s (%s)", label, e.playerName, e.universeName),
			fmt.Sprintf("Rank gained: +%d places • Points: %s", delta.Rank, signed(delta.Points)),
			last.APITimestamp)
	case delta.Rank <= -e.thresholds.RankDrop:
		return e.maybeSend(ctx, "FLOP:"+string(metric),
			fmt.Sprintf("FLOP %s — %s (%s)", label, e.playerName, e.universeName),
			fmt.Sprintf("Rank lost: %d places • Points: %s", delta.Rank, signed(delta.Points)),
			last.APITimestamp)
	}
	return nil
}

// evaluatePctMovement raises a percent-movement alert on the rolling 24h
// points delta relative to the 24h-ago baseline.
func (e *Engine) evaluatePctMovement(ctx context.Context, metric ogame.Metric) error {
	last, delta, err := aggregate.Rolling24hDelta(ctx, e.store, e.key(metric))
	if err != nil {
		return err
	}
	if last == nil || delta == nil {
		return nil
	}

	baseline := last.Points - delta.Points
	if baseline < 1 {
		baseline = 1
	}
	pts := delta.Points
	if pts < 0 {
		pts = -pts
	}
	pct := float64(pts) / float64(baseline)
	if pct < e.thresholds.PctChange24h {
		return nil
	}

	return e.maybeSend(ctx, "PCT24H:"+string(metric),
		fmt.Sprintf("24h movement %s — %s (%s)", metricLabel(metric), e.playerName, e.universeName),
		fmt.Sprintf("24h delta: %s points (%.2f%%) • Rank: %s",
			signed(delta.Points), pct*100, signedInt(delta.Rank)),
		last.APITimestamp)
}

// evaluateLostSpike compares the latest military-lost delta against the
// 7-day mean absolute delta. A zero baseline (quiet week) never fires.
func (e *Engine) evaluateLostSpike(ctx context.Context) error {
	key := e.key(ogame.MetricMilitaryLost)
	last, delta, err := aggregate.LastUpdateDelta(ctx, e.store, key)
	if err != nil {
		return err
	}
	if last == nil || delta == nil {
		return nil
	}

	series, err := aggregate.WeeklySeries(ctx, e.store, key, last.APITimestamp)
	if err != nil {
		return err
	}
	baseline := aggregate.MeanAbsDelta(aggregate.PointsOf(series))
	if baseline <= 0 {
		return nil
	}

	pts := delta.Points
	if pts < 0 {
		pts = -pts
	}
	if float64(pts) < e.thresholds.LostSpikeFactor*baseline {
		return nil
	}

	return e.maybeSend(ctx, "SPIKE:"+string(ogame.MetricMilitaryLost),
		fmt.Sprintf("Lost spike — %s (%s)", e.playerName, e.universeName),
		fmt.Sprintf("Lost delta: %s • x%.1f vs 7d mean (~%.0f)",
			signed(delta.Points), e.thresholds.LostSpikeFactor, baseline),
		last.APITimestamp)
}

// maybeSend dispatches unless the category is cooling down. Absence of a
// prior log row never suppresses. A suppressed trigger leaves no new row.
func (e *Engine) maybeSend(ctx context.Context, category, title, body string, apiTimestamp int64) error {
	lastAt, found, err := e.store.LastAlert(ctx, e.serverKey, e.playerID, category)
	if err != nil {
		return err
	}
	now := e.now()
	if found && now.Sub(lastAt) < e.cooldown {
		if e.metrics != nil {
			e.metrics.RecordAlertSuppressed(category)
		}
		e.log.Debug("alert suppressed by cooldown",
			logger.String("category", category),
			logger.Any("last_sent", lastAt))
		return nil
	}

	// The dispatch id rides the embed footer so a delivered alert can be
	// matched back to the log line that produced it.
	dispatchID := uuid.NewString()
	if err := e.sink.Send(ctx, notify.Embed{
		Title:       title,
		Description: body,
		Color:       alertColor,
		Footer:      &notify.Footer{Text: "ref " + dispatchID},
	}, nil); err != nil {
		return fmt.Errorf("dispatch alert %s: %w", category, err)
	}

	if err := e.store.LogAlert(ctx, e.serverKey, e.playerID, category, now, apiTimestamp); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.RecordAlertSent(category)
	}
	e.log.Info("alert dispatched",
		logger.String("category", category),
		logger.String("dispatch_id", dispatchID),
		logger.Int64("api_timestamp", apiTimestamp))
	return nil
}

func metricLabel(m ogame.Metric) string {
	switch m {
	case ogame.MetricGlobal:
		return "Global"
	case ogame.MetricEconomy:
		return "Economy"
	case ogame.MetricResearch:
		return "Research"
	case ogame.MetricMilitary:
		return "Military"
	case ogame.MetricMilitaryLost:
		return "Lost"
	case ogame.MetricMilitaryBuilt:
		return "Built"
	case ogame.MetricMilitaryDestroyed:
		return "Destroyed"
	case ogame.MetricHonor:
		return "Honor"
	}
	return string(m)
}
