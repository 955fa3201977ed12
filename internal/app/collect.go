package service

import (
	"context"
	"time"

	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/pkg/logger"
)

// Collect fetches the player's standing in every metric and appends the
// snapshots that carry a new upstream timestamp. One ranked-list miss aborts
// the cycle so the series never gains a partial poll pass.
func (s *Service) Collect(ctx context.Context) error {
	started := s.now()
	fetchedAt := started
	inserted := 0

	for _, metric := range ogame.Metrics() {
		hintRank := 0
		if last, ok, err := s.store.LatestSnapshot(ctx, s.key(metric)); err != nil {
			return err
		} else if ok {
			hintRank = last.Rank
		}

		res, err := s.finder.Locate(ctx, metric, s.playerID, hintRank)
		if err != nil {
			return err
		}

		fresh, err := s.store.InsertSnapshotIfNew(ctx, s.key(metric), fetchedAt, res.APITimestamp, res.Points, res.Rank)
		if err != nil {
			return err
		}
		if fresh {
			inserted++
			if s.metrics != nil {
				s.metrics.RecordSnapshotInserted()
			}
		} else if s.metrics != nil {
			s.metrics.RecordSnapshotDuplicate()
		}
	}

	ended := s.now()
	if s.metrics != nil {
		s.metrics.RecordCollectCycle(ended.Sub(started).Seconds(), ended.Unix())
	}
	s.log.Info("collect done",
		logger.Int("inserted", inserted),
		logger.String("server", s.serverID),
		logger.String("player", s.cfg.PlayerName),
		logger.Int64("player_id", s.playerID),
		logger.String("took", ended.Sub(started).Round(time.Millisecond).String()))
	return nil
}
