package service

import (
	"context"

	"github.com/Galoup/HARDSTATS/internal/config"
	"github.com/Galoup/HARDSTATS/internal/schedule"
)

// Run drives the perpetual collect/alert/recap loop until ctx is cancelled or
// a cycle fails. Bootstrap must have succeeded first.
func (s *Service) Run(ctx context.Context) error {
	recapHour, recapMinute, err := config.ParseHHMM(s.cfg.Schedule.RecapTime)
	if err != nil {
		return err
	}

	sched := schedule.New(
		s.Collect,
		s.EvaluateAlerts,
		s.RecapIfDue,
		schedule.WithCollectEvery(s.cfg.Schedule.CollectMinutes),
		schedule.WithRecapTime(recapHour, recapMinute),
		schedule.WithLocation(s.loc),
		schedule.WithClock(s.now),
		schedule.WithLogger(s.log),
	)
	return sched.Run(ctx)
}
