package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Galoup/HARDSTATS/internal/adapters/notify"
	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/internal/config"
	"github.com/Galoup/HARDSTATS/internal/domain/aggregate"
	"github.com/Galoup/HARDSTATS/internal/report"
	"github.com/Galoup/HARDSTATS/pkg/logger"
)

const recapColor = 0x2E8B57

const (
	recapJobKey  = "recap"
	renderJobKey = "render"
)

// recapWindow returns the 24h recap window ending at the configured recap
// time on reportDate, in the service timezone.
func (s *Service) recapWindow(reportDate time.Time) (startTS, endTS int64, err error) {
	hour, minute, err := config.ParseHHMM(s.cfg.Schedule.RecapTime)
	if err != nil {
		return 0, 0, err
	}
	end := time.Date(reportDate.Year(), reportDate.Month(), reportDate.Day(), hour, minute, 0, 0, s.loc)
	start := end.AddDate(0, 0, -1)
	return start.Unix(), end.Unix(), nil
}

// RenderReport renders the daily HTML report for reportDate into the out
// directory and records it in the render job state. Returns the report path.
func (s *Service) RenderReport(ctx context.Context, reportDate time.Time) (string, error) {
	startTS, endTS, err := s.recapWindow(reportDate)
	if err != nil {
		return "", err
	}
	alerts, err := s.store.ListAlerts(ctx, s.serverKey, s.playerID, s.now().AddDate(0, 0, -7), 100)
	if err != nil {
		return "", err
	}

	outName := fmt.Sprintf("report_%s_%s_%s.html",
		reportDate.Format("2006-01-02"), s.serverID, SafePlayerName(s.cfg.PlayerName))
	outPath := filepath.Join(s.cfg.Output.OutDir, outName)

	renderer, err := s.newRenderer()
	if err != nil {
		return "", err
	}
	if err := renderer.RenderFile(ctx, outPath, report.Input{
		ServerID:      s.serverID,
		UniverseName:  s.universeName,
		PlayerName:    s.cfg.PlayerName,
		Key:           s.key(ogame.MetricGlobal),
		ReportDate:    reportDate,
		RecapStartTS:  startTS,
		RecapEndTS:    endTS,
		PublicBaseURL: s.cfg.Output.PublicBaseURL,
		Alerts:        alerts,
	}); err != nil {
		return "", err
	}

	if err := s.store.SetJobState(ctx, renderJobKey, map[string]string{
		"last_report_path": outPath,
		"last_report_name": outName,
		"date":             reportDate.Format("2006-01-02"),
	}, s.now()); err != nil {
		return "", err
	}
	return outPath, nil
}

// PublishLatest copies reportPath (or the most recent rendered report when
// empty) into the publish directory.
func (s *Service) PublishLatest(ctx context.Context, reportPath string, generateIndex bool) (*report.PublishResult, error) {
	if reportPath == "" {
		if st, ok, err := s.store.JobState(ctx, renderJobKey); err != nil {
			return nil, err
		} else if ok {
			if p := st["last_report_path"]; p != "" {
				if info, err := os.Stat(p); err == nil && !info.IsDir() {
					reportPath = p
				}
			}
		}
	}
	if reportPath == "" {
		latest, err := report.FindLatestReport(s.cfg.Output.OutDir)
		if err != nil {
			return nil, err
		}
		reportPath = latest
	}
	if reportPath == "" {
		return nil, fmt.Errorf("no report found in %s", s.cfg.Output.OutDir)
	}

	pub := report.NewPublisher(s.cfg.Output.PublishDir,
		report.WithLatestFilename(s.cfg.Output.LatestFilename),
		report.WithKeepHistory(s.cfg.Output.KeepHistory),
		report.WithGenerateIndex(generateIndex),
		report.WithPublisherLogger(s.log))
	return pub.Publish(reportPath)
}

// RecapIfDue posts the daily recap unless one was already posted today.
// The scheduler calls this inside the recap grace window; the date guard
// makes a restart within the window idempotent.
func (s *Service) RecapIfDue(ctx context.Context) error {
	today := s.now().In(s.loc).Format("2006-01-02")
	if st, ok, err := s.store.JobState(ctx, recapJobKey); err != nil {
		return err
	} else if ok && st["last_date"] == today {
		return nil
	}
	return s.Recap(ctx)
}

// Recap renders today's report, publishes it when a public base URL is set
// and posts the daily summary embed to the notification sink.
func (s *Service) Recap(ctx context.Context) error {
	reportDate := s.now().In(s.loc)
	startTS, endTS, err := s.recapWindow(reportDate)
	if err != nil {
		return err
	}

	deltas := make(map[ogame.Metric]int64)
	deltasRank := make(map[ogame.Metric]int)
	snapshotHHMM := "--:--"
	for _, m := range ogame.HeadlineMetrics() {
		_, end, d, err := aggregate.DailyRecapDelta(ctx, s.store, s.key(m), startTS, endTS)
		if err != nil {
			return err
		}
		if end != nil {
			snapshotHHMM = time.Unix(end.APITimestamp, 0).In(s.loc).Format("15:04")
		}
		if d != nil {
			deltas[m] = d.Points
			deltasRank[m] = d.Rank
		}
	}

	summary := fmt.Sprintf("📌 🌍 Global %s | 💰 Éco %s | 🧠 Rech %s | ⚔️ Mili %s",
		signed(deltas[ogame.MetricGlobal]),
		signed(deltas[ogame.MetricEconomy]),
		signed(deltas[ogame.MetricResearch]),
		signed(deltas[ogame.MetricMilitary]))

	fields := []notify.Field{
		{Name: "Résumé", Value: summary + "\n" + recapVibe(deltas[ogame.MetricGlobal])},
		metricField("🌍 Global", deltas[ogame.MetricGlobal], deltasRank[ogame.MetricGlobal]),
		metricField("💰 Économie", deltas[ogame.MetricEconomy], deltasRank[ogame.MetricEconomy]),
		metricField("🧠 Recherche", deltas[ogame.MetricResearch], deltasRank[ogame.MetricResearch]),
		metricField("⚔️ Militaire", deltas[ogame.MetricMilitary], deltasRank[ogame.MetricMilitary]),
	}

	if detail := s.militaryDetail(ctx, startTS, endTS); detail != "" {
		fields = append(fields, notify.Field{Name: "Mili Détail", Value: detail})
	}

	topFlop, err := s.topFlopField(ctx)
	if err != nil {
		return err
	}
	fields = append(fields, topFlop)

	reportPath, err := s.RenderReport(ctx, reportDate)
	if err != nil {
		return err
	}

	var attachment *notify.Attachment
	if s.cfg.Output.PublicBaseURL != "" {
		if _, err := s.PublishLatest(ctx, reportPath, true); err != nil {
			// Links still go out; a broken pages deploy should not eat the recap.
			s.log.Error("publish failed, posting links anyway", logger.Error(err))
		}
		latest := report.JoinPublicURL(s.cfg.Output.PublicBaseURL, s.cfg.Output.LatestFilename)
		val := fmt.Sprintf("🧼 Clean: %s?theme=clean\n✨ Neon: %s?theme=neon", latest, latest)
		if s.cfg.Output.KeepHistory {
			val += fmt.Sprintf("\n🗓️ Daté: %s", report.JoinPublicURL(s.cfg.Output.PublicBaseURL, filepath.Base(reportPath)))
		}
		fields = append(fields, notify.Field{Name: "📄 Rapport", Value: val})
	} else {
		data, err := os.ReadFile(reportPath)
		if err != nil {
			return fmt.Errorf("read report for attachment: %w", err)
		}
		attachment = &notify.Attachment{
			Filename:    filepath.Base(reportPath),
			ContentType: "text/html",
			Data:        data,
		}
	}

	period := fmt.Sprintf("%s → %s",
		time.Unix(startTS, 0).In(s.loc).Format("02/01/2006 15:04"),
		time.Unix(endTS, 0).In(s.loc).Format("02/01/2006 15:04"))

	embed := notify.Embed{
		Title: fmt.Sprintf("🧾 OGame %s • %s • Récap du %s — %s",
			strings.ToUpper(s.cfg.Community), s.universeName, reportDate.Format("02/01/2006"), s.cfg.PlayerName),
		Description: fmt.Sprintf("Snapshot: %s • Période: %s", snapshotHHMM, period),
		Color:       recapColor,
		Fields:      fields,
		Footer:      &notify.Footer{Text: "Public API only • no login • no botting"},
	}
	if err := s.sink.Send(ctx, embed, attachment); err != nil {
		return err
	}

	if err := s.store.SetJobState(ctx, recapJobKey, map[string]string{
		"last_date": reportDate.Format("2006-01-02"),
	}, s.now()); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordRecapPosted()
	}
	s.log.Info("recap posted", logger.String("date", reportDate.Format("2006-01-02")))
	return nil
}

// militaryDetail summarizes built/destroyed/lost daily deltas, empty when no
// window closed for any of them.
func (s *Service) militaryDetail(ctx context.Context, startTS, endTS int64) string {
	var parts []string
	for _, mc := range []struct {
		metric ogame.Metric
		label  string
	}{
		{ogame.MetricMilitaryBuilt, "Built"},
		{ogame.MetricMilitaryDestroyed, "Destroyed"},
		{ogame.MetricMilitaryLost, "Lost"},
	} {
		_, _, d, err := aggregate.DailyRecapDelta(ctx, s.store, s.key(mc.metric), startTS, endTS)
		if err != nil || d == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", mc.label, signed(d.Points)))
	}
	return strings.Join(parts, " • ")
}

// topFlopField names the best and worst last-update rank movers among the
// headline metrics.
func (s *Service) topFlopField(ctx context.Context) (notify.Field, error) {
	type move struct {
		rank   int
		label  string
		points int64
	}
	var moves []move
	for _, mc := range []struct {
		metric ogame.Metric
		label  string
	}{
		{ogame.MetricGlobal, "🌍 Global"},
		{ogame.MetricEconomy, "💰 Éco"},
		{ogame.MetricResearch, "🧠 Rech"},
		{ogame.MetricMilitary, "⚔️ Mili"},
	} {
		_, d, err := aggregate.LastUpdateDelta(ctx, s.store, s.key(mc.metric))
		if err != nil {
			return notify.Field{}, err
		}
		if d != nil {
			moves = append(moves, move{rank: d.Rank, label: mc.label, points: d.Points})
		}
	}

	name := "TOP / FLOP (dernière maj)"
	if len(moves) == 0 {
		return notify.Field{Name: name, Value: "Pas assez de data (encore)."}, nil
	}
	best, worst := moves[0], moves[0]
	for _, m := range moves[1:] {
		if m.rank > best.rank {
			best = m
		}
		if m.rank < worst.rank {
			worst = m
		}
	}
	return notify.Field{
		Name:  name,
		Value: fmt.Sprintf("TOP: %s (+%d places)\nFLOP: %s (%d places)", best.label, best.rank, worst.label, worst.rank),
	}, nil
}

func metricField(label string, points int64, rank int) notify.Field {
	return notify.Field{
		Name:   label,
		Value:  fmt.Sprintf("Points: %s\nRang: %s", signed(points), signedInt(rank)),
		Inline: true,
	}
}

// recapVibe keeps the recap's tone; keyed on the global points delta.
func recapVibe(deltaPoints int64) string {
	switch {
	case deltaPoints > 0:
		return "GG ✅ ça mine sec ⛏️😎"
	case deltaPoints < 0:
		return "aie 😬 ça pique, cerveau en feu 🧠🔥"
	default:
		return "RAS, on tient la ligne."
	}
}

func signed(v int64) string {
	if v > 0 {
		return "+" + groupDigits(v)
	}
	return groupDigits(v)
}

func signedInt(v int) string { return signed(int64(v)) }

// groupDigits inserts spaces as thousands separators.
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, " ")
	if neg {
		out = "-" + out
	}
	return out
}
