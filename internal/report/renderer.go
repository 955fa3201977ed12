// Package report renders the daily HTML report and publishes it to a static
// site directory.
package report

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/internal/adapters/repository"
	"github.com/Galoup/HARDSTATS/internal/domain/aggregate"
	"github.com/Galoup/HARDSTATS/pkg/logger"
)

const (
	sparkWidth  = 220
	sparkHeight = 48
	sparkPoints = 40
	moversLimit = 6
)

var metricLabels = map[ogame.Metric]string{
	ogame.MetricGlobal:            "🌍 Global",
	ogame.MetricEconomy:           "💰 Éco",
	ogame.MetricResearch:          "🧠 Rech",
	ogame.MetricMilitary:          "⚔️ Mili",
	ogame.MetricMilitaryBuilt:     "Built",
	ogame.MetricMilitaryDestroyed: "Destroyed",
	ogame.MetricMilitaryLost:      "Lost",
	ogame.MetricHonor:             "Honor",
}

// Card is one metric panel of the report.
type Card struct {
	Metric     ogame.Metric
	Label      string
	Last       *repository.Snapshot
	DeltaLast  *aggregate.Delta
	Delta24h   *aggregate.Delta
	DeltaDaily *aggregate.Delta
	SparkSVG   template.HTML
}

// Mover is one row of the top/flop table, ordered by rank movement size.
type Mover struct {
	Metric      ogame.Metric
	Label       string
	RankDelta   int
	PointsDelta int64
	Kind        string
}

// Input identifies the player and recap window a report covers.
type Input struct {
	ServerID      string
	UniverseName  string
	PlayerName    string
	Key           repository.Key
	ReportDate    time.Time
	RecapStartTS  int64
	RecapEndTS    int64
	PublicBaseURL string
	Alerts        []repository.AlertLogEntry
}

type pageData struct {
	ServerID      string
	UniverseName  string
	PlayerName    string
	ReportDate    string
	SnapshotISO   string
	SnapshotHHMM  string
	PeriodStart   string
	PeriodEnd     string
	Cards         []Card
	Movers        []Mover
	Alerts        []repository.AlertLogEntry
	PublicBaseURL string
}

// Renderer builds report pages from stored snapshots.
type Renderer struct {
	store repository.Store
	loc   *time.Location
	log   logger.Logger
	tpl   *template.Template
}

// NewRenderer parses the embedded template once. loc controls the timestamps
// shown on the page.
func NewRenderer(store repository.Store, loc *time.Location, opts ...RendererOption) (*Renderer, error) {
	tpl, err := template.New("report").Funcs(template.FuncMap{
		"fmtInt":       fmtInt,
		"fmtSigned":    fmtSigned,
		"fmtSignedInt": func(n int) string { return fmtSigned(int64(n)) },
		"localTime": func(t time.Time) string { return t.In(loc).Format("02/01/2006 15:04") },
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	r := &Renderer{store: store, loc: loc, log: logger.Nop(), tpl: tpl}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Render writes the report HTML for in to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, in Input) error {
	var (
		cards       []Card
		latestAPITS int64
	)
	for _, m := range ogame.Metrics() {
		key := in.Key
		key.Metric = string(m)

		last, dLast, err := aggregate.LastUpdateDelta(ctx, r.store, key)
		if err != nil {
			return err
		}
		_, d24h, err := aggregate.Rolling24hDelta(ctx, r.store, key)
		if err != nil {
			return err
		}
		_, _, dDaily, err := aggregate.DailyRecapDelta(ctx, r.store, key, in.RecapStartTS, in.RecapEndTS)
		if err != nil {
			return err
		}

		seriesEnd := in.RecapEndTS
		if last != nil {
			if last.APITimestamp > latestAPITS {
				latestAPITS = last.APITimestamp
			}
			seriesEnd = last.APITimestamp
		}
		series, err := aggregate.WeeklySeries(ctx, r.store, key, seriesEnd)
		if err != nil {
			return err
		}
		points := aggregate.PointsOf(series)
		if len(points) > sparkPoints {
			points = points[len(points)-sparkPoints:]
		}

		cards = append(cards, Card{
			Metric:     m,
			Label:      metricLabels[m],
			Last:       last,
			DeltaLast:  dLast,
			Delta24h:   d24h,
			DeltaDaily: dDaily,
			SparkSVG:   sparklineSVG(points, sparkWidth, sparkHeight),
		})
	}

	snapshot := time.Date(in.ReportDate.Year(), in.ReportDate.Month(), in.ReportDate.Day(), 0, 0, 0, 0, r.loc)
	if latestAPITS > 0 {
		snapshot = time.Unix(latestAPITS, 0).In(r.loc)
	}

	data := pageData{
		ServerID:      in.ServerID,
		UniverseName:  in.UniverseName,
		PlayerName:    in.PlayerName,
		ReportDate:    in.ReportDate.Format("2006-01-02"),
		SnapshotISO:   snapshot.UTC().Format("2006-01-02T15:04:05Z"),
		SnapshotHHMM:  snapshot.Format("15:04"),
		PeriodStart:   time.Unix(in.RecapStartTS, 0).In(r.loc).Format("02/01/2006 15:04"),
		PeriodEnd:     time.Unix(in.RecapEndTS, 0).In(r.loc).Format("02/01/2006 15:04"),
		Cards:         cards,
		Movers:        movers(cards),
		Alerts:        in.Alerts,
		PublicBaseURL: in.PublicBaseURL,
	}
	return r.tpl.Execute(w, data)
}

// RenderFile renders to path, creating parent directories as needed.
func (r *Renderer) RenderFile(ctx context.Context, path string, in Input) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := r.Render(ctx, f, in); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	r.log.Info("report rendered", logger.String("path", path))
	return nil
}

// movers picks the headline metrics with any movement since the previous
// update, largest rank swing first.
func movers(cards []Card) []Mover {
	byMetric := make(map[ogame.Metric]Card, len(cards))
	for _, c := range cards {
		byMetric[c.Metric] = c
	}

	var out []Mover
	for _, m := range ogame.HeadlineMetrics() {
		c, ok := byMetric[m]
		if !ok || c.DeltaLast == nil {
			continue
		}
		d := c.DeltaLast
		if d.Rank == 0 && d.Points == 0 {
			continue
		}
		kind := "MOVE"
		switch {
		case d.Rank > 0:
			kind = "TOP"
		case d.Rank < 0:
			kind = "FLOP"
		}
		out = append(out, Mover{
			Metric:      m,
			Label:       metricLabels[m],
			RankDelta:   d.Rank,
			PointsDelta: d.Points,
			Kind:        kind,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return abs(out[i].RankDelta) > abs(out[j].RankDelta)
	})
	if len(out) > moversLimit {
		out = out[:moversLimit]
	}
	return out
}

// sparklineSVG draws a polyline over the series, normalized to the box.
// Fewer than two points yields nothing to draw.
func sparklineSVG(points []int64, w, h int) template.HTML {
	if len(points) < 2 {
		return ""
	}
	mn, mx := points[0], points[0]
	for _, p := range points[1:] {
		if p < mn {
			mn = p
		}
		if p > mx {
			mx = p
		}
	}
	if mx == mn {
		mx = mn + 1
	}

	var b strings.Builder
	for i, v := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		x := float64(i)/float64(len(points)-1)*float64(w-2) + 1
		t := float64(v-mn) / float64(mx-mn)
		y := float64(h-2) - t*float64(h-2) + 1
		fmt.Fprintf(&b, "%.2f,%.2f", x, y)
	}
	svg := fmt.Sprintf(
		"<svg viewBox='0 0 %d %d' width='%d' height='%d' xmlns='http://www.w3.org/2000/svg' aria-hidden='true'>"+
			"<polyline fill='none' stroke='currentColor' stroke-width='2' points='%s' /></svg>",
		w, h, w, h, b.String())
	return template.HTML(svg)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func fmtInt(n int64) string {
	return group(n)
}

func fmtSigned(n int64) string {
	if n > 0 {
		return "+" + group(n)
	}
	return group(n)
}

// group inserts spaces as thousands separators.
func group(n int64) string {
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
