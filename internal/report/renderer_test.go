package report_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/internal/adapters/repository"
	"github.com/Galoup/HARDSTATS/internal/report"
)

func TestRenderer_Render(t *testing.T) {
	Convey("Given a store holding two snapshots per headline metric", t, func() {
		ctx := context.Background()
		store, err := repository.New(filepath.Join(t.TempDir(), "report.sqlite"))
		So(err, ShouldBeNil)
		defer store.Close()

		base := repository.Key{ServerKey: "fr:s123-fr", PlayerID: 101}
		startTS := int64(1700000000)
		endTS := startTS + 86400
		fetched := time.Unix(endTS, 0).UTC()

		for _, m := range ogame.HeadlineMetrics() {
			key := base
			key.Metric = string(m)
			_, err := store.InsertSnapshotIfNew(ctx, key, fetched, startTS, 100000, 200)
			So(err, ShouldBeNil)
			_, err = store.InsertSnapshotIfNew(ctx, key, fetched, endTS, 101500, 180)
			So(err, ShouldBeNil)
		}

		r, err := report.NewRenderer(store, time.UTC)
		So(err, ShouldBeNil)

		in := report.Input{
			ServerID:     "s123-fr",
			UniverseName: "Andromeda",
			PlayerName:   "Galoup",
			Key:          base,
			ReportDate:   time.Unix(endTS, 0).UTC(),
			RecapStartTS: startTS,
			RecapEndTS:   endTS,
			Alerts: []repository.AlertLogEntry{
				{Category: "TOP:global", CreatedAt: time.Unix(endTS, 0).UTC(), APITimestamp: endTS},
			},
		}

		Convey("When rendering to a buffer", func() {
			var buf bytes.Buffer
			So(r.Render(ctx, &buf, in), ShouldBeNil)
			html := buf.String()

			So(html, ShouldContainSubstring, "Andromeda")
			So(html, ShouldContainSubstring, "Galoup")
			So(html, ShouldContainSubstring, "s123-fr")

			Convey("Then the headline cards show the deltas", func() {
				So(html, ShouldContainSubstring, "Global")
				So(html, ShouldContainSubstring, "+1 500")
				So(html, ShouldContainSubstring, "101 500")
			})

			Convey("Then the rank gains show up as TOP movers", func() {
				So(html, ShouldContainSubstring, "TOP")
				So(html, ShouldContainSubstring, "+20")
			})

			Convey("Then the sparkline polyline is drawn", func() {
				So(html, ShouldContainSubstring, "<svg")
				So(html, ShouldContainSubstring, "polyline")
			})

			Convey("Then the recent alerts are listed", func() {
				So(html, ShouldContainSubstring, "TOP:global")
			})

			Convey("Then the page honors the theme query parameter", func() {
				So(html, ShouldContainSubstring, "URLSearchParams")
				So(html, ShouldContainSubstring, "theme-neon")
			})
		})

		Convey("When rendering to a file", func() {
			path := filepath.Join(t.TempDir(), "out", "report_2023-11-15_s123-fr_Galoup.html")
			So(r.RenderFile(ctx, path, in), ShouldBeNil)

			found, err := report.FindLatestReport(filepath.Dir(path))
			So(err, ShouldBeNil)
			So(found, ShouldEqual, path)
		})
	})
}
