package ogame_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient_FetchHighscoreBlock(t *testing.T) {
	Convey("Given a universe API answering XML", t, func() {
		var gotQuery map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"category": r.URL.Query().Get("category"),
				"type":     r.URL.Query().Get("type"),
				"start":    r.URL.Query().Get("start"),
				"end":      r.URL.Query().Get("end"),
			}
			w.Write([]byte(`<highscore timestamp="1700000000" total="2">` +
				`<player id="101" position="1" score="5000"/>` +
				`<player id="102" position="2" score="4000"/>` +
				`</highscore>`))
		}))
		defer srv.Close()

		c := ogame.NewClient(srv.URL)

		Convey("When fetching one military window", func() {
			block, err := c.FetchHighscoreBlock(context.Background(), ogame.MetricMilitary, 0, 499)

			Convey("Then the query carries the type id and bounds", func() {
				So(err, ShouldBeNil)
				So(gotQuery["category"], ShouldEqual, "1")
				So(gotQuery["type"], ShouldEqual, "3")
				So(gotQuery["start"], ShouldEqual, "0")
				So(gotQuery["end"], ShouldEqual, "499")
			})

			Convey("And the block parses", func() {
				So(err, ShouldBeNil)
				So(block.APITimestamp, ShouldEqual, 1700000000)
				So(len(block.Entries), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a universe API answering wrapped JSON", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"highscore": {"@attributes": {"timestamp": "1700000001"},
				"player": [{"@attributes": {"id": "101", "position": "5", "score": "77"}}]}}`))
		}))
		defer srv.Close()

		c := ogame.NewClient(srv.URL)

		Convey("Then the JSON fallback strategy resolves the block", func() {
			block, err := c.FetchHighscoreBlock(context.Background(), ogame.MetricGlobal, 0, 499)
			So(err, ShouldBeNil)
			So(block.APITimestamp, ShouldEqual, 1700000001)
			So(block.Entries[0].Rank, ShouldEqual, 5)
		})
	})

	Convey("Given a server that keeps failing", t, func() {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := ogame.NewClient(srv.URL, ogame.WithRetries(3))

		Convey("Then the client retries and surfaces an API error", func() {
			_, err := c.FetchHighscoreBlock(context.Background(), ogame.MetricGlobal, 0, 499)
			So(errors.Is(err, ogame.ErrAPI), ShouldBeTrue)
			So(attempts, ShouldEqual, 3)
		})
	})

	Convey("Given a body no strategy understands", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("maintenance page"))
		}))
		defer srv.Close()

		c := ogame.NewClient(srv.URL)

		Convey("Then the fall-through is an API error", func() {
			_, err := c.FetchHighscoreBlock(context.Background(), ogame.MetricGlobal, 0, 499)
			So(errors.Is(err, ogame.ErrAPI), ShouldBeTrue)
		})
	})
}

func TestClient_FetchPlayers(t *testing.T) {
	Convey("Given a players endpoint answering XML", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/players.xml" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(`<players timestamp="1700000002">` +
				`<player id="101" name="Galoup"/>` +
				`<player id="102" name="Other" status="vi"/>` +
				`</players>`))
		}))
		defer srv.Close()

		c := ogame.NewClient(srv.URL)

		Convey("Then the directory parses", func() {
			ts, players, err := c.FetchPlayers(context.Background())
			So(err, ShouldBeNil)
			So(ts, ShouldEqual, 1700000002)
			So(len(players), ShouldEqual, 2)
			So(players[0].Name, ShouldEqual, "Galoup")
		})
	})

	Convey("Given a cancelled context", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
		}))
		defer srv.Close()

		c := ogame.NewClient(srv.URL, ogame.WithRetries(1))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then the fetch fails fast with an API error", func() {
			_, _, err := c.FetchPlayers(ctx)
			So(errors.Is(err, ogame.ErrAPI), ShouldBeTrue)
		})
	})
}
