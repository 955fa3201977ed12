package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Galoup/HARDSTATS/internal/adapters/notify"
	"github.com/Galoup/HARDSTATS/internal/adapters/repository"
	service "github.com/Galoup/HARDSTATS/internal/app"
	"github.com/Galoup/HARDSTATS/internal/config"
)

// recordingSink collects every dispatched embed instead of delivering it.
type recordingSink struct {
	sent        []notify.Embed
	attachments []*notify.Attachment
}

func (r *recordingSink) Send(ctx context.Context, embed notify.Embed, attachment *notify.Attachment) error {
	r.sent = append(r.sent, embed)
	r.attachments = append(r.attachments, attachment)
	return nil
}

func TestService_RecapIfDue(t *testing.T) {
	Convey("Given a service with a frozen clock", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		store, err := repository.New(filepath.Join(dir, "hardstats.sqlite"))
		So(err, ShouldBeNil)
		Reset(func() { _ = store.Close() })

		cfg := config.New()
		cfg.PlayerName = "Galoup"
		cfg.Universe.ServerID = "s123-fr"
		cfg.Output.OutDir = filepath.Join(dir, "out")
		cfg.Output.PublishDir = filepath.Join(dir, "docs")

		now := time.Date(2024, 3, 10, 21, 0, 30, 0, cfg.Location())
		sink := &recordingSink{}
		svc, err := service.New(cfg, store,
			service.WithSink(sink),
			service.WithClock(func() time.Time { return now }))
		So(err, ShouldBeNil)

		Convey("When the recap triggers twice on the same day", func() {
			So(svc.RecapIfDue(ctx), ShouldBeNil)
			now = now.Add(time.Minute)
			So(svc.RecapIfDue(ctx), ShouldBeNil)

			Convey("Then only the first trigger dispatches", func() {
				So(len(sink.sent), ShouldEqual, 1)
			})

			Convey("Then the job state pins today's date", func() {
				st, found, err := store.JobState(ctx, "recap")
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(st["last_date"], ShouldEqual, "2024-03-10")
			})

			Convey("Then the report rides along as an attachment", func() {
				So(sink.attachments[0], ShouldNotBeNil)
				So(sink.attachments[0].Filename, ShouldContainSubstring, "report_2024-03-10")
			})
		})

		Convey("When the next day rolls over", func() {
			So(svc.RecapIfDue(ctx), ShouldBeNil)
			now = now.AddDate(0, 0, 1)
			So(svc.RecapIfDue(ctx), ShouldBeNil)

			Convey("Then each day posts its own recap", func() {
				So(len(sink.sent), ShouldEqual, 2)
			})
		})
	})
}
