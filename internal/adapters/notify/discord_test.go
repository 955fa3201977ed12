package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Galoup/HARDSTATS/internal/adapters/notify"
)

func TestDiscordWebhook_Send(t *testing.T) {
	Convey("Given a webhook endpoint", t, func() {
		ctx := context.Background()

		var (
			gotContentType string
			gotBody        []byte
			calls          int
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			gotContentType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		embed := notify.Embed{
			Title: "🧾 OGame fr • Andromeda • Récap",
			Color: 0x2E8B57,
			Fields: []notify.Field{
				{Name: "🌍 Global", Value: "+1 500 pts", Inline: true},
			},
			Footer: &notify.Footer{Text: "Public API only"},
		}

		Convey("When sending a bare embed", func() {
			sink := notify.NewDiscordWebhook(srv.URL, notify.WithUsername("HARDSTATS"))
			So(sink.Send(ctx, embed, nil), ShouldBeNil)

			So(calls, ShouldEqual, 1)
			So(gotContentType, ShouldEqual, "application/json")

			var p struct {
				Username string         `json:"username"`
				Embeds   []notify.Embed `json:"embeds"`
			}
			So(json.Unmarshal(gotBody, &p), ShouldBeNil)
			So(p.Username, ShouldEqual, "HARDSTATS")
			So(p.Embeds, ShouldHaveLength, 1)
			So(p.Embeds[0].Title, ShouldEqual, embed.Title)
			So(p.Embeds[0].Fields[0].Value, ShouldEqual, "+1 500 pts")
		})

		Convey("When sending with an attachment", func() {
			sink := notify.NewDiscordWebhook(srv.URL)
			att := &notify.Attachment{
				Filename:    "report_2024-03-11_s123-fr_Galoup.html",
				ContentType: "text/html",
				Data:        []byte("<html>body</html>"),
			}
			So(sink.Send(ctx, embed, att), ShouldBeNil)

			So(calls, ShouldEqual, 1)
			So(gotContentType, ShouldStartWith, "multipart/form-data")
			body := string(gotBody)
			So(body, ShouldContainSubstring, `name="payload_json"`)
			So(body, ShouldContainSubstring, `name="files[0]"`)
			So(body, ShouldContainSubstring, att.Filename)
			So(body, ShouldContainSubstring, "<html>body</html>")
		})

		Convey("When the endpoint rejects the payload", func() {
			reject := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer reject.Close()

			sink := notify.NewDiscordWebhook(reject.URL)
			err := sink.Send(ctx, embed, nil)
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "429"), ShouldBeTrue)
		})

		Convey("When the webhook URL is empty, dry-run never touches the network", func() {
			sink := notify.NewDiscordWebhook("")
			So(sink.Send(ctx, embed, &notify.Attachment{Filename: "r.html", Data: []byte("x")}), ShouldBeNil)
			So(calls, ShouldEqual, 0)
		})

		Convey("When dry-run is forced, a configured URL is still not called", func() {
			sink := notify.NewDiscordWebhook(srv.URL, notify.WithDryRun(true))
			So(sink.Send(ctx, embed, nil), ShouldBeNil)
			So(calls, ShouldEqual, 0)
		})
	})
}
