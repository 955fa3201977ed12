package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Galoup/HARDSTATS/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		Convey("Then it should have sensible defaults", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Community, ShouldEqual, "fr")
			So(cfg.Timezone, ShouldEqual, "Europe/Paris")
			So(cfg.Schedule.CollectMinutes, ShouldEqual, 60)
			So(cfg.Schedule.RecapTime, ShouldEqual, "21:00")
			So(cfg.Alerts.CooldownMinutes, ShouldEqual, 180)
			So(cfg.Alerts.Thresholds.RankJump, ShouldEqual, 25)
			So(cfg.Alerts.Thresholds.RankDrop, ShouldEqual, 25)
			So(cfg.Alerts.Thresholds.PctChange24h, ShouldEqual, 0.006)
			So(cfg.Alerts.Thresholds.LostSpikeFactor, ShouldEqual, 2.5)
			So(cfg.Discord.DryRun, ShouldBeTrue)
		})
	})
}

func TestConfig_Load(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		yaml := `
player_name: Galoup
community: fr
universe:
  server_id: s123-fr
schedule:
  collect_minutes: 30
  recap_time: "20:30"
alerts:
  enabled: true
  cooldown_minutes: 90
`
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			cfg, err := config.Load(path)

			Convey("Then file values override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.PlayerName, ShouldEqual, "Galoup")
				So(cfg.Universe.ServerID, ShouldEqual, "s123-fr")
				So(cfg.Schedule.CollectMinutes, ShouldEqual, 30)
				So(cfg.Schedule.RecapTime, ShouldEqual, "20:30")
				So(cfg.Alerts.Enabled, ShouldBeTrue)
				So(cfg.Alerts.CooldownMinutes, ShouldEqual, 90)
			})

			Convey("And untouched keys keep their defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Timezone, ShouldEqual, "Europe/Paris")
				So(cfg.Output.LatestFilename, ShouldEqual, "latest.html")
			})
		})

		Convey("When environment variables are set on top", func() {
			_ = os.Setenv("HARDSTATS_PLAYER_NAME", "SomeoneElse")
			_ = os.Setenv("HARDSTATS_SCHEDULE__COLLECT_MINUTES", "15")
			defer func() {
				_ = os.Unsetenv("HARDSTATS_PLAYER_NAME")
				_ = os.Unsetenv("HARDSTATS_SCHEDULE__COLLECT_MINUTES")
			}()

			cfg, err := config.Load(path)

			Convey("Then env wins over the file", func() {
				So(err, ShouldBeNil)
				So(cfg.PlayerName, ShouldEqual, "SomeoneElse")
				So(cfg.Schedule.CollectMinutes, ShouldEqual, 15)
			})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	Convey("Given a config with the required fields", t, func() {
		valid := func() *config.Config {
			cfg := config.New()
			cfg.PlayerName = "Galoup"
			cfg.Universe.ServerID = "s123-fr"
			return cfg
		}

		Convey("Then it validates", func() {
			So(valid().Validate(), ShouldBeNil)
		})

		Convey("When player_name is missing", func() {
			cfg := valid()
			cfg.PlayerName = ""
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When collect_minutes is out of range", func() {
			cfg := valid()
			cfg.Schedule.CollectMinutes = 0
			So(cfg.Validate(), ShouldNotBeNil)

			cfg.Schedule.CollectMinutes = 1441
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When recap_time is malformed", func() {
			cfg := valid()
			cfg.Schedule.RecapTime = "25:00"
			So(cfg.Validate(), ShouldNotBeNil)

			cfg.Schedule.RecapTime = "21h00"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When the timezone is unknown", func() {
			cfg := valid()
			cfg.Timezone = "Mars/Olympus"
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}

func TestConfig_ParseHHMM(t *testing.T) {
	Convey("Given wall-clock strings", t, func() {
		Convey("Then valid HH:MM parses", func() {
			h, m, err := config.ParseHHMM("21:05")
			So(err, ShouldBeNil)
			So(h, ShouldEqual, 21)
			So(m, ShouldEqual, 5)
		})

		Convey("Then invalid strings fail", func() {
			for _, s := range []string{"", "21", "21:", ":05", "24:00", "12:60", "ab:cd"} {
				_, _, err := config.ParseHHMM(s)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestConfig_WriteExample(t *testing.T) {
	Convey("Given a target path", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")

		Convey("When writing the example config", func() {
			got, err := config.WriteExample(path, false)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, path)

			Convey("Then the file loads once the blanks are filled", func() {
				_ = os.Setenv("HARDSTATS_PLAYER_NAME", "Galoup")
				_ = os.Setenv("HARDSTATS_UNIVERSE__SERVER_ID", "s123-fr")
				defer func() {
					_ = os.Unsetenv("HARDSTATS_PLAYER_NAME")
					_ = os.Unsetenv("HARDSTATS_UNIVERSE__SERVER_ID")
				}()

				cfg, err := config.Load(path)
				So(err, ShouldBeNil)
				So(cfg.PlayerName, ShouldEqual, "Galoup")
				So(cfg.Universe.ServerID, ShouldEqual, "s123-fr")
			})

			Convey("And writing again without force is a no-op", func() {
				before, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				_, err = config.WriteExample(path, false)
				So(err, ShouldBeNil)
				after, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(after), ShouldEqual, string(before))
			})
		})
	})
}
