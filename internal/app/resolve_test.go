package service_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	service "github.com/Galoup/HARDSTATS/internal/app"
)

func TestResolveServer(t *testing.T) {
	Convey("Given a configured universe", t, func() {
		Convey("When only the server id is set", func() {
			sid, base, err := service.ResolveServer("fr", "s123-fr", "")
			So(err, ShouldBeNil)
			So(sid, ShouldEqual, "s123-fr")
			So(base, ShouldEqual, "https://s123-fr.ogame.gameforge.com")
		})

		Convey("When the server id carries stray case and spacing", func() {
			sid, base, err := service.ResolveServer("fr", " S123-FR ", "")
			So(err, ShouldBeNil)
			So(sid, ShouldEqual, "s123-fr")
			So(base, ShouldEqual, "https://s123-fr.ogame.gameforge.com")
		})

		Convey("When a base URL override follows the gameforge convention", func() {
			sid, base, err := service.ResolveServer("fr", "", "https://s456-en.ogame.gameforge.com/")
			So(err, ShouldBeNil)
			So(sid, ShouldEqual, "s456-en")
			So(base, ShouldEqual, "https://s456-en.ogame.gameforge.com")
		})

		Convey("When an off-convention override comes with a server id", func() {
			sid, base, err := service.ResolveServer("fr", "s123-fr", "https://mirror.example.org/ogame")
			So(err, ShouldBeNil)
			So(sid, ShouldEqual, "s123-fr")
			So(base, ShouldEqual, "https://mirror.example.org/ogame")
		})

		Convey("When an off-convention override has no server id to fall back on", func() {
			_, _, err := service.ResolveServer("fr", "", "https://mirror.example.org/ogame")
			So(errors.Is(err, ogame.ErrUniverseNotFound), ShouldBeTrue)
		})

		Convey("When nothing identifies the universe", func() {
			_, _, err := service.ResolveServer("fr", "", "")
			So(errors.Is(err, ogame.ErrUniverseNotFound), ShouldBeTrue)
		})
	})
}

func TestSafePlayerName(t *testing.T) {
	Convey("Given player names headed for filenames", t, func() {
		So(service.SafePlayerName("Galoup"), ShouldEqual, "Galoup")
		So(service.SafePlayerName("Le Joueur_42"), ShouldEqual, "LeJoueur_42")
		So(service.SafePlayerName("général!"), ShouldEqual, "gnral")
		So(service.SafePlayerName("!!!"), ShouldEqual, "player")
	})
}
