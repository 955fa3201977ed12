package ogame

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const highscoreXMLBody = `<?xml version="1.0" encoding="UTF-8"?>
<highscore timestamp="1700000000" total="3">
  <player id="101" position="1" score="5000"/>
  <player id="102" position="2" score="4000"/>
  <player id="0" position="3" score="1"/>
  <player id="103" position="0" score="1"/>
</highscore>`

func TestParseHighscoreXML(t *testing.T) {
	Convey("Given a highscore XML document", t, func() {
		block, ok := parseHighscoreXML([]byte(highscoreXMLBody))

		Convey("Then the block parses with invalid rows dropped", func() {
			So(ok, ShouldBeTrue)
			So(block.APITimestamp, ShouldEqual, 1700000000)
			So(block.Total, ShouldEqual, 3)
			So(len(block.Entries), ShouldEqual, 2)
			So(block.Entries[0].PlayerID, ShouldEqual, 101)
			So(block.Entries[0].Rank, ShouldEqual, 1)
			So(block.Entries[0].Points, ShouldEqual, 5000)
		})
	})

	Convey("Given a JSON body", t, func() {
		_, ok := parseHighscoreXML([]byte(`{"highscore": {}}`))

		Convey("Then the XML strategy is not applicable", func() {
			So(ok, ShouldBeFalse)
		})
	})
}

func TestParseHighscoreJSON(t *testing.T) {
	Convey("Given a wrapped JSON document with @attributes rows", t, func() {
		body := `{"highscore": {"@attributes": {"timestamp": "1700000001", "total": "2"},
			"player": [
				{"@attributes": {"id": "101", "position": "7", "score": "123"}},
				{"@attributes": {"id": "0", "position": "8", "score": "1"}}
			]}}`
		block, ok := parseHighscoreJSONWrapped([]byte(body))

		Convey("Then the wrapped strategy applies", func() {
			So(ok, ShouldBeTrue)
			So(block.APITimestamp, ShouldEqual, 1700000001)
			So(block.Total, ShouldEqual, 2)
			So(len(block.Entries), ShouldEqual, 1)
			So(block.Entries[0].Rank, ShouldEqual, 7)
		})
	})

	Convey("Given a flat JSON document with alternate key names", t, func() {
		body := `{"timestamp": 1700000002, "entries": [
			{"playerId": 55, "rank": 12, "points": 900}
		]}`
		block, ok := parseHighscoreJSONFlat([]byte(body))

		Convey("Then numeric values and alias keys are accepted", func() {
			So(ok, ShouldBeTrue)
			So(block.APITimestamp, ShouldEqual, 1700000002)
			So(len(block.Entries), ShouldEqual, 1)
			So(block.Entries[0].PlayerID, ShouldEqual, 55)
			So(block.Entries[0].Rank, ShouldEqual, 12)
			So(block.Entries[0].Points, ShouldEqual, 900)
		})
	})

	Convey("Given a JSON object without any entry list", t, func() {
		_, ok := parseHighscoreJSONFlat([]byte(`{"timestamp": 1}`))

		Convey("Then the strategy is not applicable", func() {
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a top-level array or plain text", t, func() {
		Convey("Then the object strategies pass", func() {
			_, ok := parseHighscoreJSONFlat([]byte(`[1, 2, 3]`))
			So(ok, ShouldBeFalse)
			_, ok = parseHighscoreJSONFlat([]byte(`service unavailable`))
			So(ok, ShouldBeFalse)
		})
	})
}

func TestParsePlayers(t *testing.T) {
	Convey("Given a players XML document", t, func() {
		body := `<?xml version="1.0" encoding="UTF-8"?>
<players timestamp="1700000003">
  <player id="101" name="Galoup" status="" alliance="500"/>
  <player id="102" name="Other" status="vi"/>
  <player id="0" name="Ghost"/>
</players>`
		ts, players, ok := parsePlayersXML([]byte(body))

		Convey("Then the directory parses with invalid rows dropped", func() {
			So(ok, ShouldBeTrue)
			So(ts, ShouldEqual, 1700000003)
			So(len(players), ShouldEqual, 2)
			So(players[0].Name, ShouldEqual, "Galoup")
			So(players[0].AllianceID, ShouldEqual, 500)
			So(players[1].Status, ShouldEqual, "vi")
		})
	})

	Convey("Given a players JSON document", t, func() {
		body := `{"players": {"timestamp": "1700000004", "player": [
			{"@attributes": {"id": "101", "name": "Galoup", "alliance": "500"}},
			{"id": 102, "name": "Other", "status": "vi"}
		]}}`
		ts, players, ok := parsePlayersJSON([]byte(body))

		Convey("Then both attribute layouts parse", func() {
			So(ok, ShouldBeTrue)
			So(ts, ShouldEqual, 1700000004)
			So(len(players), ShouldEqual, 2)
			So(players[0].ID, ShouldEqual, 101)
			So(players[1].ID, ShouldEqual, 102)
		})
	})
}

func TestParserOrder(t *testing.T) {
	Convey("Given the declared strategy lists", t, func() {
		Convey("Then the highscore order is XML, wrapped JSON, flat JSON", func() {
			So(len(highscoreParsers), ShouldEqual, 3)
			So(highscoreParsers[0].name, ShouldEqual, "highscore-xml")
			So(highscoreParsers[1].name, ShouldEqual, "highscore-json-wrapped")
			So(highscoreParsers[2].name, ShouldEqual, "highscore-json-flat")
		})

		Convey("Then the players order is XML then JSON", func() {
			So(len(playersParsers), ShouldEqual, 2)
			So(playersParsers[0].name, ShouldEqual, "players-xml")
			So(playersParsers[1].name, ShouldEqual, "players-json")
		})
	})
}
