package ogame

import (
	"encoding/json"
	"encoding/xml"
	"strconv"
	"strings"
)

// Parse strategies.
//
// Each strategy either produces a typed result or reports "not applicable";
// the declared order is the contract and must not be reshuffled. Never probe
// for incidental keys outside a strategy.

type highscoreParser struct {
	name  string
	parse func(body []byte) (HighscoreBlock, bool)
}

var highscoreParsers = []highscoreParser{
	{name: "highscore-xml", parse: parseHighscoreXML},
	{name: "highscore-json-wrapped", parse: parseHighscoreJSONWrapped},
	{name: "highscore-json-flat", parse: parseHighscoreJSONFlat},
}

type playersParser struct {
	name  string
	parse func(body []byte) (int64, []PlayerEntry, bool)
}

var playersParsers = []playersParser{
	{name: "players-xml", parse: parsePlayersXML},
	{name: "players-json", parse: parsePlayersJSON},
}

type highscoreXML struct {
	XMLName   xml.Name `xml:"highscore"`
	Timestamp string   `xml:"timestamp,attr"`
	Total     string   `xml:"total,attr"`
	Players   []struct {
		ID       string `xml:"id,attr"`
		Position string `xml:"position,attr"`
		Score    string `xml:"score,attr"`
	} `xml:"player"`
}

func parseHighscoreXML(body []byte) (HighscoreBlock, bool) {
	var doc highscoreXML
	if err := xml.Unmarshal(body, &doc); err != nil {
		return HighscoreBlock{}, false
	}

	block := HighscoreBlock{
		APITimestamp: atoi64(doc.Timestamp),
		Total:        int(atoi64(doc.Total)),
	}
	for _, p := range doc.Players {
		e := HighscoreEntry{
			PlayerID: atoi64(p.ID),
			Rank:     int(atoi64(p.Position)),
			Points:   atoi64(p.Score),
		}
		// rank 0 or id 0 marks an invalid row
		if e.PlayerID != 0 && e.Rank != 0 {
			block.Entries = append(block.Entries, e)
		}
	}
	return block, true
}

func parseHighscoreJSONWrapped(body []byte) (HighscoreBlock, bool) {
	obj, ok := decodeJSONObject(body)
	if !ok {
		return HighscoreBlock{}, false
	}
	inner, ok := obj["highscore"].(map[string]any)
	if !ok {
		return HighscoreBlock{}, false
	}
	return highscoreFromObject(inner)
}

func parseHighscoreJSONFlat(body []byte) (HighscoreBlock, bool) {
	obj, ok := decodeJSONObject(body)
	if !ok {
		return HighscoreBlock{}, false
	}
	return highscoreFromObject(obj)
}

// highscoreFromObject converts one of the known JSON layouts: the entry list
// may live under players, player, data or entries, and row attributes may be
// nested under "@attributes" or inline; id/playerId, position/rank and
// score/points are all accepted.
func highscoreFromObject(obj map[string]any) (HighscoreBlock, bool) {
	attrs, _ := obj["@attributes"].(map[string]any)

	ts := anyInt64(obj["timestamp"])
	if ts == 0 {
		ts = anyInt64(obj["apiTimestamp"])
	}
	if ts == 0 && attrs != nil {
		ts = anyInt64(attrs["timestamp"])
	}

	var rows []any
	found := false
	for _, k := range []string{"players", "player", "data", "entries"} {
		if v, ok := obj[k]; ok {
			rows, _ = v.([]any)
			found = true
			break
		}
	}
	if !found {
		return HighscoreBlock{}, false
	}

	block := HighscoreBlock{APITimestamp: ts}
	for _, raw := range rows {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if nested, ok := item["@attributes"].(map[string]any); ok {
			item = nested
		}
		e := HighscoreEntry{
			PlayerID: firstInt64(item, "id", "playerId"),
			Rank:     int(firstInt64(item, "position", "rank")),
			Points:   firstInt64(item, "score", "points"),
		}
		if e.PlayerID != 0 && e.Rank != 0 {
			block.Entries = append(block.Entries, e)
		}
	}

	total := anyInt64(obj["total"])
	if total == 0 && attrs != nil {
		total = anyInt64(attrs["total"])
	}
	block.Total = int(total)

	return block, true
}

type playersXML struct {
	XMLName   xml.Name `xml:"players"`
	Timestamp string   `xml:"timestamp,attr"`
	Players   []struct {
		ID       string `xml:"id,attr"`
		Name     string `xml:"name,attr"`
		Status   string `xml:"status,attr"`
		Alliance string `xml:"alliance,attr"`
	} `xml:"player"`
}

func parsePlayersXML(body []byte) (int64, []PlayerEntry, bool) {
	var doc playersXML
	if err := xml.Unmarshal(body, &doc); err != nil {
		return 0, nil, false
	}

	out := make([]PlayerEntry, 0, len(doc.Players))
	for _, p := range doc.Players {
		e := PlayerEntry{
			ID:         atoi64(p.ID),
			Name:       p.Name,
			Status:     p.Status,
			AllianceID: atoi64(p.Alliance),
		}
		if e.ID != 0 && e.Name != "" {
			out = append(out, e)
		}
	}
	return atoi64(doc.Timestamp), out, true
}

func parsePlayersJSON(body []byte) (int64, []PlayerEntry, bool) {
	obj, ok := decodeJSONObject(body)
	if !ok {
		return 0, nil, false
	}
	if inner, ok := obj["players"].(map[string]any); ok {
		obj = inner
	}

	var rows []any
	found := false
	for _, k := range []string{"players", "player"} {
		if v, ok := obj[k]; ok {
			rows, _ = v.([]any)
			found = true
			break
		}
	}
	if !found {
		return 0, nil, false
	}

	ts := anyInt64(obj["timestamp"])
	if attrs, ok := obj["@attributes"].(map[string]any); ok && ts == 0 {
		ts = anyInt64(attrs["timestamp"])
	}

	var out []PlayerEntry
	for _, raw := range rows {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if nested, ok := item["@attributes"].(map[string]any); ok {
			item = nested
		}
		e := PlayerEntry{
			ID:         firstInt64(item, "id", "playerId"),
			Name:       anyString(item["name"]),
			Status:     anyString(item["status"]),
			AllianceID: firstInt64(item, "alliance", "allianceId"),
		}
		if e.ID != 0 && e.Name != "" {
			out = append(out, e)
		}
	}
	return ts, out, true
}

// decodeJSONObject strictly decodes body into a JSON object. Plain text or a
// top-level array is "not applicable" for the object-shaped strategies.
func decodeJSONObject(body []byte) (map[string]any, bool) {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func atoi64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// anyInt64 coerces the value types the upstream JSON mixes freely.
func anyInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		return atoi64(t)
	case json.Number:
		n, _ := t.Int64()
		return n
	case int:
		return int64(t)
	case int64:
		return t
	}
	return 0
}

func firstInt64(obj map[string]any, keys ...string) int64 {
	for _, k := range keys {
		if n := anyInt64(obj[k]); n != 0 {
			return n
		}
	}
	return 0
}

func anyString(v any) string {
	s, _ := v.(string)
	return s
}
