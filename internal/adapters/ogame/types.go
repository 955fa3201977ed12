// Package ogame is the tolerant client for the public OGame HTTP API.
//
// Upstream responses drift between attribute-bearing XML, several nested JSON
// layouts, and occasionally JSON misreported as XML. Every resource is decoded
// by a fixed, explicitly ordered list of named strategies; the first strategy
// that applies wins, and a response no strategy can decode is an ErrAPI.
package ogame

import "fmt"

// Metric identifies one highscore category.
type Metric string

const (
	MetricGlobal            Metric = "global"
	MetricEconomy           Metric = "economy"
	MetricResearch          Metric = "research"
	MetricMilitary          Metric = "military"
	MetricMilitaryLost      Metric = "military_lost"
	MetricMilitaryBuilt     Metric = "military_built"
	MetricMilitaryDestroyed Metric = "military_destroyed"
	MetricHonor             Metric = "honor"
)

// Metrics returns all tracked categories in collection order.
func Metrics() []Metric {
	return []Metric{
		MetricGlobal,
		MetricEconomy,
		MetricResearch,
		MetricMilitary,
		MetricMilitaryLost,
		MetricMilitaryBuilt,
		MetricMilitaryDestroyed,
		MetricHonor,
	}
}

// HeadlineMetrics returns the categories used for recap summaries and
// TOP/FLOP alerts.
func HeadlineMetrics() []Metric {
	return []Metric{MetricGlobal, MetricEconomy, MetricResearch, MetricMilitary}
}

// TypeID maps the metric to the upstream highscore type parameter.
func (m Metric) TypeID() (int, error) {
	switch m {
	case MetricGlobal:
		return 0, nil
	case MetricEconomy:
		return 1, nil
	case MetricResearch:
		return 2, nil
	case MetricMilitary:
		return 3, nil
	case MetricMilitaryLost:
		return 4, nil
	case MetricMilitaryBuilt:
		return 5, nil
	case MetricMilitaryDestroyed:
		return 6, nil
	case MetricHonor:
		return 7, nil
	}
	return 0, fmt.Errorf("%w: unknown metric %q", ErrAPI, string(m))
}

// LobbyServer is one entry of the lobby server directory.
type LobbyServer struct {
	ServerID  string
	Name      string
	Community string
	Language  string
	Raw       map[string]any
}

// BaseURL returns the game API host for the server.
func (s LobbyServer) BaseURL() string {
	return "https://" + s.ServerID + ".ogame.gameforge.com"
}

// PlayerEntry is one row of the player directory.
type PlayerEntry struct {
	ID         int64
	Name       string
	Status     string
	AllianceID int64
}

// HighscoreEntry is one ranked row. Rank is positive; smaller is better.
type HighscoreEntry struct {
	PlayerID int64
	Rank     int
	Points   int64
}

// HighscoreBlock is one fetched window of the ranked list.
// Total is the reported list length, 0 when the upstream omits it.
type HighscoreBlock struct {
	APITimestamp int64
	Entries      []HighscoreEntry
	Total        int
}

// Find returns the entry for playerID, or false when the block misses it.
func (b HighscoreBlock) Find(playerID int64) (HighscoreEntry, bool) {
	for _, e := range b.Entries {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return HighscoreEntry{}, false
}
