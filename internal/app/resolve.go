package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/internal/adapters/repository"
	"github.com/Galoup/HARDSTATS/pkg/logger"
)

// directoryMaxAge is how long the player directory cache stays fresh. The
// upstream players list updates daily; refreshing a little earlier keeps the
// cache from lagging two days behind when the poll lands just after the
// upstream refresh.
const directoryMaxAge = 20 * time.Hour

const suggestionCount = 5
const suggestionCutoff = 0.6

// ResolveServer turns the configured universe into (serverID, baseURL).
// A base URL override wins; its server id is derived from the host when it
// follows the <sid>.ogame.gameforge.com convention, else the configured id
// is kept.
func ResolveServer(community, serverID, baseURLOverride string) (string, string, error) {
	if baseURLOverride != "" {
		sid := serverIDFromBaseURL(baseURLOverride)
		if sid == "" {
			sid = serverID
		}
		if sid == "" {
			return "", "", fmt.Errorf("%w: base_url provided but server id could not be derived", ogame.ErrUniverseNotFound)
		}
		return strings.ToLower(sid), strings.TrimRight(baseURLOverride, "/"), nil
	}
	if serverID == "" {
		return "", "", fmt.Errorf("%w: universe.server_id is required (use list-universes to find it)", ogame.ErrUniverseNotFound)
	}
	sid := strings.ToLower(strings.TrimSpace(serverID))
	return sid, fmt.Sprintf("https://%s.ogame.gameforge.com", sid), nil
}

// serverIDFromBaseURL extracts s123-fr from https://s123-fr.ogame.gameforge.com.
func serverIDFromBaseURL(baseURL string) string {
	rest := baseURL
	if i := strings.Index(rest, "//"); i >= 0 {
		rest = rest[i+2:]
	}
	host := rest
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	if !strings.HasSuffix(host, ".ogame.gameforge.com") {
		return ""
	}
	return strings.SplitN(host, ".", 2)[0]
}

// ensurePlayersCache refreshes the player directory when it is missing or
// older than directoryMaxAge. force bypasses the freshness check.
func (s *Service) ensurePlayersCache(ctx context.Context, force bool) error {
	if !force {
		fetchedAt, ok, err := s.store.DirectoryFetchedAt(ctx, s.serverKey)
		if err != nil {
			return err
		}
		if ok && s.now().Sub(fetchedAt) < directoryMaxAge {
			return nil
		}
	}

	apiTS, players, err := s.api.FetchPlayers(ctx)
	if err != nil {
		return err
	}
	entries := make([]repository.DirectoryEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, repository.DirectoryEntry{
			PlayerID:   p.ID,
			Name:       p.Name,
			Status:     p.Status,
			AllianceID: p.AllianceID,
		})
	}
	if err := s.store.ReplacePlayersCache(ctx, s.serverKey, s.now(), apiTS, entries); err != nil {
		return err
	}
	s.log.Info("players cache refreshed",
		logger.Int("players", len(entries)),
		logger.Int64("api_timestamp", apiTS))
	return nil
}

// resolvePlayerID maps the configured player name to an id via the directory
// cache. A miss forces one refresh; a second miss fails with close-match
// suggestions when any exist.
func (s *Service) resolvePlayerID(ctx context.Context) (int64, error) {
	id, ok, err := s.store.PlayerIDByName(ctx, s.serverKey, s.cfg.PlayerName)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	if err := s.ensurePlayersCache(ctx, true); err != nil {
		return 0, err
	}
	id, ok, err = s.store.PlayerIDByName(ctx, s.serverKey, s.cfg.PlayerName)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	names, err := s.store.PlayerNames(ctx, s.serverKey)
	if err != nil {
		return 0, err
	}
	msg := fmt.Sprintf("player not found: %q", s.cfg.PlayerName)
	if suggestions := repository.CloseMatches(s.cfg.PlayerName, names, suggestionCount, suggestionCutoff); len(suggestions) > 0 {
		msg += fmt.Sprintf(". did you mean: %s?", strings.Join(suggestions, ", "))
	}
	return 0, fmt.Errorf("%w: %s", ogame.ErrPlayerNotFound, msg)
}

// SafePlayerName strips everything but letters, digits, dash and underscore
// for use in filenames.
func SafePlayerName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "player"
	}
	return b.String()
}
