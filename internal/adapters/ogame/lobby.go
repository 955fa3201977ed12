package ogame

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Galoup/HARDSTATS/pkg/logger"
)

// LobbyServersURL lists every universe across communities.
const LobbyServersURL = "https://lobby.ogame.gameforge.com/api/servers"

const lobbyTimeout = 20 * time.Second

var serverIDRe = regexp.MustCompile(`(?i)^s\d+-[a-z]{2}$`)

// LobbyClient fetches the server directory. Used once per startup/config
// resolution; not performance-sensitive.
type LobbyClient struct {
	getter
	serversURL string
}

// NewLobbyClient creates a LobbyClient.
func NewLobbyClient(opts ...Option) *LobbyClient {
	c := &LobbyClient{
		getter: getter{
			httpClient:  &http.Client{Timeout: lobbyTimeout},
			userAgent:   defaultUserAgent,
			retries:     defaultRetries,
			backoffBase: defaultBackoffBase,
			log:         logger.Nop(),
		},
		serversURL: LobbyServersURL,
	}
	for _, opt := range opts {
		opt(&c.getter)
	}
	return c
}

// ListServers fetches the full server directory, sorted by server id.
// Rows whose server id cannot be derived are skipped, not fatal: the lobby
// schema has changed shape several times and usually keeps enough fields to
// reconstruct "s<number>-<language>".
func (c *LobbyClient) ListServers(ctx context.Context) ([]LobbyServer, error) {
	body, err := c.get(ctx, "lobby", c.serversURL)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: unexpected lobby payload: %v", ErrAPI, err)
	}

	out := make([]LobbyServer, 0, len(items))
	for _, item := range items {
		serverID := deriveServerID(item)
		if serverID == "" {
			continue
		}

		name := strings.TrimSpace(firstString(item, "name", "serverName"))
		if name == "" {
			name = serverID
		}
		community := strings.ToLower(strings.TrimSpace(firstString(item, "community", "country", "locale")))
		language := strings.ToLower(strings.TrimSpace(firstString(item, "language", "lang")))
		if community == "" {
			community = language
		}

		out = append(out, LobbyServer{
			ServerID:  serverID,
			Name:      name,
			Community: community,
			Language:  language,
			Raw:       item,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ServerID < out[j].ServerID })
	return out, nil
}

// ListServersForCommunity filters the directory down to one community code.
func (c *LobbyClient) ListServersForCommunity(ctx context.Context, community string) ([]LobbyServer, error) {
	code := strings.ToLower(strings.TrimSpace(community))
	servers, err := c.ListServers(ctx)
	if err != nil {
		return nil, err
	}

	var out []LobbyServer
	for _, s := range servers {
		if matchesCommunity(s, code) {
			out = append(out, s)
		}
	}
	return out, nil
}

// UniverseName resolves the display name and raw lobby row for one server id.
// Falls back to the server id itself when the lobby does not know it.
func (c *LobbyClient) UniverseName(ctx context.Context, community, serverID string) (string, map[string]any, error) {
	servers, err := c.ListServersForCommunity(ctx, community)
	if err != nil {
		return "", nil, err
	}
	for _, s := range servers {
		if strings.EqualFold(s.ServerID, serverID) {
			return s.Name, s.Raw, nil
		}
	}
	return serverID, nil, nil
}

func matchesCommunity(s LobbyServer, code string) bool {
	if strings.HasSuffix(s.ServerID, "-"+code) {
		return true
	}
	if s.Community == code || s.Language == code {
		return true
	}
	// tolerate schema changes: search raw values
	blob, err := json.Marshal(s.Raw)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(blob)), `"`+code+`"`)
}

// deriveServerID reconstructs the canonical "s<number>-<language>" id from
// whichever fields this lobby schema generation carries.
func deriveServerID(item map[string]any) string {
	id := strings.TrimSpace(firstString(item, "serverId", "server_id"))

	if id == "" {
		number := anyInt64(item["number"])
		language := strings.ToLower(strings.TrimSpace(firstString(item, "language", "lang")))
		if number != 0 && language != "" {
			id = fmt.Sprintf("s%d-%s", number, language)
		}
	}

	if id == "" {
		for _, k := range []string{"id", "server"} {
			if v := strings.TrimSpace(anyString(item[k])); serverIDRe.MatchString(v) {
				id = v
				break
			}
		}
	}

	if !serverIDRe.MatchString(id) {
		return ""
	}
	return strings.ToLower(id)
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := anyString(obj[k]); s != "" {
			return s
		}
	}
	return ""
}
