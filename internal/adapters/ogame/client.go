package ogame

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Galoup/HARDSTATS/pkg/logger"
	"github.com/Galoup/HARDSTATS/pkg/metrics"
)

// Defaults for outbound calls.
const (
	defaultTimeout     = 25 * time.Second
	defaultRetries     = 3
	defaultBackoffBase = 600 * time.Millisecond
	defaultUserAgent   = "HARDSTATS-OGame/0.1 (public-api-readonly)"

	highscoreCategoryPlayer = "1"
)

// getter issues bounded, retried GETs. Shared by the game and lobby clients.
type getter struct {
	httpClient  *http.Client
	userAgent   string
	retries     int
	backoffBase time.Duration
	log         logger.Logger
	metrics     *metrics.Manager
}

// get fetches url with up to retries attempts and exponential backoff between
// them. Every failure mode after the last attempt becomes an ErrAPI.
func (g *getter) get(ctx context.Context, resource, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < g.retries; attempt++ {
		if attempt > 0 {
			wait := g.backoffBase * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: GET %s: %v", ErrAPI, rawURL, ctx.Err())
			case <-time.After(wait):
			}
		}
		if g.metrics != nil {
			g.metrics.RecordFetchAttempt(resource)
		}

		body, err := g.getOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		g.log.Warn("fetch attempt failed",
			logger.String("resource", resource),
			logger.Int("attempt", attempt+1),
			logger.Error(err))
	}

	if g.metrics != nil {
		g.metrics.RecordFetchFailure(resource)
	}
	return nil, fmt.Errorf("%w: GET %s: %v", ErrAPI, rawURL, lastErr)
}

func (g *getter) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

// Client talks to one universe's public API.
type Client struct {
	getter
	apiBase string
}

// NewClient creates a Client for the universe at baseURL,
// e.g. https://s123-fr.ogame.gameforge.com.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		getter: getter{
			httpClient:  &http.Client{Timeout: defaultTimeout},
			userAgent:   defaultUserAgent,
			retries:     defaultRetries,
			backoffBase: defaultBackoffBase,
			log:         logger.Nop(),
		},
		apiBase: strings.TrimRight(baseURL, "/") + "/api",
	}
	for _, opt := range opts {
		opt(&c.getter)
	}
	return c
}

// FetchPlayers fetches the player directory.
func (c *Client) FetchPlayers(ctx context.Context) (int64, []PlayerEntry, error) {
	rawURL := c.apiBase + "/players.xml?" + url.Values{"toJson": {"1"}}.Encode()
	body, err := c.get(ctx, "players", rawURL)
	if err != nil {
		return 0, nil, err
	}

	for _, p := range playersParsers {
		if ts, entries, ok := p.parse(body); ok {
			if c.metrics != nil {
				c.metrics.RecordParseStrategy(p.name)
			}
			return ts, entries, nil
		}
	}
	if c.metrics != nil {
		c.metrics.RecordParseFallthrough()
	}
	return 0, nil, fmt.Errorf("%w: players payload matched no parse strategy", ErrAPI)
}

// FetchHighscoreBlock fetches one window [start,end] (zero-based, inclusive)
// of the ranked list for metric.
func (c *Client) FetchHighscoreBlock(ctx context.Context, metric Metric, start, end int) (HighscoreBlock, error) {
	typeID, err := metric.TypeID()
	if err != nil {
		return HighscoreBlock{}, err
	}

	q := url.Values{
		"category": {highscoreCategoryPlayer},
		"type":     {strconv.Itoa(typeID)},
		"start":    {strconv.Itoa(start)},
		"end":      {strconv.Itoa(end)},
		"toJson":   {"1"},
	}
	body, err := c.get(ctx, "highscore", c.apiBase+"/highscore.xml?"+q.Encode())
	if err != nil {
		return HighscoreBlock{}, err
	}

	for _, p := range highscoreParsers {
		if block, ok := p.parse(body); ok {
			if c.metrics != nil {
				c.metrics.RecordParseStrategy(p.name)
			}
			return block, nil
		}
	}
	if c.metrics != nil {
		c.metrics.RecordParseFallthrough()
	}
	return HighscoreBlock{}, fmt.Errorf("%w: highscore payload matched no parse strategy", ErrAPI)
}
