// Package locator finds one player inside the unbounded, paginated ranked
// list without scanning it in full.
//
// Players move rank slowly between polls, so probing near the last-known rank
// usually resolves in one request. The sequential scan guarantees correctness
// when the hint is stale, missing, or wrong.
package locator

import (
	"context"
	"fmt"

	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/pkg/logger"
	"github.com/Galoup/HARDSTATS/pkg/metrics"
)

// DefaultBlockWidth is the ranked-list window size per fetch.
const DefaultBlockWidth = 500

// defaultMaxScanOffset is the hard safety cap for the sequential scan.
const defaultMaxScanOffset = 200_000

// hintSpans are the widening probe spans around the hint rank. With three
// probes per span the hint phase issues at most 9 fetches.
var hintSpans = [...]int{250, 1000, 3000}

// BlockFetcher fetches one ranked-list window.
type BlockFetcher interface {
	FetchHighscoreBlock(ctx context.Context, metric ogame.Metric, start, end int) (ogame.HighscoreBlock, error)
}

// Result is the located standing of the player.
type Result struct {
	APITimestamp int64
	Points       int64
	Rank         int
}

// Locator runs the adaptive search.
type Locator struct {
	fetcher       BlockFetcher
	blockWidth    int
	maxScanOffset int
	log           logger.Logger
	metrics       *metrics.Manager
}

// New creates a Locator over fetcher.
func New(fetcher BlockFetcher, opts ...Option) *Locator {
	l := &Locator{
		fetcher:       fetcher,
		blockWidth:    DefaultBlockWidth,
		maxScanOffset: defaultMaxScanOffset,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate finds playerID in the ranked list for metric. hintRank seeds the
// probe phase when positive; pass 0 for no hint. Exhausting both phases
// returns ogame.ErrPlayerNotFound; fetch failures propagate as-is.
func (l *Locator) Locate(ctx context.Context, metric ogame.Metric, playerID int64, hintRank int) (Result, error) {
	if hintRank > 0 {
		res, found, err := l.probeNearHint(ctx, metric, playerID, hintRank)
		if err != nil {
			return Result{}, err
		}
		if found {
			return res, nil
		}
		l.log.Debug("hint probes missed, falling back to sequential scan",
			logger.String("metric", string(metric)),
			logger.Int("hint_rank", hintRank))
	}

	res, found, err := l.sequentialScan(ctx, metric, playerID)
	if err != nil {
		return Result{}, err
	}
	if found {
		return res, nil
	}

	if l.metrics != nil {
		l.metrics.RecordLocatorMiss()
	}
	return Result{}, fmt.Errorf("%w: player id %d not in highscore %s",
		ogame.ErrPlayerNotFound, playerID, string(metric))
}

func (l *Locator) probeNearHint(ctx context.Context, metric ogame.Metric, playerID int64, hintRank int) (Result, bool, error) {
	for _, span := range hintSpans {
		base := hintRank - span - 1
		if base < 0 {
			base = 0
		}
		for _, offset := range [...]int{0, span, 2 * span} {
			if l.metrics != nil {
				l.metrics.RecordHintProbe()
			}
			res, found, err := l.fetchWindow(ctx, metric, playerID, base+offset)
			if err != nil || found {
				return res, found, err
			}
		}
	}
	return Result{}, false, nil
}

func (l *Locator) sequentialScan(ctx context.Context, metric ogame.Metric, playerID int64) (Result, bool, error) {
	for start := 0; start <= l.maxScanOffset; start += l.blockWidth {
		if l.metrics != nil {
			l.metrics.RecordScanStep()
		}
		block, err := l.fetcher.FetchHighscoreBlock(ctx, metric, start, start+l.blockWidth-1)
		if err != nil {
			return Result{}, false, err
		}
		if hit, ok := block.Find(playerID); ok {
			return Result{APITimestamp: block.APITimestamp, Points: hit.Points, Rank: hit.Rank}, true, nil
		}
		if block.Total > 0 && start >= block.Total {
			break
		}
		if len(block.Entries) == 0 {
			break
		}
	}
	return Result{}, false, nil
}

func (l *Locator) fetchWindow(ctx context.Context, metric ogame.Metric, playerID int64, start int) (Result, bool, error) {
	if start < 0 {
		start = 0
	}
	block, err := l.fetcher.FetchHighscoreBlock(ctx, metric, start, start+l.blockWidth-1)
	if err != nil {
		return Result{}, false, err
	}
	if hit, ok := block.Find(playerID); ok {
		return Result{APITimestamp: block.APITimestamp, Points: hit.Points, Rank: hit.Rank}, true, nil
	}
	return Result{}, false, nil
}
