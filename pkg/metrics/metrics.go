// Package metrics provides Prometheus metrics for the HARDSTATS tracker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds all Prometheus metrics for the tracker process.
type Manager struct {
	registry *prometheus.Registry

	// API client
	fetchAttempts  *prometheus.CounterVec // resource -> attempts (incl. retries)
	fetchFailures  *prometheus.CounterVec // resource -> exhausted-retry failures
	parseStrategy  *prometheus.CounterVec // strategy name -> wins
	parseFallThrus prometheus.Counter     // responses no strategy could parse

	// Locator
	locatorProbes    prometheus.Counter
	locatorScanSteps prometheus.Counter
	locatorMisses    prometheus.Counter

	// Collection
	snapshotsInserted prometheus.Counter
	snapshotsDupe     prometheus.Counter
	collectDuration   prometheus.Histogram
	lastCollectUnix   prometheus.Gauge

	// Alerts
	alertsSent       *prometheus.CounterVec // category -> dispatched
	alertsSuppressed *prometheus.CounterVec // category -> cooldown suppressions

	// Recap
	recapsPosted prometheus.Counter
}

// NewManager creates a Manager with all metrics registered on a private registry.
func NewManager() *Manager {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	const ns = "hardstats"

	return &Manager{
		registry: reg,
		fetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "api_fetch_attempts_total",
			Help: "Upstream fetch attempts, including retries, by resource.",
		}, []string{"resource"}),
		fetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "api_fetch_failures_total",
			Help: "Upstream fetches that failed after all retries, by resource.",
		}, []string{"resource"}),
		parseStrategy: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "api_parse_strategy_wins_total",
			Help: "Responses decoded, by winning parse strategy.",
		}, []string{"strategy"}),
		parseFallThrus: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "api_parse_fallthrough_total",
			Help: "Responses no parse strategy could decode.",
		}),
		locatorProbes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "locator_hint_probes_total",
			Help: "Highscore blocks fetched during hint probing.",
		}),
		locatorScanSteps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "locator_scan_steps_total",
			Help: "Highscore blocks fetched during sequential scan.",
		}),
		locatorMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "locator_misses_total",
			Help: "Searches that exhausted both probe and scan phases.",
		}),
		snapshotsInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "snapshots_inserted_total",
			Help: "Snapshot rows appended to the store.",
		}),
		snapshotsDupe: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "snapshots_duplicate_total",
			Help: "Snapshot inserts skipped because the upstream timestamp was unchanged.",
		}),
		collectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "collect_duration_seconds",
			Help:    "Wall time of one collection cycle across all metric types.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		lastCollectUnix: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "last_collect_timestamp_seconds",
			Help: "Unix time of the last completed collection cycle.",
		}),
		alertsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "alerts_sent_total",
			Help: "Alerts dispatched to the notification sink, by category.",
		}, []string{"category"}),
		alertsSuppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "alerts_suppressed_total",
			Help: "Alerts suppressed by the cooldown window, by category.",
		}, []string{"category"}),
		recapsPosted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "recaps_posted_total",
			Help: "Daily recaps posted.",
		}),
	}
}

// Handler returns an HTTP handler exposing the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) RecordFetchAttempt(resource string) { m.fetchAttempts.WithLabelValues(resource).Inc() }
func (m *Manager) RecordFetchFailure(resource string) { m.fetchFailures.WithLabelValues(resource).Inc() }
func (m *Manager) RecordParseStrategy(name string)    { m.parseStrategy.WithLabelValues(name).Inc() }
func (m *Manager) RecordParseFallthrough()            { m.parseFallThrus.Inc() }

func (m *Manager) RecordHintProbe()   { m.locatorProbes.Inc() }
func (m *Manager) RecordScanStep()    { m.locatorScanSteps.Inc() }
func (m *Manager) RecordLocatorMiss() { m.locatorMisses.Inc() }

func (m *Manager) RecordSnapshotInserted()  { m.snapshotsInserted.Inc() }
func (m *Manager) RecordSnapshotDuplicate() { m.snapshotsDupe.Inc() }

// RecordCollectCycle records the duration of one full collection cycle.
func (m *Manager) RecordCollectCycle(seconds float64, endUnix int64) {
	m.collectDuration.Observe(seconds)
	m.lastCollectUnix.Set(float64(endUnix))
}

func (m *Manager) RecordAlertSent(category string) { m.alertsSent.WithLabelValues(category).Inc() }
func (m *Manager) RecordAlertSuppressed(category string) {
	m.alertsSuppressed.WithLabelValues(category).Inc()
}

func (m *Manager) RecordRecapPosted() { m.recapsPosted.Inc() }
