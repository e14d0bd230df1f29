// Package metrics provides Prometheus metrics for the bwrank pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for bwrank.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// History store
	historyObservations  prometheus.Gauge
	historyDates         prometheus.Gauge
	historyLoadDuration  prometheus.Histogram
	historyLoadFailures  *prometheus.CounterVec
	historyRowsAppended  *prometheus.CounterVec
	historyAppendFailure *prometheus.CounterVec

	// Scraper
	scrapeRowsParsed   *prometheus.CounterVec
	scrapeRowsSkipped  *prometheus.CounterVec
	scrapeLoginFailure *prometheus.CounterVec
	scrapeDuration     *prometheus.HistogramVec

	// Aggregation
	queryLatency prometheus.Histogram
	queryRows    prometheus.Histogram

	// Artifacts
	reportsGenerated *prometheus.CounterVec
	publishes        *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bwrank",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.historyObservations = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_observations",
		Help:      "Number of observations in the last loaded history",
	})

	m.historyDates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_dates",
		Help:      "Number of distinct snapshot dates in the last loaded history",
	})

	m.historyLoadDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_load_duration_milliseconds",
		Help:      "Time spent loading the full history",
		Buckets:   m.histogramBuckets,
	})

	m.historyLoadFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "history_load_failures_total",
			Help:      "History loads that failed, by backend and reason",
		},
		[]string{"backend", "reason"},
	)

	m.historyRowsAppended = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "history_rows_appended_total",
			Help:      "Observations appended to the history, by backend",
		},
		[]string{"backend"},
	)

	m.historyAppendFailure = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "history_append_failures_total",
			Help:      "Failed appends, by backend",
		},
		[]string{"backend"},
	)

	m.scrapeRowsParsed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scrape_rows_parsed_total",
			Help:      "Leaderboard rows parsed, by server",
		},
		[]string{"server"},
	)

	m.scrapeRowsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scrape_rows_skipped_total",
			Help:      "Leaderboard rows skipped, by server and reason",
		},
		[]string{"server", "reason"},
	)

	m.scrapeLoginFailure = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scrape_login_failures_total",
			Help:      "Servers that could not be scraped, by server and reason",
		},
		[]string{"server", "reason"},
	)

	m.scrapeDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scrape_duration_seconds",
			Help:      "Time spent scraping one server",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"server"},
	)

	m.queryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "progression_query_latency_milliseconds",
		Help:      "Latency of progression queries",
		Buckets:   m.histogramBuckets,
	})

	m.queryRows = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "progression_query_rows",
		Help:      "Rows returned by progression queries before pagination",
		Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
	})

	m.reportsGenerated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "reports_generated_total",
			Help:      "Generated artifacts, by format",
		},
		[]string{"format"},
	)

	m.publishes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "publishes_total",
			Help:      "Publisher runs, by outcome",
		},
		[]string{"outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)
}

// History metrics.

// UpdateHistorySize records the size of the last loaded history.
func UpdateHistorySize(observations, dates int) {
	globalManager.historyObservations.Set(float64(observations))
	globalManager.historyDates.Set(float64(dates))
}

// RecordHistoryLoadDuration records how long a full load took.
func RecordHistoryLoadDuration(ms float64) {
	globalManager.historyLoadDuration.Observe(ms)
}

// RecordHistoryLoadFailure counts a failed load.
func RecordHistoryLoadFailure(backend, reason string) {
	globalManager.historyLoadFailures.WithLabelValues(backend, reason).Inc()
}

// RecordHistoryAppend counts appended observations.
func RecordHistoryAppend(backend string, n int) {
	globalManager.historyRowsAppended.WithLabelValues(backend).Add(float64(n))
}

// RecordHistoryAppendFailure counts a failed append.
func RecordHistoryAppendFailure(backend string) {
	globalManager.historyAppendFailure.WithLabelValues(backend).Inc()
}

// Scrape metrics.

// RecordScrapeRowParsed counts a parsed leaderboard row.
func RecordScrapeRowParsed(server string) {
	globalManager.scrapeRowsParsed.WithLabelValues(server).Inc()
}

// RecordScrapeRowSkipped counts a skipped leaderboard row.
func RecordScrapeRowSkipped(server, reason string) {
	globalManager.scrapeRowsSkipped.WithLabelValues(server, reason).Inc()
}

// RecordScrapeServerFailure counts a server that could not be scraped.
func RecordScrapeServerFailure(server, reason string) {
	globalManager.scrapeLoginFailure.WithLabelValues(server, reason).Inc()
}

// RecordScrapeDuration records the time spent on one server.
func RecordScrapeDuration(server string, seconds float64) {
	globalManager.scrapeDuration.WithLabelValues(server).Observe(seconds)
}

// Query metrics.

// RecordQuery records one progression query.
func RecordQuery(latencyMs float64, rows int) {
	globalManager.queryLatency.Observe(latencyMs)
	globalManager.queryRows.Observe(float64(rows))
}

// Artifact metrics.

// RecordReportGenerated counts a generated artifact.
func RecordReportGenerated(format string) {
	globalManager.reportsGenerated.WithLabelValues(format).Inc()
}

// RecordPublish counts a publisher run. Outcome is one of pushed, unchanged, failed.
func RecordPublish(outcome string) {
	globalManager.publishes.WithLabelValues(outcome).Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
