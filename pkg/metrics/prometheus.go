// Package metrics provides Prometheus metrics for the rallylog service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Rally sequencing
	rallyMutations   *prometheus.CounterVec
	rowsRewritten    prometheus.Histogram
	recomputeLatency prometheus.Histogram

	// Analysis and export
	analysisLatency prometheus.Histogram
	analysisMatches prometheus.Histogram
	exports         *prometheus.CounterVec

	// Storage
	storeQueryLatency *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec

	// Inventory, refreshed periodically
	matchesTotal     prometheus.Gauge
	ralliesTotal     prometheus.Gauge
	opponentsTotal   prometheus.Gauge
	tournamentsTotal prometheus.Gauge

	// Process
	goroutines  prometheus.Gauge
	memoryBytes prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rallylog",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP responses with status >= 400 by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.rallyMutations = auto.NewCounterVec(
		m.counterOpts("rally_mutations_total", "Rally insert/update/delete/replay operations by outcome"),
		[]string{"kind", "outcome"},
	)
	m.rowsRewritten = auto.NewHistogram(
		m.histogramOpts("rally_rows_rewritten", "Rally rows written per recompute", prometheus.ExponentialBuckets(1, 2, 8)),
	)
	m.recomputeLatency = auto.NewHistogram(
		m.histogramOpts("rally_recompute_duration_milliseconds", "Read-recompute-write latency for one match", m.histogramBuckets),
	)

	m.analysisLatency = auto.NewHistogram(
		m.histogramOpts("analysis_duration_milliseconds", "Time to load rollups and aggregate them", m.histogramBuckets),
	)
	m.analysisMatches = auto.NewHistogram(
		m.histogramOpts("analysis_matches", "Matches included in one analysis", prometheus.ExponentialBuckets(1, 2, 9)),
	)
	m.exports = auto.NewCounterVec(
		m.counterOpts("exports_total", "Match exports by format"),
		[]string{"format"},
	)

	m.storeQueryLatency = auto.NewHistogramVec(
		m.histogramOpts("store_query_duration_milliseconds", "Store operation latency by operation", m.histogramBuckets),
		[]string{"operation"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Store operation failures by operation"),
		[]string{"operation"},
	)

	m.matchesTotal = auto.NewGauge(m.gaugeOpts("matches", "Matches currently stored"))
	m.ralliesTotal = auto.NewGauge(m.gaugeOpts("rallies", "Rallies currently stored"))
	m.opponentsTotal = auto.NewGauge(m.gaugeOpts("opponents", "Opponents currently stored"))
	m.tournamentsTotal = auto.NewGauge(m.gaugeOpts("tournaments", "Tournaments currently stored"))

	m.goroutines = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.memoryBytes = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRallyMutation counts a sequencing operation. outcome is "ok" or an error kind.
func RecordRallyMutation(kind, outcome string) {
	globalManager.rallyMutations.WithLabelValues(kind, outcome).Inc()
}

// RecordRowsRewritten observes how many rally rows a recompute wrote.
func RecordRowsRewritten(rows int) {
	globalManager.rowsRewritten.Observe(float64(rows))
}

// RecordRecomputeLatency records a read-recompute-write cycle.
func RecordRecomputeLatency(latencyMs float64) {
	globalManager.recomputeLatency.Observe(latencyMs)
}

// RecordAnalysis records one analysis build.
func RecordAnalysis(latencyMs float64, matches int) {
	globalManager.analysisLatency.Observe(latencyMs)
	globalManager.analysisMatches.Observe(float64(matches))
}

// RecordExport counts an export in the given format.
func RecordExport(format string) {
	globalManager.exports.WithLabelValues(format).Inc()
}

// RecordStoreQuery records a store operation latency.
func RecordStoreQuery(operation string, latencyMs float64) {
	globalManager.storeQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// UpdateInventory sets the stored entity gauges.
func UpdateInventory(matches, rallies, opponents, tournaments int64) {
	globalManager.matchesTotal.Set(float64(matches))
	globalManager.ralliesTotal.Set(float64(rallies))
	globalManager.opponentsTotal.Set(float64(opponents))
	globalManager.tournamentsTotal.Set(float64(tournaments))
}

// UpdateSystem sets process gauges.
func UpdateSystem(goroutines int, heapBytes uint64) {
	globalManager.goroutines.Set(float64(goroutines))
	globalManager.memoryBytes.Set(float64(heapBytes))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
