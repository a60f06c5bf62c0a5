// Package metrics provides Prometheus metrics for the absensi service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scans
	scansSubmitted *prometheus.CounterVec
	scansPublished prometheus.Counter
	scansApplied   prometheus.Counter
	scansIgnored   *prometheus.CounterVec

	// Bus
	busPublishes   prometheus.Counter
	busSubscribers prometheus.Gauge

	// Session
	loads         *prometheus.CounterVec
	saves         *prometheus.CounterVec
	saveRecords   prometheus.Histogram
	manualEdits   prometheus.Counter
	rowsLoaded    prometheus.Gauge
	pendingDiff   prometheus.Gauge
	sessionActive prometheus.Gauge

	// Event loop
	inboxSize   prometheus.Gauge
	taskLatency prometheus.Histogram
	taskPanics  prometheus.Counter

	// Backend
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	memoryUsage prometheus.Gauge
	goroutines  prometheus.Gauge
	gcPause     prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "absensi",
		subsystem:        "attendance",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scansSubmitted = m.counterVec("scans_submitted_total",
		"Scan tokens submitted by result", "result")
	m.scansPublished = m.counter("scans_published_total",
		"Scan events published on the bus")
	m.scansApplied = m.counter("scans_applied_total",
		"Scan events that changed a row")
	m.scansIgnored = m.counterVec("scans_ignored_total",
		"Scan events that left the rows untouched", "reason")

	m.busPublishes = m.counter("bus_publishes_total",
		"Events published on the scan bus")
	m.busSubscribers = m.gauge("bus_subscribers",
		"Listeners currently subscribed to the scan bus")

	m.loads = m.counterVec("loads_total",
		"Attendance loads by result", "result")
	m.saves = m.counterVec("saves_total",
		"Batch saves by outcome", "outcome")
	m.saveRecords = m.histogram("save_records",
		"Records sent per batch save", []float64{1, 2, 5, 10, 20, 40, 80})
	m.manualEdits = m.counter("manual_edits_total",
		"Manual status overrides applied")
	m.rowsLoaded = m.gauge("rows_loaded",
		"Rows in the current attendance snapshot")
	m.pendingDiff = m.gauge("pending_changes",
		"Rows that differ from the server snapshot")
	m.sessionActive = m.gauge("session_active",
		"Whether the editing session loop is running")

	m.inboxSize = m.gauge("inbox_size",
		"Tasks waiting in the session inbox")
	m.taskLatency = m.histogram("task_latency_milliseconds",
		"Session task run time in milliseconds", m.histogramBuckets)
	m.taskPanics = m.counter("task_panics_total",
		"Session tasks that panicked")

	m.backendRequests = m.counterVec("backend_requests_total",
		"Requests to the attendance backend", "endpoint", "status_code")
	m.backendLatency = m.histogramVec("backend_request_duration_milliseconds",
		"Attendance backend request duration in milliseconds", "endpoint")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total",
		"Errors by component and type", "component", "error_type")

	m.memoryUsage = m.gauge("memory_usage_bytes",
		"Heap bytes allocated")
	m.goroutines = m.gauge("goroutines",
		"Number of goroutines")
	m.gcPause = m.histogram("gc_pause_milliseconds",
		"Average GC pause in milliseconds", []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10})
}

// RecordScanSubmitted counts a submitted scan token by result.
func RecordScanSubmitted(result string) {
	globalManager.scansSubmitted.WithLabelValues(result).Inc()
}

// RecordScanPublished counts a scan event handed to the bus.
func RecordScanPublished() {
	globalManager.scansPublished.Inc()
}

// RecordScanApplied counts a scan event that updated a row.
func RecordScanApplied() {
	globalManager.scansApplied.Inc()
}

// RecordScanIgnored counts a scan event that changed nothing.
func RecordScanIgnored(reason string) {
	globalManager.scansIgnored.WithLabelValues(reason).Inc()
}

// RecordBusPublish counts one publish delivered to the given number of listeners.
func RecordBusPublish(listeners int) {
	globalManager.busPublishes.Inc()
	globalManager.busSubscribers.Set(float64(listeners))
}

// UpdateBusSubscribers sets the subscriber gauge.
func UpdateBusSubscribers(count int) {
	globalManager.busSubscribers.Set(float64(count))
}

// RecordLoad counts an attendance load by result (ok, failed, stale).
func RecordLoad(result string) {
	globalManager.loads.WithLabelValues(result).Inc()
}

// RecordSave counts a batch save by outcome and the number of records sent.
func RecordSave(outcome string, records int) {
	globalManager.saves.WithLabelValues(outcome).Inc()
	if records > 0 {
		globalManager.saveRecords.Observe(float64(records))
	}
}

// RecordManualEdit counts a manual override.
func RecordManualEdit() {
	globalManager.manualEdits.Inc()
}

// UpdateRows sets the snapshot size and pending change gauges.
func UpdateRows(rows, pending int) {
	globalManager.rowsLoaded.Set(float64(rows))
	globalManager.pendingDiff.Set(float64(pending))
}

// UpdateSessionActive flips the session gauge.
func UpdateSessionActive(active bool) {
	if active {
		globalManager.sessionActive.Set(1)
		return
	}
	globalManager.sessionActive.Set(0)
}

// UpdateInboxSize sets the number of queued session tasks.
func UpdateInboxSize(size int) {
	globalManager.inboxSize.Set(float64(size))
}

// RecordTaskLatency records how long a session task ran.
func RecordTaskLatency(latencyMs float64) {
	globalManager.taskLatency.Observe(latencyMs)
}

// RecordTaskPanic counts a recovered task panic.
func RecordTaskPanic() {
	globalManager.taskPanics.Inc()
}

// RecordBackendRequest records one backend round trip.
func RecordBackendRequest(endpoint, statusCode string, latencyMs float64) {
	globalManager.backendRequests.WithLabelValues(endpoint, statusCode).Inc()
	globalManager.backendLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.goroutines.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.gcPause.Observe(ms)
}

// Configure rebuilds the global manager on a fresh registry with opts.
// Call it once at startup, before any metric is recorded.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	customRegistry = registry
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
