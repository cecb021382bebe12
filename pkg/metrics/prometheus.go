// Package metrics provides Prometheus metrics for the training twin service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace         string
	subsystem         string
	metricPrefix      string
	histogramBuckets  []float64
	simulationBuckets []float64
	customLabels      map[string]string
	registry          prometheus.Registerer
	enabled           atomic.Bool

	// Twin business metrics
	sessionsIngested  prometheus.Counter
	sessionsDuplicate prometheus.Counter
	sessionsRejected  *prometheus.CounterVec
	ingestLatency     prometheus.Histogram
	twins             prometheus.Gauge
	simulations       *prometheus.CounterVec
	simulatedDays     prometheus.Counter
	simulationLatency *prometheus.HistogramVec
	taperOutcomes     *prometheus.CounterVec
	taperWinners      *prometheus.CounterVec
	comparisons       *prometheus.CounterVec
	recommendations   *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "twin",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Enabled reports whether package recorders update collectors.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts(m.counterOpts(name, help))
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.sessionsIngested = auto.NewCounter(m.counterOpts("sessions_ingested_total",
		"Training sessions applied to a twin"))
	m.sessionsDuplicate = auto.NewCounter(m.counterOpts("sessions_duplicate_total",
		"Redelivered training sessions dropped by the deduper"))
	m.sessionsRejected = auto.NewCounterVec(m.counterOpts("sessions_rejected_total",
		"Training sessions rejected before reaching a twin"), []string{"reason"})
	m.ingestLatency = auto.NewHistogram(m.histogramOpts("ingest_latency_milliseconds",
		"Time from session receipt to state update", nil))
	m.twins = auto.NewGauge(m.gaugeOpts("twins",
		"Number of twins held in memory"))
	m.simulations = auto.NewCounterVec(m.counterOpts("simulations_total",
		"Simulation runs by operation"), []string{"operation"})
	m.simulatedDays = auto.NewCounter(m.counterOpts("simulated_days_total",
		"Projected days computed across all simulations"))
	m.simulationLatency = auto.NewHistogramVec(m.histogramOpts("simulation_latency_milliseconds",
		"Latency of projection operations", m.simulationBuckets), []string{"operation"})
	m.taperOutcomes = auto.NewCounterVec(m.counterOpts("taper_outcomes_total",
		"Peaking optimizations by status"), []string{"status"})
	m.taperWinners = auto.NewCounterVec(m.counterOpts("taper_winners_total",
		"Winning taper strategies"), []string{"strategy"})
	m.comparisons = auto.NewCounterVec(m.counterOpts("comparisons_total",
		"Scenario comparisons by status"), []string{"status"})
	m.recommendations = auto.NewCounterVec(m.counterOpts("recommendations_total",
		"Emitted recommendations by type"), []string{"type"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Sessions waiting in the ingestion queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Total capacity of the ingestion queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Fill ratio of the ingestion queue"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total",
		"Sessions accepted by the ingestion queue"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total",
		"Sessions taken off the ingestion queue"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Sessions refused by a full or closed queue"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Configured ingestion workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count",
		"Workers currently applying a session"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Time a worker spends applying one session", nil))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Sessions a worker failed to apply"))

	m.repositoryUpdateLatency = auto.NewHistogram(m.histogramOpts("repository_update_latency_milliseconds",
		"Latency of exclusive twin updates", nil))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogramOpts("repository_query_latency_milliseconds",
		"Latency of twin snapshot reads", nil))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", nil), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "type"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"HTTP errors by endpoint, method and type"), []string{"endpoint", "method", "type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

func on() bool { return globalManager.enabled.Load() }

// SetEnabled toggles the package recorders.
func SetEnabled(enabled bool) { globalManager.enabled.Store(enabled) }

// Twin business metrics.

func RecordSessionIngested() {
	if on() {
		globalManager.sessionsIngested.Inc()
	}
}

func RecordSessionDuplicate() {
	if on() {
		globalManager.sessionsDuplicate.Inc()
	}
}

// RecordSessionRejected counts a refused session. Reasons are a small fixed
// set (non_monotonic, unknown_twin, backpressure, invalid).
func RecordSessionRejected(reason string) {
	if on() {
		globalManager.sessionsRejected.WithLabelValues(reason).Inc()
	}
}

func RecordIngestLatency(latencyMs float64) {
	if on() {
		globalManager.ingestLatency.Observe(latencyMs)
	}
}

func UpdateTwinCount(count int) {
	if on() {
		globalManager.twins.Set(float64(count))
	}
}

// RecordSimulation counts one projection operation and the days it computed.
func RecordSimulation(operation string, days int, latencyMs float64) {
	if !on() {
		return
	}
	globalManager.simulations.WithLabelValues(operation).Inc()
	globalManager.simulatedDays.Add(float64(days))
	globalManager.simulationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordTaper counts a peaking optimization; strategy is empty unless it succeeded.
func RecordTaper(status, strategy string) {
	if !on() {
		return
	}
	globalManager.taperOutcomes.WithLabelValues(status).Inc()
	if strategy != "" {
		globalManager.taperWinners.WithLabelValues(strategy).Inc()
	}
}

func RecordComparison(status string) {
	if on() {
		globalManager.comparisons.WithLabelValues(status).Inc()
	}
}

func RecordRecommendation(kind string) {
	if on() {
		globalManager.recommendations.WithLabelValues(kind).Inc()
	}
}

// Queue metrics.

func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func UpdateQueueUtilization(utilization float64) {
	if on() {
		globalManager.queueUtilization.Set(utilization)
	}
}

func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueued.Inc()
	}
}

func RecordQueueDequeue() {
	if on() {
		globalManager.queueDequeued.Inc()
	}
}

func RecordQueueEnqueueError() {
	if on() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// Worker metrics.

func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

func UpdateWorkerActiveCount(count int) {
	if on() {
		globalManager.workerActiveCount.Set(float64(count))
	}
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

func RecordWorkerError() {
	if on() {
		globalManager.workerErrors.Inc()
	}
}

// Repository metrics.

func RecordRepositoryUpdateLatency(latencyMs float64) {
	if on() {
		globalManager.repositoryUpdateLatency.Observe(latencyMs)
	}
}

func RecordRepositoryQueryLatency(latencyMs float64) {
	if on() {
		globalManager.repositoryQueryLatency.Observe(latencyMs)
	}
}

// HTTP metrics.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// Error metrics.

func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System metrics.

func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
