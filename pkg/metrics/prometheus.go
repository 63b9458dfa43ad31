// Package metrics provides Prometheus metrics for the fleet reporting service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Report metrics
	reportsGenerated *prometheus.CounterVec
	reportLatency    *prometheus.HistogramVec
	reportRows       *prometheus.HistogramVec
	unmatchedEvents  *prometheus.CounterVec
	unpricedRecords  prometheus.Counter

	// Event store metrics
	eventsAppended  prometheus.Counter
	eventsDuplicate prometheus.Counter
	storeLatency    *prometheus.HistogramVec

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Job queue and worker pool
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueEnqueueErrors     *prometheus.CounterVec
	workerCount            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors           prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // service registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewMetricsManager(WithPrometheusRegistry(customRegistry))
}

// NewMetricsManager creates a metrics manager and registers its collectors.
func NewMetricsManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fleetops",
		subsystem:        "reports",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.reportsGenerated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("generated_total"),
		Help: "Reports generated, by report kind and outcome",
	}, []string{"report", "outcome"})

	m.reportLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("latency_milliseconds"),
		Help:    "Report computation latency in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"report"})

	m.reportRows = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("rows"),
		Help:    "Number of rows returned per report",
		Buckets: []float64{0, 1, 5, 10, 31, 50, 100, 500, 1000},
	}, []string{"report"})

	m.unmatchedEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("unmatched_events_total"),
		Help: "Attendance events dropped during pairing, by reason",
	}, []string{"reason"})

	m.unpricedRecords = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("unpriced_records_total"),
		Help: "Operational records skipped because their site is unknown",
	})

	m.eventsAppended = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "events", ConstLabels: labels,
		Name: m.name("appended_total"),
		Help: "Events appended to the event store",
	})

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "events", ConstLabels: labels,
		Name: m.name("duplicate_total"),
		Help: "Events rejected as duplicates",
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "store", ConstLabels: labels,
		Name:    m.name("query_latency_milliseconds"),
		Help:    "Store call latency in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"operation"})

	m.cacheHits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "cache", ConstLabels: labels,
		Name: m.name("hits_total"),
		Help: "Report cache hits",
	}, []string{"report"})

	m.cacheMisses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "cache", ConstLabels: labels,
		Name: m.name("misses_total"),
		Help: "Report cache misses",
	}, []string{"report"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "jobs", ConstLabels: labels,
		Name: m.name("queue_size"),
		Help: "Current number of queued report jobs",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "jobs", ConstLabels: labels,
		Name: m.name("queue_capacity"),
		Help: "Configured report job queue capacity",
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "jobs", ConstLabels: labels,
		Name: m.name("enqueue_errors_total"),
		Help: "Rejected enqueue attempts, by reason",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "jobs", ConstLabels: labels,
		Name: m.name("worker_count"),
		Help: "Number of report workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "jobs", ConstLabels: labels,
		Name:    m.name("processing_latency_milliseconds"),
		Help:    "Time spent by a worker on one job",
		Buckets: m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "jobs", ConstLabels: labels,
		Name: m.name("errors_total"),
		Help: "Jobs that finished with an error",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: labels,
		Name: m.name("requests_total"),
		Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: labels,
		Name:    m.name("request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "errors", ConstLabels: labels,
		Name: m.name("by_component_total"),
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "errors", ConstLabels: labels,
		Name: m.name("by_endpoint_total"),
		Help: "Errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: labels,
		Name: m.name("memory_bytes"),
		Help: "Allocated heap bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: labels,
		Name: m.name("goroutines"),
		Help: "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: labels,
		Name:    m.name("gc_pause_milliseconds"),
		Help:    "Average GC pause in milliseconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
}

// RecordReport records one report computation.
func RecordReport(report, outcome string, latencyMs float64, rows int) {
	if !globalManager.enabled {
		return
	}
	globalManager.reportsGenerated.WithLabelValues(report, outcome).Inc()
	globalManager.reportLatency.WithLabelValues(report).Observe(latencyMs)
	if outcome == "ok" {
		globalManager.reportRows.WithLabelValues(report).Observe(float64(rows))
	}
}

// RecordUnmatchedEvent counts an attendance event dropped during pairing.
func RecordUnmatchedEvent(reason string) {
	globalManager.unmatchedEvents.WithLabelValues(reason).Inc()
}

// RecordUnpricedRecord counts an operational record without a known site.
func RecordUnpricedRecord() {
	globalManager.unpricedRecords.Inc()
}

// RecordEventAppended increments the appended events counter.
func RecordEventAppended() {
	globalManager.eventsAppended.Inc()
}

// RecordEventDuplicate increments the duplicate events counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordCacheHit increments cache hits for a report kind.
func RecordCacheHit(report string) {
	globalManager.cacheHits.WithLabelValues(report).Inc()
}

// RecordCacheMiss increments cache misses for a report kind.
func RecordCacheMiss(report string) {
	globalManager.cacheMisses.WithLabelValues(report).Inc()
}

// UpdateQueueSize sets the current job queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the job queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the worker pool size.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records the latency of one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry that holds the service metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
