// Package metrics provides Prometheus metrics for the sentinel sentiment service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// latencyBucketsMs are tuned for in-memory batch work measured in milliseconds.
var latencyBucketsMs = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // static bucket layout

// Manager manages all Prometheus metrics for the sentinel service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Engine metrics
	itemsScored       prometheus.Counter
	itemsDuplicate    prometheus.Counter
	itemsUnreferenced prometheus.Counter
	batchesProcessed  prometheus.Counter
	batchLatency      prometheus.Histogram
	signalsAppended   prometheus.Counter
	historyEvictions  prometheus.Counter
	trackedTokens     prometheus.Gauge
	engineResets      prometheus.Counter

	// History store metrics
	repositoryRecordsTotal    prometheus.Gauge
	repositoryRecordsPerShard *prometheus.GaugeVec
	repositoryShardCount      prometheus.Gauge

	// Publisher metrics
	signalsPublished prometheus.Counter
	publishErrors    prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "sentinel",
		subsystem:        "engine",
		histogramBuckets: latencyBucketsMs,
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
		})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
			Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
		})
	}

	m.itemsScored = counter("items_scored_total", "Total number of text items scored")
	m.itemsDuplicate = counter("items_duplicate_total", "Total number of items dropped as already ingested")
	m.itemsUnreferenced = counter("items_unreferenced_total", "Total number of items that referenced no token")
	m.batchesProcessed = counter("batches_processed_total", "Total number of batches aggregated")
	m.batchLatency = histogram("batch_latency_milliseconds", "Time to extract, score and aggregate one batch")
	m.signalsAppended = counter("signals_appended_total", "Total number of token signals appended to history")
	m.historyEvictions = counter("history_evictions_total", "Total number of history entries evicted by the retention cap")
	m.trackedTokens = gauge("tracked_tokens", "Number of tokens with at least one signal in history")
	m.engineResets = counter("resets_total", "Number of engine resets")

	m.repositoryRecordsTotal = gauge("repository_records_total", "Total number of signals retained across all tokens")
	m.repositoryShardCount = gauge("repository_shard_count", "Number of history store shards")
	m.repositoryRecordsPerShard = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("repository_records_per_shard"),
		Help: "Signals retained per history store shard", ConstLabels: m.customLabels,
	}, []string{"shard"})

	m.signalsPublished = counter("signals_published_total", "Total number of signals handed to the snapshot publisher")
	m.publishErrors = counter("publish_errors_total", "Total number of failed snapshot publishes")

	m.queueSize = gauge("queue_size", "Current number of batches waiting in the queue")
	m.queueCapacity = gauge("queue_capacity", "Maximum number of batches the queue accepts")
	m.queueEnqueueTotal = counter("queue_enqueue_total", "Total number of batches enqueued")
	m.queueEnqueueErrors = counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerCount = gauge("worker_count", "Number of batch workers")
	m.workerProcessingLatency = histogram("worker_processing_latency_milliseconds", "Time a worker spends on one batch including publishing")
	m.workerErrors = counter("worker_errors_total", "Total number of worker failures")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", Name: m.name("requests_total"),
		Help: "Total number of HTTP requests", ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", Name: m.name("request_duration_milliseconds"),
		Help: "HTTP request duration", Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("errors_by_component_total"),
		Help: "Errors grouped by component and type", ConstLabels: m.customLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
}

// Engine metrics.

func RecordItemsScored(n int) {
	if globalManager.enabled {
		globalManager.itemsScored.Add(float64(n))
	}
}

func RecordItemsDuplicate(n int) {
	if globalManager.enabled {
		globalManager.itemsDuplicate.Add(float64(n))
	}
}

func RecordItemsUnreferenced(n int) {
	if globalManager.enabled {
		globalManager.itemsUnreferenced.Add(float64(n))
	}
}

func RecordBatchProcessed(latencyMs float64) {
	if globalManager.enabled {
		globalManager.batchesProcessed.Inc()
		globalManager.batchLatency.Observe(latencyMs)
	}
}

func RecordSignalAppended() {
	if globalManager.enabled {
		globalManager.signalsAppended.Inc()
	}
}

func RecordHistoryEviction() {
	if globalManager.enabled {
		globalManager.historyEvictions.Inc()
	}
}

func UpdateTrackedTokens(count int) {
	if globalManager.enabled {
		globalManager.trackedTokens.Set(float64(count))
	}
}

func RecordEngineReset() {
	if globalManager.enabled {
		globalManager.engineResets.Inc()
	}
}

// History store metrics.

func UpdateRepositoryRecordsTotal(count int) {
	if globalManager.enabled {
		globalManager.repositoryRecordsTotal.Set(float64(count))
	}
}

func UpdateRepositoryShardCount(count int) {
	if globalManager.enabled {
		globalManager.repositoryShardCount.Set(float64(count))
	}
}

func UpdateRepositoryRecordsPerShard(shardID string, count int) {
	if globalManager.enabled {
		globalManager.repositoryRecordsPerShard.WithLabelValues(shardID).Set(float64(count))
	}
}

// Publisher metrics.

func RecordSignalsPublished(n int) {
	if globalManager.enabled {
		globalManager.signalsPublished.Add(float64(n))
	}
}

func RecordPublishError() {
	if globalManager.enabled {
		globalManager.publishErrors.Inc()
	}
}

// Queue metrics.

func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueueTotal.Inc()
	}
}

func RecordQueueEnqueueError() {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// Worker metrics.

func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// HTTP metrics.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent counts an error of errorType raised by component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// System metrics.

func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RefreshInterval returns how often the system gauges should be sampled.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// RefreshInterval returns how often the manager's gauges should be sampled.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
