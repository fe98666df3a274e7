// Package metrics provides Prometheus metrics collection
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Error metrics
	ErrorsTotal *prometheus.CounterVec

	// Content Store & Cache (store/blobstore)
	BlobCacheHitsTotal   *prometheus.CounterVec
	BlobCacheMissesTotal *prometheus.CounterVec
	BlobPutsTotal        *prometheus.CounterVec
	BlobEvictionsTotal   *prometheus.CounterVec
	BlobCacheBytes       prometheus.Gauge

	// Workflow Executor (orchestrator)
	WorkflowTasksTotal    *prometheus.CounterVec
	WorkflowTaskDuration  *prometheus.HistogramVec
	WorkflowsActive       prometheus.Gauge
	WorkflowsCancelled    prometheus.Counter

	// Graph Cache (graph)
	GraphNodesLoaded prometheus.Gauge
	GraphQueryTotal  *prometheus.CounterVec

	// Memory Subsystem (memory)
	MemoryWritesTotal        *prometheus.CounterVec
	MemorySearchDuration     *prometheus.HistogramVec
	MemoryConsolidationTotal prometheus.Counter

	// Event Bus (eventbus)
	EventsPublishedTotal *prometheus.CounterVec
	EventsDroppedTotal   *prometheus.CounterVec
	SubscriberLag        *prometheus.GaugeVec

	// Database metrics
	DatabaseQueriesTotal    *prometheus.CounterVec
	DatabaseQueryDuration   *prometheus.HistogramVec
	DatabaseConnectionsOpen prometheus.Gauge

	// Service health
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec
}

// New creates a new Metrics instance with all collectors registered
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registry
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"service", "method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Total number of errors",
			},
			[]string{"service", "type", "operation"},
		),

		BlobCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blobstore_cache_hits_total",
				Help: "Total number of content store cache hits",
			},
			[]string{"service"},
		),
		BlobCacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blobstore_cache_misses_total",
				Help: "Total number of content store cache misses",
			},
			[]string{"service"},
		),
		BlobPutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blobstore_puts_total",
				Help: "Total number of blobs written to the content store",
			},
			[]string{"service"},
		),
		BlobEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blobstore_evictions_total",
				Help: "Total number of blobs evicted from the content store",
			},
			[]string{"service", "reason"},
		),
		BlobCacheBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "blobstore_cache_bytes",
				Help: "Current size of the content store cache in bytes",
			},
		),

		WorkflowTasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchestrator_tasks_total",
				Help: "Total number of workflow tasks executed",
			},
			[]string{"service", "status"},
		),
		WorkflowTaskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orchestrator_task_duration_seconds",
				Help:    "Workflow task execution duration in seconds",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"service", "task_type"},
		),
		WorkflowsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orchestrator_workflows_active",
				Help: "Current number of workflows being executed",
			},
		),
		WorkflowsCancelled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orchestrator_workflows_cancelled_total",
				Help: "Total number of workflows cancelled",
			},
		),

		GraphNodesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "graph_nodes_loaded",
				Help: "Current number of nodes loaded into the in-memory graph cache",
			},
		),
		GraphQueryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graph_queries_total",
				Help: "Total number of graph traversal/path queries",
			},
			[]string{"service", "operation"},
		),

		MemoryWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memory_writes_total",
				Help: "Total number of memory entries written",
			},
			[]string{"service", "store"},
		),
		MemorySearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "memory_search_duration_seconds",
				Help:    "Cross-memory search duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
			},
			[]string{"service"},
		),
		MemoryConsolidationTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "memory_consolidation_runs_total",
				Help: "Total number of memory consolidation sweeps run",
			},
		),

		EventsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_events_published_total",
				Help: "Total number of events published",
			},
			[]string{"service", "channel"},
		),
		EventsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_events_dropped_total",
				Help: "Total number of events dropped from a subscriber's bounded queue",
			},
			[]string{"service", "channel"},
		),
		SubscriberLag: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eventbus_subscriber_lag",
				Help: "Number of undelivered events queued for a subscriber",
			},
			[]string{"service", "channel", "subscriber"},
		),

		DatabaseQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"service", "operation", "status"},
		),
		DatabaseQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "database_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"service", "operation"},
		),
		DatabaseConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "database_connections_open",
				Help: "Current number of open database connections",
			},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "service_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "service_info",
				Help: "Service information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.RequestsInFlight,
			m.ErrorsTotal,
			m.BlobCacheHitsTotal,
			m.BlobCacheMissesTotal,
			m.BlobPutsTotal,
			m.BlobEvictionsTotal,
			m.BlobCacheBytes,
			m.WorkflowTasksTotal,
			m.WorkflowTaskDuration,
			m.WorkflowsActive,
			m.WorkflowsCancelled,
			m.GraphNodesLoaded,
			m.GraphQueryTotal,
			m.MemoryWritesTotal,
			m.MemorySearchDuration,
			m.MemoryConsolidationTotal,
			m.EventsPublishedTotal,
			m.EventsDroppedTotal,
			m.SubscriberLag,
			m.DatabaseQueriesTotal,
			m.DatabaseQueryDuration,
			m.DatabaseConnectionsOpen,
			m.ServiceUptime,
			m.ServiceInfo,
		)
	}

	m.ServiceInfo.WithLabelValues(serviceName, "1.0.0", getEnvironment()).Set(1)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(service, method, path, status).Inc()
	m.RequestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordError records an error
func (m *Metrics) RecordError(service, errorType, operation string) {
	m.ErrorsTotal.WithLabelValues(service, errorType, operation).Inc()
}

// RecordBlobCacheHit records a content store cache hit.
func (m *Metrics) RecordBlobCacheHit(service string) {
	m.BlobCacheHitsTotal.WithLabelValues(service).Inc()
}

// RecordBlobCacheMiss records a content store cache miss.
func (m *Metrics) RecordBlobCacheMiss(service string) {
	m.BlobCacheMissesTotal.WithLabelValues(service).Inc()
}

// RecordBlobPut records a blob written to the content store.
func (m *Metrics) RecordBlobPut(service string) {
	m.BlobPutsTotal.WithLabelValues(service).Inc()
}

// RecordBlobEviction records a blob evicted from the content store.
func (m *Metrics) RecordBlobEviction(service, reason string) {
	m.BlobEvictionsTotal.WithLabelValues(service, reason).Inc()
}

// RecordWorkflowTask records a single workflow task's outcome and duration.
func (m *Metrics) RecordWorkflowTask(service, taskType, status string, duration time.Duration) {
	m.WorkflowTasksTotal.WithLabelValues(service, status).Inc()
	m.WorkflowTaskDuration.WithLabelValues(service, taskType).Observe(duration.Seconds())
}

// RecordGraphQuery records a graph traversal or path query.
func (m *Metrics) RecordGraphQuery(service, operation string) {
	m.GraphQueryTotal.WithLabelValues(service, operation).Inc()
}

// RecordMemoryWrite records a write to one of the memory stores.
func (m *Metrics) RecordMemoryWrite(service, store string) {
	m.MemoryWritesTotal.WithLabelValues(service, store).Inc()
}

// RecordMemorySearch records a cross-memory search's duration.
func (m *Metrics) RecordMemorySearch(service string, duration time.Duration) {
	m.MemorySearchDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordEventPublished records an event published to a channel.
func (m *Metrics) RecordEventPublished(service, channel string) {
	m.EventsPublishedTotal.WithLabelValues(service, channel).Inc()
}

// RecordEventDropped records an event dropped from a subscriber's bounded queue.
func (m *Metrics) RecordEventDropped(service, channel string) {
	m.EventsDroppedTotal.WithLabelValues(service, channel).Inc()
}

// SetSubscriberLag sets the current queue depth for a named subscriber.
func (m *Metrics) SetSubscriberLag(service, channel, subscriber string, depth int) {
	m.SubscriberLag.WithLabelValues(service, channel, subscriber).Set(float64(depth))
}

// RecordDatabaseQuery records a database query
func (m *Metrics) RecordDatabaseQuery(service, operation, status string, duration time.Duration) {
	m.DatabaseQueriesTotal.WithLabelValues(service, operation, status).Inc()
	m.DatabaseQueryDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// SetDatabaseConnections sets the number of open database connections
func (m *Metrics) SetDatabaseConnections(count int) {
	m.DatabaseConnectionsOpen.Set(float64(count))
}

// UpdateUptime updates the service uptime
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.ServiceUptime.Set(time.Since(startTime).Seconds())
}

// IncrementInFlight increments the in-flight requests counter
func (m *Metrics) IncrementInFlight() {
	m.RequestsInFlight.Inc()
}

// DecrementInFlight decrements the in-flight requests counter
func (m *Metrics) DecrementInFlight() {
	m.RequestsInFlight.Dec()
}

// Helper functions

func getEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if env == "" {
		return "development"
	}
	return env
}

func isProduction() bool {
	return getEnvironment() == "production"
}

// Enabled returns whether Prometheus metrics should be exposed.
//
// Defaults:
// - production: disabled unless explicitly enabled via METRICS_ENABLED
// - non-production: enabled unless explicitly disabled via METRICS_ENABLED
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return !isProduction()
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Global metrics instance
var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes the global metrics instance
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New("unknown")
	}
	return globalMetrics
}
