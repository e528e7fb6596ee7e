// Package metrics provides Prometheus metrics for the placar match-form service.
package metrics

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the placar service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// gatherer is set for managers built by Init and backs GetRegistry.
	gatherer *prometheus.Registry

	// Form metrics
	derivations       prometheus.Counter
	derivationLatency prometheus.Histogram
	fieldChanges      *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	confirmations     *prometheus.CounterVec
	resets            *prometheus.CounterVec
	commandsDuplicate prometheus.Counter
	commandLatency    *prometheus.HistogramVec

	// Roster metrics
	rosterFetches      *prometheus.CounterVec
	rosterFetchLatency prometheus.Histogram
	rosterStale        prometheus.Counter

	// Session metrics
	activeSessions   prometheus.Gauge
	sessionsCreated  prometheus.Counter
	sessionsExpired  *prometheus.CounterVec
	websocketClients prometheus.Gauge

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// current is the manager the package-level recorders write to.
var current atomic.Pointer[Manager] //nolint:gochecknoglobals // process-wide metrics

func init() { //nolint:gochecknoinits // recorders must work before Init is called
	Init()
}

// Init replaces the global manager with a fresh one on its own registry, so
// the default Go collectors are never exported. Call it once at startup,
// before serving; recorders already in flight finish on the old manager.
func Init(opts ...Option) *Manager {
	reg := prometheus.NewRegistry()
	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, WithPrometheusRegistry(reg))

	m := NewManager(all...)
	m.gatherer = reg
	current.Store(m)
	return m
}

// active returns the global manager, or nil when recording is disabled.
func active() *Manager {
	if m := current.Load(); m != nil && m.enabled {
		return m
	}
	return nil
}

// Enabled reports whether the global recorders record.
func Enabled() bool { return active() != nil }

// RefreshInterval is how often callers should refresh the system gauges.
func RefreshInterval() time.Duration {
	return current.Load().refreshInterval
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "placar",
		subsystem:        "form",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.derivations = m.counter("derivations_total", "Total number of visibility policy derivations")
	m.derivationLatency = m.histogram("derivation_latency_milliseconds", "Visibility derivation latency in milliseconds")
	m.fieldChanges = m.counterVec("field_changes_total", "Field change events by field", "field")
	m.transitions = m.counterVec("transitions_total", "Guarded transitions by field and outcome", "field", "outcome")
	m.confirmations = m.counterVec("confirmations_total", "Operator confirmations by prompt kind and answer", "kind", "accepted")
	m.resets = m.counterVec("resets_total", "Dependent-field reset cascades by reason", "reason")
	m.commandsDuplicate = m.counter("commands_duplicate_total", "Commands dropped because their change id was already applied")
	m.commandLatency = m.histogramVec("command_latency_milliseconds", "End-to-end command latency by kind", "kind")

	m.rosterFetches = m.counterVec("roster_fetches_total", "Roster fetches by outcome", "outcome")
	m.rosterFetchLatency = m.histogram("roster_fetch_latency_milliseconds", "Roster fetch latency in milliseconds")
	m.rosterStale = m.counter("roster_stale_total", "Roster responses discarded because a newer request superseded them")

	m.activeSessions = m.gauge("sessions_active", "Number of open form sessions")
	m.sessionsCreated = m.counter("sessions_created_total", "Total number of form sessions opened")
	m.sessionsExpired = m.counterVec("sessions_expired_total", "Sessions evicted by the sweeper by reason", "reason")
	m.websocketClients = m.gauge("websocket_clients", "Number of connected websocket clients")

	m.queueSize = m.gauge("queue_size", "Current number of queued commands across sessions")
	m.queueCapacity = m.gauge("queue_capacity", "Per-session command queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Utilization of the most recently touched command queue")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of commands enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of commands dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of running session dispatchers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Dispatcher processing latency in milliseconds")
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of dispatcher errors")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("system_gc_pause_time_milliseconds"),
		Help: "GC pause time in milliseconds", ConstLabels: m.customLabels,
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Form Metrics Functions.

// RecordDerivation counts a derivation and its latency in milliseconds.
func RecordDerivation(latencyMs float64) {
	if m := active(); m != nil {
		m.derivations.Inc()
		m.derivationLatency.Observe(latencyMs)
	}
}

// RecordFieldChange counts a field change event.
func RecordFieldChange(field string) {
	if m := active(); m != nil {
		m.fieldChanges.WithLabelValues(field).Inc()
	}
}

// RecordTransition counts a guarded transition outcome.
func RecordTransition(field, outcome string) {
	if m := active(); m != nil {
		m.transitions.WithLabelValues(field, outcome).Inc()
	}
}

// RecordConfirmation counts an operator answer.
func RecordConfirmation(kind string, accepted bool) {
	if m := active(); m != nil {
		m.confirmations.WithLabelValues(kind, strconv.FormatBool(accepted)).Inc()
	}
}

// RecordReset counts a reset cascade.
func RecordReset(reason string) {
	if m := active(); m != nil {
		m.resets.WithLabelValues(reason).Inc()
	}
}

// RecordCommandDuplicate counts a command dropped by change-id deduplication.
func RecordCommandDuplicate() {
	if m := active(); m != nil {
		m.commandsDuplicate.Inc()
	}
}

// RecordCommandLatency records end-to-end command latency.
func RecordCommandLatency(kind string, latencyMs float64) {
	if m := active(); m != nil {
		m.commandLatency.WithLabelValues(kind).Observe(latencyMs)
	}
}

// Roster Metrics Functions.

// RecordRosterFetch counts a roster fetch and its latency.
func RecordRosterFetch(outcome string, latencyMs float64) {
	if m := active(); m != nil {
		m.rosterFetches.WithLabelValues(outcome).Inc()
		m.rosterFetchLatency.Observe(latencyMs)
	}
}

// RecordRosterStale counts a discarded stale roster response.
func RecordRosterStale() {
	if m := active(); m != nil {
		m.rosterStale.Inc()
	}
}

// Session Metrics Functions.

// UpdateActiveSessions sets the number of open sessions.
func UpdateActiveSessions(count int) {
	if m := active(); m != nil {
		m.activeSessions.Set(float64(count))
	}
}

// RecordSessionCreated counts an opened session.
func RecordSessionCreated() {
	if m := active(); m != nil {
		m.sessionsCreated.Inc()
	}
}

// RecordSessionExpired counts a swept session.
func RecordSessionExpired(reason string) {
	if m := active(); m != nil {
		m.sessionsExpired.WithLabelValues(reason).Inc()
	}
}

// AddWebsocketClients adjusts the connected websocket client gauge.
func AddWebsocketClients(delta int) {
	if m := active(); m != nil {
		m.websocketClients.Add(float64(delta))
	}
}

// Queue Metrics Functions.

// UpdateQueueSize adjusts the total queued command gauge.
func UpdateQueueSize(delta int) {
	if m := active(); m != nil {
		m.queueSize.Add(float64(delta))
	}
}

// UpdateQueueCapacity sets the per-session queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m := active(); m != nil {
		m.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if m := active(); m != nil {
		m.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if m := active(); m != nil {
		m.queueEnqueueRate.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if m := active(); m != nil {
		m.queueDequeueRate.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if m := active(); m != nil {
		m.queueEnqueueErrors.Inc()
	}
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.queueProcessingLatency.Observe(latencyMs)
	}
}

// Worker Metrics Functions.

// AddWorkerActiveCount adjusts the number of running dispatchers.
func AddWorkerActiveCount(delta int) {
	if m := active(); m != nil {
		m.workerActiveCount.Add(float64(delta))
	}
}

// RecordWorkerProcessingLatency records dispatcher processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if m := active(); m != nil {
		m.workerErrorRate.Inc()
	}
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if m := active(); m != nil {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := active(); m != nil {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := active(); m != nil {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry of the global manager.
func GetRegistry() *prometheus.Registry {
	return current.Load().gatherer
}
