// Package metrics provides Prometheus metrics for the bullseye client layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcome labels.
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeBlocked = "blocked"
)

// Manager owns every collector bullseye exports.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	renderBuckets  []float64
	registry       prometheus.Registerer

	// Backend traffic
	backendRequests        *prometheus.CounterVec
	backendRequestDuration *prometheus.HistogramVec

	// Analytics orchestration
	analyticsFetches     *prometheus.CounterVec
	debounceCollapsed    prometheus.Counter
	filterStoreSoftFails prometheus.Counter
	renderDuration       prometheus.Histogram

	// Training workflow
	sessionMutations *prometheus.CounterVec
	sessionImages    prometheus.Gauge

	// Command dispatch
	commandQueueSize prometheus.Gauge
	commandsRejected prometheus.Counter

	// Control API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByComponent   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "bullseye",
		subsystem:      "client",
		latencyBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		renderBuckets:  []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50},
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.backendRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "backend_requests_total",
		Help:      "Requests issued to the scoring backend by endpoint and status",
	}, []string{"endpoint", "status"})

	m.backendRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "backend_request_duration_milliseconds",
		Help:      "Backend round-trip latency in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint"})

	m.analyticsFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analytics_fetches_total",
		Help:      "Aggregate analytics fetches by outcome (applied, stale, failed)",
	}, []string{"outcome"})

	m.debounceCollapsed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "debounce_collapsed_total",
		Help:      "Filter changes absorbed by a later change inside the quiet period",
	})

	m.filterStoreSoftFails = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "filter_store_soft_failures_total",
		Help:      "Persisted filter records that could not be read and were treated as absent",
	})

	m.renderDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analytics_render_duration_milliseconds",
		Help:      "Time to fan one aggregate response out to every view",
		Buckets:   m.renderBuckets,
	})

	m.sessionMutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_mutations_total",
		Help:      "Training session mutations by operation and outcome",
	}, []string{"op", "outcome"})

	m.sessionImages = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_images",
		Help:      "Images held for the loaded training session",
	})

	m.commandQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "command_queue_size",
		Help:      "Commands waiting for the dispatcher",
	})

	m.commandsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "commands_rejected_total",
		Help:      "Commands refused because the queue was full or closed",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Control API requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Control API request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and kind",
	}, []string{"component", "kind"})
}

// RecordBackendRequest records one backend round trip.
func RecordBackendRequest(endpoint, status string, durationMs float64) {
	globalManager.backendRequests.WithLabelValues(endpoint, status).Inc()
	globalManager.backendRequestDuration.WithLabelValues(endpoint).Observe(durationMs)
}

// RecordAnalyticsFetch counts an aggregate fetch by outcome.
func RecordAnalyticsFetch(outcome string) {
	globalManager.analyticsFetches.WithLabelValues(outcome).Inc()
}

// RecordDebounceCollapsed counts a change swallowed by the debounce window.
func RecordDebounceCollapsed() {
	globalManager.debounceCollapsed.Inc()
}

// RecordFilterStoreSoftFailure counts a corrupted or unreadable persisted record.
func RecordFilterStoreSoftFailure() {
	globalManager.filterStoreSoftFails.Inc()
}

// RecordRenderDuration records how long a full view fan-out took.
func RecordRenderDuration(durationMs float64) {
	globalManager.renderDuration.Observe(durationMs)
}

// RecordSessionMutation counts a training mutation.
func RecordSessionMutation(op, outcome string) {
	globalManager.sessionMutations.WithLabelValues(op, outcome).Inc()
}

// UpdateSessionImages sets the number of images held for the loaded session.
func UpdateSessionImages(n int) {
	globalManager.sessionImages.Set(float64(n))
}

// UpdateCommandQueueSize sets the dispatcher backlog.
func UpdateCommandQueueSize(n int) {
	globalManager.commandQueueSize.Set(float64(n))
}

// RecordCommandRejected counts a refused command.
func RecordCommandRejected() {
	globalManager.commandsRejected.Inc()
}

// RecordHTTPRequest records a control API request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error by component and kind.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
