// Package metrics provides Prometheus metrics for the cabina analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Capture and analysis
	captures         prometheus.Counter
	captureErrors    prometheus.Counter
	extractionErrors prometheus.Counter
	classifications  *prometheus.CounterVec
	lastFeature      *prometheus.GaugeVec
	analysisLatency  prometheus.Histogram

	// Published state
	snapshotVersion prometheus.Gauge
	monitorRunning  prometheus.Gauge

	// Alert queue
	alertQueueSize     prometheus.Gauge
	alertQueueCapacity prometheus.Gauge
	alertsEnqueued     prometheus.Counter
	alertsDropped      *prometheus.CounterVec

	// Escalation
	notificationsSent      prometheus.Counter
	notificationsFailed    prometheus.Counter
	notificationsThrottled prometheus.Counter
	incidentsStored        prometheus.Counter

	// Fan-out
	wsClients    prometheus.Gauge
	busPublishes prometheus.Counter
	busErrors    prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cabina",
		subsystem:        "analyzer",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.captures = m.counter("captures_total", "Total number of capture windows read")
	m.captureErrors = m.counter("capture_errors_total", "Total number of failed captures")
	m.extractionErrors = m.counter("extraction_errors_total", "Total number of capture windows rejected as invalid input")
	m.classifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifications_total",
		Help:      "Total number of classifications by state and risk tier",
	}, []string{"state", "risk"})
	m.lastFeature = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_feature_value",
		Help:      "Feature values of the most recent capture",
	}, []string{"feature"})
	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_latency_milliseconds",
		Help:      "Time spent extracting and classifying one window",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotVersion = m.gauge("snapshot_version", "Version of the latest published snapshot")
	m.monitorRunning = m.gauge("monitor_running", "1 while the polling loop runs")

	m.alertQueueSize = m.gauge("alert_queue_size", "Current number of pending alerts")
	m.alertQueueCapacity = m.gauge("alert_queue_capacity", "Maximum number of pending alerts")
	m.alertsEnqueued = m.counter("alerts_enqueued_total", "Total number of alerts accepted by the queue")
	m.alertsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alerts_dropped_total",
		Help:      "Total number of alerts the queue refused",
	}, []string{"reason"})

	m.notificationsSent = m.counter("notifications_sent_total", "Total number of escalations handed to the notifier")
	m.notificationsFailed = m.counter("notifications_failed_total", "Total number of failed escalations")
	m.notificationsThrottled = m.counter("notifications_throttled_total", "Total number of escalations suppressed by the rate limit")
	m.incidentsStored = m.counter("incidents_stored_total", "Total number of incidents persisted")

	m.wsClients = m.gauge("websocket_clients", "Current number of live stream subscribers")
	m.busPublishes = m.counter("bus_publishes_total", "Total number of snapshots published to the cabin bus")
	m.busErrors = m.counter("bus_errors_total", "Total number of failed cabin bus publishes")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total number of errors by component",
	}, []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total number of errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordCapture increments the capture counter.
func RecordCapture() { globalManager.captures.Inc() }

// RecordCaptureError increments the failed capture counter.
func RecordCaptureError() { globalManager.captureErrors.Inc() }

// RecordExtractionError counts a window rejected as invalid input.
func RecordExtractionError() { globalManager.extractionErrors.Inc() }

// RecordClassification counts one classification outcome.
func RecordClassification(state, risk string) {
	globalManager.classifications.WithLabelValues(state, risk).Inc()
}

// UpdateFeature sets the latest value of one extracted feature.
func UpdateFeature(name string, value float64) {
	globalManager.lastFeature.WithLabelValues(name).Set(value)
}

// RecordAnalysisLatency records extraction plus classification time.
func RecordAnalysisLatency(latencyMs float64) { globalManager.analysisLatency.Observe(latencyMs) }

// UpdateSnapshotVersion sets the latest published snapshot version.
func UpdateSnapshotVersion(v uint64) { globalManager.snapshotVersion.Set(float64(v)) }

// UpdateMonitorRunning flags whether the polling loop runs.
func UpdateMonitorRunning(running bool) {
	if running {
		globalManager.monitorRunning.Set(1)
		return
	}
	globalManager.monitorRunning.Set(0)
}

// UpdateAlertQueueSize sets the number of pending alerts.
func UpdateAlertQueueSize(size int) { globalManager.alertQueueSize.Set(float64(size)) }

// UpdateAlertQueueCapacity sets the alert queue capacity.
func UpdateAlertQueueCapacity(capacity int) {
	globalManager.alertQueueCapacity.Set(float64(capacity))
}

// RecordAlertEnqueued counts an accepted alert.
func RecordAlertEnqueued() { globalManager.alertsEnqueued.Inc() }

// RecordAlertDropped counts a refused alert.
func RecordAlertDropped(reason string) { globalManager.alertsDropped.WithLabelValues(reason).Inc() }

// RecordNotificationSent counts a completed escalation.
func RecordNotificationSent() { globalManager.notificationsSent.Inc() }

// RecordNotificationFailed counts a failed escalation.
func RecordNotificationFailed() { globalManager.notificationsFailed.Inc() }

// RecordNotificationThrottled counts an escalation suppressed by the rate limit.
func RecordNotificationThrottled() { globalManager.notificationsThrottled.Inc() }

// RecordIncidentStored counts a persisted incident.
func RecordIncidentStored() { globalManager.incidentsStored.Inc() }

// AddWebSocketClients adjusts the live subscriber gauge by delta.
func AddWebSocketClients(delta int) { globalManager.wsClients.Add(float64(delta)) }

// RecordBusPublish counts a snapshot sent to the cabin bus.
func RecordBusPublish() { globalManager.busPublishes.Inc() }

// RecordBusError counts a failed cabin bus publish.
func RecordBusError() { globalManager.busErrors.Inc() }

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

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
