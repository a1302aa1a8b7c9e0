package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all production service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaEventsConsumed  *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations        *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Outbox metrics
	OutboxPending    prometheus.Gauge
	OutboxPublished  *prometheus.CounterVec
	OutboxRetries    *prometheus.CounterVec

	// Production metrics
	JobTransitions        *prometheus.CounterVec
	JobRejections         *prometheus.CounterVec
	OverrideFailures      prometheus.Counter
	VersionConflicts      prometheus.Counter
	TestPrintDecisions    *prometheus.CounterVec
	QCDecisions           *prometheus.CounterVec
	SpoiledUnits          *prometheus.CounterVec
	ShipmentsConfirmed    *prometheus.CounterVec
	NotificationsSent     *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
	// IncludeRuntime registers the Go and process collectors
	IncludeRuntime bool
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName:    serviceName,
		Namespace:      "production",
		IncludeRuntime: true,
	}
}

// New creates a new Metrics instance with its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	if config.IncludeRuntime {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "kafka_events_published_total",
			Help:      "Total number of Kafka events published",
		},
		[]string{"service", "topic", "event_type", "status"},
	)

	m.KafkaEventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "kafka_events_consumed_total",
			Help:      "Total number of Kafka events consumed",
		},
		[]string{"service", "topic", "event_type", "status"},
	)

	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)

	m.StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "store_operations_total",
			Help:      "Total number of job store operations",
		},
		[]string{"service", "backend", "collection", "operation", "status"},
	)

	m.StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "store_operation_duration_seconds",
			Help:      "Job store operation duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "backend", "collection", "operation"},
	)

	m.OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "outbox_pending_events",
			Help:        "Number of outbox events waiting to be published",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "outbox_events_published_total",
			Help:      "Total number of outbox events relayed to Kafka",
		},
		[]string{"service", "event_type", "status"},
	)

	m.OutboxRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "outbox_event_retries_total",
			Help:      "Total number of outbox publish retries",
		},
		[]string{"service", "event_type"},
	)

	m.JobTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "job_transitions_total",
			Help:      "Accepted job status transitions",
		},
		[]string{"service", "event", "from", "to"},
	)

	m.JobRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "job_rejections_total",
			Help:      "Rejected job operations by error code",
		},
		[]string{"service", "operation", "code"},
	)

	m.OverrideFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "override_failures_total",
			Help:        "Manager override attempts with a wrong code",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.VersionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "job_version_conflicts_total",
			Help:        "Compare-and-swap conflicts on job writes",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.TestPrintDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "test_print_decisions_total",
			Help:      "Supervisor test print decisions",
		},
		[]string{"service", "decision"},
	)

	m.QCDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "qc_decisions_total",
			Help:      "QC inspection decisions",
		},
		[]string{"service", "decision", "mode"},
	)

	m.SpoiledUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "spoiled_units_total",
			Help:      "Units recorded as spoiled",
		},
		[]string{"service", "source", "reason"},
	)

	m.ShipmentsConfirmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "shipments_confirmed_total",
			Help:      "Confirmed job shipments",
		},
		[]string{"service", "carrier"},
	)

	m.NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "notifications_total",
			Help:      "Outbound notifications by kind and outcome",
		},
		[]string{"service", "kind", "status"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service", "name"},
	)

	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaEventsConsumed,
		m.KafkaPublishDuration,
		m.StoreOperations,
		m.StoreOperationDuration,
		m.OutboxPending,
		m.OutboxPublished,
		m.OutboxRetries,
		m.JobTransitions,
		m.JobRejections,
		m.OverrideFailures,
		m.VersionConflicts,
		m.TestPrintDecisions,
		m.QCDecisions,
		m.SpoiledUnits,
		m.ShipmentsConfirmed,
		m.NotificationsSent,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordKafkaConsume records a Kafka consume event
func (m *Metrics) RecordKafkaConsume(topic, eventType string, success bool) {
	m.KafkaEventsConsumed.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
}

// RecordStoreOperation records a job store operation
func (m *Metrics) RecordStoreOperation(backend, collection, operation string, success bool, duration time.Duration) {
	m.StoreOperations.WithLabelValues(m.serviceName, backend, collection, operation, statusLabel(success)).Inc()
	m.StoreOperationDuration.WithLabelValues(m.serviceName, backend, collection, operation).Observe(duration.Seconds())
}

// SetOutboxPending sets the number of unpublished outbox events
func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxPublish records an outbox relay attempt
func (m *Metrics) RecordOutboxPublish(eventType string, success bool) {
	m.OutboxPublished.WithLabelValues(m.serviceName, eventType, statusLabel(success)).Inc()
}

// RecordOutboxRetry records an outbox retry
func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(m.serviceName, eventType).Inc()
}

// RecordTransition records an accepted status transition
func (m *Metrics) RecordTransition(event, from, to string) {
	m.JobTransitions.WithLabelValues(m.serviceName, event, from, to).Inc()
}

// RecordRejection records a rejected operation
func (m *Metrics) RecordRejection(operation, code string) {
	m.JobRejections.WithLabelValues(m.serviceName, operation, code).Inc()
}

// RecordOverrideFailure records a wrong manager override code
func (m *Metrics) RecordOverrideFailure() {
	m.OverrideFailures.Inc()
}

// RecordVersionConflict records a lost compare-and-swap
func (m *Metrics) RecordVersionConflict() {
	m.VersionConflicts.Inc()
}

// RecordTestPrintDecision records a supervisor decision
func (m *Metrics) RecordTestPrintDecision(decision string) {
	m.TestPrintDecisions.WithLabelValues(m.serviceName, decision).Inc()
}

// RecordQCDecision records a QC inspection decision
func (m *Metrics) RecordQCDecision(decision, mode string) {
	m.QCDecisions.WithLabelValues(m.serviceName, decision, mode).Inc()
}

// RecordSpoilage adds spoiled units
func (m *Metrics) RecordSpoilage(source, reason string, units int) {
	if units <= 0 {
		return
	}
	m.SpoiledUnits.WithLabelValues(m.serviceName, source, reason).Add(float64(units))
}

// RecordShipment records a confirmed shipment
func (m *Metrics) RecordShipment(carrier string) {
	m.ShipmentsConfirmed.WithLabelValues(m.serviceName, carrier).Inc()
}

// RecordNotification records an outbound notification attempt
func (m *Metrics) RecordNotification(kind string, success bool) {
	m.NotificationsSent.WithLabelValues(m.serviceName, kind, statusLabel(success)).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
