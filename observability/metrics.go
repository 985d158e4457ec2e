package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Quote resolution metrics
	QuoteRequestsTotal *prometheus.CounterVec
	QuoteFallbacksTotal prometheus.Counter
	QuoteDuration      *prometheus.HistogramVec

	// Ledger refresh metrics
	RefreshDuration *prometheus.HistogramVec

	// Trade metrics
	TradesTotal *prometheus.CounterVec

	// Reconciliation metrics
	ImportRowsTotal *prometheus.CounterVec

	// Snapshot persistence metrics
	SnapshotOpsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		QuoteRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockfolio",
				Subsystem: "quotes",
				Name:      "requests_total",
				Help:      "Total number of quote source requests",
			},
			[]string{"source", "outcome"},
		),
		QuoteFallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "stockfolio",
				Subsystem: "quotes",
				Name:      "fallbacks_total",
				Help:      "Total number of resolutions that fell through to the secondary source",
			},
		),
		QuoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stockfolio",
				Subsystem: "quotes",
				Name:      "duration_seconds",
				Help:      "Duration of quote source requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"source"},
		),
		RefreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stockfolio",
				Subsystem: "ledger",
				Name:      "refresh_duration_seconds",
				Help:      "Duration of full-book price refreshes in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"book"},
		),
		TradesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockfolio",
				Subsystem: "ledger",
				Name:      "trades_total",
				Help:      "Total number of committed trades",
			},
			[]string{"book", "side"},
		),
		ImportRowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockfolio",
				Subsystem: "reconcile",
				Name:      "import_rows_total",
				Help:      "Total number of imported rows by merge outcome",
			},
			[]string{"book", "outcome"},
		),
		SnapshotOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockfolio",
				Subsystem: "snapshot",
				Name:      "operations_total",
				Help:      "Total number of snapshot loads and saves",
			},
			[]string{"book", "operation", "outcome"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockfolio",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stockfolio",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "stockfolio",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockfolio",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// SetMetrics overrides the global metrics instance (useful for testing)
func SetMetrics(m *Metrics) {
	globalMetrics = m
}

// RecordQuoteRequest records a quote source request and its outcome
func (m *Metrics) RecordQuoteRequest(source, outcome string, duration time.Duration) {
	m.QuoteRequestsTotal.WithLabelValues(source, outcome).Inc()
	m.QuoteDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordQuoteFallback records a resolution falling through to the secondary source
func (m *Metrics) RecordQuoteFallback() {
	m.QuoteFallbacksTotal.Inc()
}

// RecordRefresh records the duration of a full-book refresh
func (m *Metrics) RecordRefresh(book string, duration time.Duration) {
	m.RefreshDuration.WithLabelValues(book).Observe(duration.Seconds())
}

// RecordTrade records a committed buy or sell
func (m *Metrics) RecordTrade(book, side string) {
	m.TradesTotal.WithLabelValues(book, side).Inc()
}

// RecordImport records merge outcomes for an import batch
func (m *Metrics) RecordImport(book string, added, dropped int) {
	m.ImportRowsTotal.WithLabelValues(book, "added").Add(float64(added))
	m.ImportRowsTotal.WithLabelValues(book, "dropped").Add(float64(dropped))
}

// RecordSnapshotOp records a snapshot load or save
func (m *Metrics) RecordSnapshotOp(book, operation, outcome string) {
	m.SnapshotOpsTotal.WithLabelValues(book, operation, outcome).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}
