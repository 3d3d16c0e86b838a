package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Homestead.
type Metrics struct {
	// Cx transaction metrics, by latency bucket (hss, hss_digest, hss_subscription, cache)
	CxTransactionsTotal  *prometheus.CounterVec
	CxTransactionLatency *prometheus.HistogramVec
	CxTimeoutsTotal      *prometheus.CounterVec

	// Cache request layer metrics
	CacheOpsTotal    *prometheus.CounterVec
	CacheOpLatency   *prometheus.HistogramVec
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Realm manager metrics
	RealmPeersConnected  prometheus.Gauge
	RealmPeersTombstoned prometheus.Gauge
	RealmResolveTotal    *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// HTTP surface metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Downstream sprout notification metrics
	SproutNotifyTotal    *prometheus.CounterVec
	SproutNotifyDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		CxTransactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestead_cx_transactions_total",
				Help: "Total number of Cx Diameter transactions sent to the HSS",
			},
			[]string{"command", "result"},
		),
		CxTransactionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homestead_cx_transaction_duration_seconds",
				Help:    "Time taken for a Cx transaction round trip, by statistics bucket",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1, 2},
			},
			[]string{"bucket", "command"},
		),
		CxTimeoutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestead_cx_timeouts_total",
				Help: "Total number of Cx transactions that timed out waiting for an answer",
			},
			[]string{"command"},
		),

		CacheOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestead_cache_ops_total",
				Help: "Total number of cache request layer operations",
			},
			[]string{"op", "result"},
		),
		CacheOpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homestead_cache_op_duration_seconds",
				Help:    "Duration of cache request layer operations against the backing store",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
			},
			[]string{"op", "backend"},
		),
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestead_cache_hits_total",
				Help: "Total number of read-through cache hits",
			},
			[]string{"op"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestead_cache_misses_total",
				Help: "Total number of read-through cache misses",
			},
			[]string{"op"},
		),

		RealmPeersConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "homestead_realm_peers_connected",
				Help: "Number of Diameter peers currently connected",
			},
		),
		RealmPeersTombstoned: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "homestead_realm_peers_tombstoned",
				Help: "Number of Diameter peers currently tombstoned, pending removal",
			},
		),
		RealmResolveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestead_realm_resolve_total",
				Help: "Total number of realm peer resolution attempts",
			},
			[]string{"result"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "homestead_circuit_breaker_state",
				Help: "Current circuit breaker state per service: 0=closed, 1=half-open, 2=open",
			},
			[]string{"service"},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestead_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"limit_type", "identifier"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestead_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homestead_http_request_duration_seconds",
				Help:    "Duration of HTTP requests served",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"route", "method"},
		),

		SproutNotifyTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestead_sprout_notify_total",
				Help: "Total number of downstream deregistration notifications sent to the SIP router",
			},
			[]string{"result"},
		),
		SproutNotifyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homestead_sprout_notify_duration_seconds",
				Help:    "Duration of downstream deregistration notification calls",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"result"},
		),
	}
}

// ObserveCxTransaction records a completed Cx transaction.
func (m *Metrics) ObserveCxTransaction(bucket, command, result string, duration time.Duration) {
	m.CxTransactionsTotal.WithLabelValues(command, result).Inc()
	m.CxTransactionLatency.WithLabelValues(bucket, command).Observe(duration.Seconds())
}

// ObserveCxTimeout records a Cx transaction that timed out.
func (m *Metrics) ObserveCxTimeout(command string) {
	m.CxTimeoutsTotal.WithLabelValues(command).Inc()
}

// ObserveCacheOp records a cache request layer operation against the backing store.
func (m *Metrics) ObserveCacheOp(op, backend, result string, duration time.Duration) {
	m.CacheOpsTotal.WithLabelValues(op, result).Inc()
	m.CacheOpLatency.WithLabelValues(op, backend).Observe(duration.Seconds())
}

// ObserveCacheLookup records a read-through micro-cache hit or miss.
func (m *Metrics) ObserveCacheLookup(op string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(op).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(op).Inc()
	}
}

// SetRealmPeerCounts updates the realm manager peer gauges.
func (m *Metrics) SetRealmPeerCounts(connected, tombstoned int) {
	m.RealmPeersConnected.Set(float64(connected))
	m.RealmPeersTombstoned.Set(float64(tombstoned))
}

// ObserveRealmResolve records a realm resolution attempt.
func (m *Metrics) ObserveRealmResolve(result string) {
	m.RealmResolveTotal.WithLabelValues(result).Inc()
}

// SetCircuitBreakerState records a circuit breaker's numeric state (0=closed, 1=half-open, 2=open).
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// ObserveRateLimit records a rate limit hit.
func (m *Metrics) ObserveRateLimit(limitType, identifier string) {
	m.RateLimitHitsTotal.WithLabelValues(limitType, identifier).Inc()
}

// ObserveHTTPRequest records a served HTTP request.
func (m *Metrics) ObserveHTTPRequest(route, method, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// ObserveSproutNotify records a downstream deregistration notification.
func (m *Metrics) ObserveSproutNotify(result string, duration time.Duration) {
	m.SproutNotifyTotal.WithLabelValues(result).Inc()
	m.SproutNotifyDuration.WithLabelValues(result).Observe(duration.Seconds())
}
