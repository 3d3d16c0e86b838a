package observability

import (
	"context"

	"github.com/clearwater-ims/homestead/internal/metrics"
)

// PrometheusHook adapts observability events to Prometheus metrics.
type PrometheusHook struct {
	metrics *metrics.Metrics
}

// NewPrometheusHook creates a hook that emits events to Prometheus metrics.
func NewPrometheusHook(m *metrics.Metrics) *PrometheusHook {
	return &PrometheusHook{metrics: m}
}

func (h *PrometheusHook) Name() string {
	return "prometheus"
}

func (h *PrometheusHook) OnCxTransactionCompleted(ctx context.Context, event CxTransactionEvent) {
	result := "success"
	if event.TimedOut {
		result = "timeout"
		h.metrics.ObserveCxTimeout(event.Command)
	} else if !event.Success {
		result = "failure"
	}
	h.metrics.ObserveCxTransaction(event.Bucket, event.Command, result, event.Duration)
}

func (h *PrometheusHook) OnCacheOp(ctx context.Context, event CacheOpEvent) {
	h.metrics.ObserveCacheOp(event.Op, event.Backend, event.Result, event.Duration)
}

func (h *PrometheusHook) OnRealmResolve(ctx context.Context, event RealmResolveEvent) {
	h.metrics.SetRealmPeerCounts(event.PeersConnected, event.PeersTombstoned)
	result := "success"
	if !event.Success {
		result = "failure"
	}
	h.metrics.ObserveRealmResolve(result)
}
