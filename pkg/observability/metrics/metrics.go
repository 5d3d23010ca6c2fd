// Package metrics implements the observability hooks with Prometheus
// collectors.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/deptree/pkg/observability"
)

// Metrics holds the collectors. It implements
// [observability.ResolveHooks], [observability.CacheHooks] and
// [observability.HTTPHooks].
type Metrics struct {
	resolveTotal    *prometheus.CounterVec
	resolveErrors   *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	resolveNodes    prometheus.Histogram
	inflight        prometheus.Gauge

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	registryRequests *prometheus.CounterVec
	registryErrors   *prometheus.CounterVec
	registryDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deptree_resolve_total",
				Help: "Number of top-level tree resolutions by registry.",
			},
			[]string{"registry"},
		),
		resolveErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deptree_resolve_error_total",
				Help: "Number of failed top-level tree resolutions by registry.",
			},
			[]string{"registry"},
		),
		resolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deptree_resolve_duration_seconds",
				Help:    "Time taken to resolve a full dependency tree.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"registry"},
		),
		resolveNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deptree_resolve_nodes",
				Help:    "Number of nodes in resolved trees.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		inflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "deptree_resolve_inflight",
				Help: "Resolutions currently in progress.",
			},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deptree_cache_hits_total",
				Help: "Cache hits by key type.",
			},
			[]string{"type"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deptree_cache_misses_total",
				Help: "Cache misses by key type.",
			},
			[]string{"type"},
		),
		cacheBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deptree_cache_written_bytes_total",
				Help: "Bytes written to the cache by key type.",
			},
			[]string{"type"},
		),
		registryRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deptree_registry_requests_total",
				Help: "Outgoing registry requests by host and status code.",
			},
			[]string{"host", "code"},
		),
		registryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deptree_registry_errors_total",
				Help: "Registry requests that failed before a response was received.",
			},
			[]string{"host"},
		),
		registryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deptree_registry_request_duration_seconds",
				Help:    "Latency of registry requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"host"},
		),
	}

	reg.MustRegister(
		m.resolveTotal,
		m.resolveErrors,
		m.resolveDuration,
		m.resolveNodes,
		m.inflight,
		m.cacheHits,
		m.cacheMisses,
		m.cacheBytes,
		m.registryRequests,
		m.registryErrors,
		m.registryDuration,
	)
	return m
}

// Register installs m as the process-wide hooks.
func (m *Metrics) Register() {
	observability.SetResolveHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnResolveStart(_ context.Context, registry, _, _ string) {
	m.resolveTotal.WithLabelValues(registry).Inc()
	m.inflight.Inc()
}

func (m *Metrics) OnResolveComplete(_ context.Context, registry, _, _ string, nodes int, d time.Duration, err error) {
	m.inflight.Dec()
	m.resolveDuration.WithLabelValues(registry).Observe(d.Seconds())
	if err != nil {
		m.resolveErrors.WithLabelValues(registry).Inc()
		return
	}
	m.resolveNodes.Observe(float64(nodes))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheHits.WithLabelValues(keyType).Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheMisses.WithLabelValues(keyType).Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	m.registryRequests.WithLabelValues(host, statusLabel(code)).Inc()
	m.registryDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.registryErrors.WithLabelValues(host).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

var (
	_ observability.ResolveHooks = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
	_ observability.HTTPHooks    = (*Metrics)(nil)
)
