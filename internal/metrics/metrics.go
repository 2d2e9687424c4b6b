// Package metrics exposes Prometheus collectors for walks, provider pages,
// HTTP requests and the sandbox store.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzbill/commlog/internal/commlog"
	pebblestore "github.com/rzbill/commlog/internal/storage/pebble"
	"github.com/rzbill/commlog/internal/walker"
)

const namespace = "commlog"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	pages       *prometheus.CounterVec
	pageLatency *prometheus.HistogramVec
	retries     *prometheus.CounterVec
	drops       *prometheus.CounterVec
	walks       *prometheus.CounterVec
	walkSize    *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	storeRead   prometheus.Histogram
	storeWrite  prometheus.Histogram
	storeCommit prometheus.Histogram
	storeBytes  *prometheus.CounterVec
}

var (
	_ walker.Observer         = (*Metrics)(nil)
	_ pebblestore.MetricsHook = (*Metrics)(nil)
)

// New registers all collectors plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "provider", Name: "pages_total",
			Help: "Provider pages fetched.",
		}, []string{"kind"}),
		pageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "provider", Name: "page_seconds",
			Help:    "Latency of successful provider page fetches, retries included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "provider", Name: "retries_total",
			Help: "Provider page fetch retries.",
		}, []string{"kind"}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "walk", Name: "dropped_records_total",
			Help: "Records dropped because they could not be normalized.",
		}, []string{"kind"}),
		walks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "walk", Name: "completed_total",
			Help: "Walks by stop condition.",
		}, []string{"kind", "stop"}),
		walkSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "walk", Name: "entries",
			Help:    "Entries materialized per walk.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		storeRead: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "read_seconds",
			Help: "Sandbox store read latency.", Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		storeWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "write_seconds",
			Help: "Sandbox store single-key write latency.", Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		storeCommit: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "batch_commit_seconds",
			Help: "Sandbox store batch commit latency.", Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		storeBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "bytes_total",
			Help: "Bytes read and written by the sandbox store.",
		}, []string{"op"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pages, m.pageLatency, m.retries, m.drops, m.walks, m.walkSize,
		m.httpRequests, m.httpLatency,
		m.storeRead, m.storeWrite, m.storeCommit, m.storeBytes,
	)
	return m
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) PageFetched(kind commlog.Kind, _ int, took time.Duration) {
	m.pages.WithLabelValues(string(kind)).Inc()
	m.pageLatency.WithLabelValues(string(kind)).Observe(took.Seconds())
}

func (m *Metrics) PageRetried(kind commlog.Kind) {
	m.retries.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RecordDropped(kind commlog.Kind) {
	m.drops.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) WalkFinished(kind commlog.Kind, stop walker.Stop, entries int) {
	m.walks.WithLabelValues(string(kind), string(stop)).Inc()
	m.walkSize.WithLabelValues(string(kind)).Observe(float64(entries))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, code int, took time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(took.Seconds())
}

func (m *Metrics) ObserveRead(elapsed time.Duration, bytes int) {
	m.storeRead.Observe(elapsed.Seconds())
	m.storeBytes.WithLabelValues("read").Add(float64(bytes))
}

func (m *Metrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.storeWrite.Observe(elapsed.Seconds())
	m.storeBytes.WithLabelValues("write").Add(float64(bytes))
}

func (m *Metrics) ObserveBatchCommit(elapsed time.Duration, _ int, bytes int) {
	m.storeCommit.Observe(elapsed.Seconds())
	m.storeBytes.WithLabelValues("write").Add(float64(bytes))
}
