// Package metrics exposes Prometheus counters for HTTP traffic and entity
// store activity.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	mutations *prometheus.CounterVec
	failures  *prometheus.CounterVec
	snapshots *prometheus.CounterVec
	records   *prometheus.GaugeVec
	sessions  prometheus.GaugeFunc
}

// New registers every collector on a fresh registry. activeSessions may be nil.
func New(activeSessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "breeza",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "breeza",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "breeza",
			Name:      "store_mutations_total",
			Help:      "Optimistic local mutations applied to entity stores.",
		}, []string{"tenant", "collection", "action"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "breeza",
			Name:      "store_write_failures_total",
			Help:      "Remote writes that failed and were rolled back.",
		}, []string{"tenant", "collection", "action"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "breeza",
			Name:      "store_snapshots_total",
			Help:      "Remote snapshots applied to entity stores.",
		}, []string{"tenant", "collection"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "breeza",
			Name:      "store_records",
			Help:      "Records held per collection after the last snapshot.",
		}, []string{"tenant", "collection"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.mutations, m.failures, m.snapshots, m.records,
	)
	if activeSessions != nil {
		m.sessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "breeza",
			Name:      "active_sessions",
			Help:      "Sessions that have not idled out.",
		}, func() float64 { return float64(activeSessions()) })
		reg.MustRegister(m.sessions)
	}
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware counts requests by matched route so ids do not explode labels.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// StoreObserver reports entity store events for one tenant.
type StoreObserver struct {
	m      *Metrics
	tenant string
}

func (m *Metrics) ForTenant(tenantID string) *StoreObserver {
	return &StoreObserver{m: m, tenant: tenantID}
}

func (o *StoreObserver) SnapshotApplied(collection string, size int) {
	o.m.snapshots.WithLabelValues(o.tenant, collection).Inc()
	o.m.records.WithLabelValues(o.tenant, collection).Set(float64(size))
}

func (o *StoreObserver) Mutated(collection, action string) {
	o.m.mutations.WithLabelValues(o.tenant, collection, action).Inc()
}

func (o *StoreObserver) WriteFailed(collection, action string) {
	o.m.failures.WithLabelValues(o.tenant, collection, action).Inc()
}
