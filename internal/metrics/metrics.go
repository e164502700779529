/**
 * @description
 * Prometheus metrics for the Alertdesk backend.
 * Request counters/latency per route, alert batch outcomes and pool stats.
 *
 * @dependencies
 * - github.com/prometheus/client_golang
 * - github.com/gofiber/fiber/v2
 */

package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alertdesk"

// Batch outcomes recorded by ObserveBatch
const (
	BatchCommitted  = "committed"
	BatchRolledBack = "rolled_back"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AlertsCreated   prometheus.Counter
	AlertBatches    *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AlertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "created_total",
			Help:      "Alert rows committed by batch creation",
		}),
		AlertBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "batches_total",
			Help:      "Alert batch transactions by outcome",
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Alert change events by type and result",
		}, []string{"type", "result"}),
	}

	m.Registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.AlertsCreated,
		m.AlertBatches,
		m.EventsPublished,
		collectors.NewGoCollector(),
	)
	return m
}

// RegisterPool exports database/sql pool stats (open, in use, wait count...)
func (m *Metrics) RegisterPool(db *sql.DB) {
	if m == nil || db == nil {
		return
	}
	m.Registry.MustRegister(collectors.NewDBStatsCollector(db, namespace))
}

// ObserveBatch records the outcome of an alert batch
func (m *Metrics) ObserveBatch(outcome string, rows int) {
	if m == nil {
		return
	}
	m.AlertBatches.WithLabelValues(outcome).Inc()
	if outcome == BatchCommitted {
		m.AlertsCreated.Add(float64(rows))
	}
}

// ObserveEvent records a publish attempt for an alert change event
func (m *Metrics) ObserveEvent(eventType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, result).Inc()
}

// Middleware records request count and latency by matched route
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

		// Fiber strings alias the reused request buffer; labels outlive the request.
		method := utils.CopyString(c.Method())
		route := utils.CopyString(c.Route().Path)
		m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
