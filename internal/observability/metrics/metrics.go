package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestDuration *prometheus.HistogramVec
	PurchasesRecorded   *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	WebhookEvents       *prometheus.CounterVec
	CheckoutSessions    *prometheus.CounterVec
}

// New builds the collectors on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		PurchasesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "purchases_recorded_total",
			Help: "Purchase records written, by type.",
		}, []string{"type"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notification deliveries attempted, by channel and outcome.",
		}, []string{"channel", "status"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events received, by event type and result.",
		}, []string{"event_type", "result"}),
		CheckoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "Hosted checkout sessions created, by price type.",
		}, []string{"price_type"}),
	}

	registry.MustRegister(
		m.HTTPRequestDuration,
		m.PurchasesRecorded,
		m.NotificationsSent,
		m.WebhookEvents,
		m.CheckoutSessions,
	)

	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
