// Package metrics provides Prometheus instrumentation for the API.
//
// Wire it up once in the router:
//
//	r.Use(m.Middleware)
//	r.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prevozkop"

// Metrics owns its registry so tests and multiple servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	requestInFlight prometheus.Gauge

	ordersCreated *prometheus.CounterVec
	notifications *prometheus.CounterVec
	uploads       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		requestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Leads stored through the contact form.",
			},
			[]string{"concrete_type_set"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_notifications_total",
				Help:      "Order notification emails by outcome.",
			},
			[]string{"result"}, // "sent" | "skipped"
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Admin uploads by kind and outcome.",
			},
			[]string{"kind", "result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.requestTotal,
		m.requestInFlight,
		m.ordersCreated,
		m.notifications,
		m.uploads,
	)
	return m
}

// Middleware records duration, count and in-flight requests labelled by the
// matched chi route pattern, so ids and slugs do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{r.Method, route, strconv.Itoa(status)}
		m.requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(labels...).Inc()
	})
}

// Handler exposes the registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) OrderCreated(concreteTypeSet bool) {
	m.ordersCreated.WithLabelValues(strconv.FormatBool(concreteTypeSet)).Inc()
}

func (m *Metrics) NotificationResult(sent bool) {
	result := "skipped"
	if sent {
		result = "sent"
	}
	m.notifications.WithLabelValues(result).Inc()
}

// Upload records one upload attempt. kind is hero, media, image or document.
func (m *Metrics) Upload(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.uploads.WithLabelValues(kind, result).Inc()
}
