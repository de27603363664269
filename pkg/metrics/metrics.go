package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for generated invoices.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeRenderError  = "render_error"
	OutcomeIOError      = "io_error"
	OutcomeError        = "error"
)

// Metrics collects Prometheus metrics for invoice generation and the HTTP API.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	generated       *prometheus.CounterVec
	genDuration     *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New initialises a dedicated registry and its collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	generated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_generated_total",
		Help: "Invoices generated by output format and outcome.",
	}, []string{"format", "outcome"})
	genDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoice_generation_duration_seconds",
		Help:    "Time spent computing, rendering and storing an invoice.",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoice_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	registry.MustRegister(generated, genDuration, requests, duration)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		generated:       generated,
		genDuration:     genDuration,
		requestsTotal:   requests,
		requestDuration: duration,
	}
}

// ObserveGeneration records one generation attempt.
func (m *Metrics) ObserveGeneration(format, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(format, outcome).Inc()
	m.genDuration.WithLabelValues(format).Observe(d.Seconds())
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		route := routeTemplate(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.Status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
