package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported on /metrics. Each Metrics
// has its own registry so several servers can coexist in one process.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	namesSampled    *prometheus.CounterVec
	namesScored     *prometheus.CounterVec
	modelLoads      *prometheus.CounterVec
}

// NewMetrics creates and registers the API collectors along with the
// standard Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bznames_api_requests_total",
				Help: "Total number of API requests by route and status code",
			},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bznames_api_request_duration_seconds",
				Help:    "API request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		namesSampled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bznames_names_sampled_total",
				Help: "Total number of names generated by model",
			},
			[]string{"model"},
		),
		namesScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bznames_names_scored_total",
				Help: "Total number of names scored by model",
			},
			[]string{"model"},
		),
		modelLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bznames_model_loads_total",
				Help: "Total number of models restored from the database",
			},
			[]string{"model"},
		),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.namesSampled,
		m.namesScored,
		m.modelLoads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps h so its requests are counted and timed under route.
func (m *Metrics) Instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}
