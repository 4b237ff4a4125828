package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bioplant-sim/bioplant-sim/plant"
)

// metrics holds the service's Prometheus collectors, registered on a private
// registry so tests can build handlers side by side.
type metrics struct {
	registry *prometheus.Registry

	simulationsStarted *prometheus.CounterVec
	simulationsStopped prometheus.Counter
	controlsApplied    prometheus.Counter
	streamClients      prometheus.Gauge
	requestDuration    *prometheus.HistogramVec
}

// newMetrics builds and registers the collectors, including a gauge sampling
// the manager's live simulation count on scrape.
func newMetrics(mgr *plant.Manager) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		simulationsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bioplant_simulations_started_total",
				Help: "Simulations started, by kind.",
			},
			[]string{"kind"},
		),
		simulationsStopped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bioplant_simulations_stopped_total",
				Help: "Simulations stopped by clients.",
			},
		),
		controlsApplied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bioplant_controls_applied_total",
				Help: "Control requests accepted.",
			},
		),
		streamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bioplant_stream_clients",
				Help: "Connected snapshot stream clients.",
			},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bioplant_http_request_duration_seconds",
				Help:    "HTTP request latency by route, method, and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}

	activeSims := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "bioplant_active_simulations",
			Help: "Live simulations in the manager.",
		},
		func() float64 { return float64(len(mgr.List())) },
	)

	m.registry.MustRegister(
		m.simulationsStarted,
		m.simulationsStopped,
		m.controlsApplied,
		m.streamClients,
		m.requestDuration,
		activeSims,
	)
	return m
}

// statusRecorder captures the response status for the duration histogram.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument is a chi middleware observing request durations per route.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
