package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifetimeline/internal/exchange"
)

// metrics holds the server's collectors on a private registry.
type metrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	imported *prometheus.CounterVec
}

func newMetrics(s *Server) *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifetimeline",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lifetimeline",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		imported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifetimeline",
			Name:      "import_rows_total",
			Help:      "Rows seen by successful imports, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	events := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "lifetimeline",
		Name:      "events",
		Help:      "Number of events in the store.",
	}, func() float64 {
		var n int
		s.Exclusive(func() { n = s.store.Len() })
		return float64(n)
	})

	m.reg.MustRegister(
		m.requests,
		m.duration,
		m.imported,
		events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *metrics) observeImport(kind string, rep exchange.Report) {
	m.imported.WithLabelValues(kind, "added").Add(float64(rep.Added))
	m.imported.WithLabelValues(kind, "incomplete").Add(float64(rep.Incomplete))
	m.imported.WithLabelValues(kind, "duplicate").Add(float64(rep.Duplicates))
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

// instrument records count and latency per route. The mux fills in
// r.Pattern while serving, so it is read afterwards.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
