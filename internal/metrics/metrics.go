// Package metrics exposes Prometheus instrumentation for HTTP requests and dataset loads.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibliodash_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bibliodash_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bibliodash_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// Datasets
	DatasetLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibliodash_dataset_loads_total",
			Help: "Total number of dataset loads by outcome",
		},
		[]string{"dataset", "status"},
	)

	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bibliodash_dataset_load_duration_seconds",
			Help:    "Time to parse and index a dataset file",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"dataset"},
	)

	DatasetBooks = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bibliodash_dataset_books",
			Help: "Number of books in the live copy of each dataset",
		},
		[]string{"dataset"},
	)

	// Exports and charts
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibliodash_exports_total",
			Help: "Total number of filtered-view downloads",
		},
		[]string{"dataset", "format"},
	)

	ChartRenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bibliodash_chart_render_duration_seconds",
			Help:    "Chart rendering duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "format"},
	)
)

// RecordLoad records the outcome of a dataset load. It matches the signature of
// catalog.ReloadHook.
func RecordLoad(dataset string, ds *models.Dataset, took time.Duration, err error) {
	if err != nil || ds == nil {
		DatasetLoads.WithLabelValues(dataset, "error").Inc()
		return
	}
	DatasetLoads.WithLabelValues(dataset, "success").Inc()
	DatasetLoadDuration.WithLabelValues(dataset).Observe(took.Seconds())
	DatasetBooks.WithLabelValues(dataset).Set(float64(ds.Len()))
}

// RecordExport counts one download.
func RecordExport(dataset, format string) {
	ExportsTotal.WithLabelValues(dataset, format).Inc()
}

// ObserveChart records the time taken to render one chart.
func ObserveChart(kind, format string, took time.Duration) {
	ChartRenderDuration.WithLabelValues(kind, format).Observe(took.Seconds())
}

// Middleware records request count, latency, and in-flight requests. Requests are
// labelled by chi route pattern so that dataset names and IDs do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
