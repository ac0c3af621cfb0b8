// Package metrics provides Prometheus metrics for the packer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "packer"

// Recorder owns the packer collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	packagesTotal   *prometheus.CounterVec
	solveDuration   prometheus.Histogram
	batchSize       prometheus.Histogram
	shippedTotal    prometheus.Counter
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the packer collectors, plus Go runtime and process
// collectors, on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		packagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packages_solved_total",
				Help:      "Total number of optimised packages by outcome",
			},
			[]string{"status"},
		),
		solveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "package_solve_duration_seconds",
				Help:      "Time spent optimising a single package",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		batchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_packages",
				Help:      "Number of packages per batch",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		shippedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packages_shipped_total",
				Help:      "Total number of packages flagged for shipment",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// ObservePackage records the outcome of optimising one package.
func (r *Recorder) ObservePackage(duration time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.packagesTotal.WithLabelValues(status).Inc()
	r.solveDuration.Observe(duration.Seconds())
}

// ObserveBatch records a completed batch.
func (r *Recorder) ObserveBatch(size, shipped int) {
	if r == nil {
		return
	}
	r.batchSize.Observe(float64(size))
	r.shippedTotal.Add(float64(shipped))
}

// ObserveRequest records a served HTTP request.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
