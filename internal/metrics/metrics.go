// Package metrics exposes supervisor-level Prometheus counters and
// gauges describing the worker fleet. Workers themselves never import
// this package: each must stay a single-purpose, single-threaded event
// loop (spec.md §5), so the metrics are registered and served by the
// supervisor process only, the same split tqserver draws between its
// frontend proxy metrics and its worker metrics (server/src/metrics.go).
// Workers report nothing back to the supervisor, and nothing in this
// module updates these metrics after NewRegistry registers them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric this binary exports.
type Registry struct {
	WorkersUp           *prometheus.GaugeVec
	WorkerRestartsTotal *prometheus.CounterVec
	ConnectionsTotal    *prometheus.CounterVec
	RequestsTotal       *prometheus.CounterVec
	FastCGIErrorsTotal  *prometheus.CounterVec
}

// NewRegistry registers and returns the metric set.
func NewRegistry() *Registry {
	return &Registry{
		WorkersUp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "webserv_workers_up",
			Help: "1 if the worker for a configured port is running, else 0.",
		}, []string{"port"}),
		WorkerRestartsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "webserv_worker_restarts_total",
			Help: "Total number of times a worker process was restarted by the supervisor.",
		}, []string{"port"}),
		ConnectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "webserv_connections_total",
			Help: "Total accepted connections per worker port.",
		}, []string{"port"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "webserv_requests_total",
			Help: "Total requests handled per worker port and response status.",
		}, []string{"port", "status"}),
		FastCGIErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "webserv_fastcgi_errors_total",
			Help: "Total FastCGI upstream errors per configured endpoint.",
		}, []string{"endpoint"}),
	}
}

// Serve starts a minimal debug HTTP listener exposing /metrics, blocking
// until the listener fails. Intended to be run in its own goroutine by
// the supervisor only, never by a worker.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
