package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the HTTP and dispatch collectors and the registry they are
// exposed from.
type Metrics struct {
	responseTime              prometheus.Histogram
	totalHttpRequestsFromRole *prometheus.CounterVec
	totalHttpRequestsToUri    *prometheus.CounterVec
	totalHttpRequests         *prometheus.CounterVec
	routeDispatches           *prometheus.CounterVec
	routesBound               *prometheus.CounterVec
	registryBuilds            prometheus.Counter

	handler http.Handler
}

// New registers every collector on reg and serves them from it.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		responseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60},
		}),
		totalHttpRequestsFromRole: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_from_role", Help: "http requests from role"},
			[]string{"role"},
		),
		totalHttpRequestsToUri: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
			[]string{"code", "uri", "method"},
		),
		totalHttpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
			[]string{"code", "method"},
		),
		routeDispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "route_dispatches_total", Help: "bound handlers invoked, by method"},
			[]string{"method"},
		),
		routesBound: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "routes_bound_total", Help: "handlers added to the route table, by verb"},
			[]string{"verb"},
		),
		registryBuilds: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "registry_builds_total", Help: "middleware registry builds"},
		),
	}
	reg.MustRegister(
		m.responseTime,
		m.totalHttpRequestsFromRole,
		m.totalHttpRequestsToUri,
		m.totalHttpRequests,
		m.routeDispatches,
		m.routesBound,
		m.registryBuilds,
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler { return m.handler }

// ObserveDispatch counts one bound handler invocation.
func (m *Metrics) ObserveDispatch(method string) {
	m.routeDispatches.WithLabelValues(method).Inc()
}

// ObserveBind counts one route table binding.
func (m *Metrics) ObserveBind(verb string) {
	m.routesBound.WithLabelValues(verb).Inc()
}

// ObserveBuild counts one registry build.
func (m *Metrics) ObserveBuild() { m.registryBuilds.Inc() }

// ProvideMetrics is the Fx provider used by the server wiring.
func ProvideMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}
