// Package metrics exposes storefront counters on a private prometheus registry.
// All methods are safe on a nil *Metrics so components can run without metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics holds the storefront collectors
type Metrics struct {
	Registry       *prometheus.Registry
	SearchOutcomes *prometheus.CounterVec
	CartMutations  *prometheus.CounterVec
	CatalogLoads   *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		SearchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_outcomes_total",
			Help:      "Search requests by outcome (resolved, superseded, failed, bypassed).",
		}, []string{"outcome"}),
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		CatalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_loads_total",
			Help:      "Catalog fetches by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Handled storefront HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.SearchOutcomes,
		m.CartMutations,
		m.CatalogLoads,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSearch counts one search outcome
func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.SearchOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveCartMutation counts one cart operation
func (m *Metrics) ObserveCartMutation(op, outcome string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(op, outcome).Inc()
}

// ObserveCatalogLoad counts one catalog fetch
func (m *Metrics) ObserveCatalogLoad(outcome string) {
	if m == nil {
		return
	}
	m.CatalogLoads.WithLabelValues(outcome).Inc()
}

// ObserveHTTP counts one handled request
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
