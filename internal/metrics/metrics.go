// Package metrics holds the Prometheus collectors shared by the services and
// the HTTP adapter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the application exports.
type Metrics struct {
	CatalogRequests     *prometheus.CounterVec
	StaleDiscards       prometheus.Counter
	PersistenceFailures *prometheus.CounterVec
	HTTPRequests        *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodfollow",
			Name:      "catalog_requests_total",
			Help:      "Catalog calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "foodfollow",
			Name:      "search_stale_discards_total",
			Help:      "Search results dropped because a newer search superseded them.",
		}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodfollow",
			Name:      "persistence_failures_total",
			Help:      "Failed meal loads and saves.",
		}, []string{"op"}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "foodfollow",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.CatalogRequests, m.StaleDiscards, m.PersistenceFailures, m.HTTPRequests)
	}
	return m
}

// Discard returns unregistered collectors.
func Discard() *Metrics {
	return New(nil)
}
