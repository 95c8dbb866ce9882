// Package metrics holds Prometheus instruments used across the domain
// registry.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DefaultSwapsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "domain_default_swaps_total",
			Help: "Cumulative number of times the default flag moved to another record.",
		})

	InvariantRepairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "domain_invariant_repairs_total",
			Help: "Cumulative number of repairs of a missing or duplicated default record.",
		})

	HealthChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_health_checks_total",
			Help: "Live health checks by observed status code (0 = transport error).",
		}, []string{"code"})

	ActiveNegotiations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "domain_negotiation_entries",
			Help: "Number of hostnames currently cached by the negotiator.",
		})

	NegotiationLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "domain_negotiation_load_total",
			Help: "Cumulative number of hostname lookups that reached the store.",
		})

	NegotiationErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "domain_negotiation_errors_total",
			Help: "Cumulative number of failed hostname lookups.",
		})

	NegotiationEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "domain_negotiation_evict_total",
			Help: "Cumulative number of hostnames evicted from the negotiator cache.",
		})
)

func init() {
	prometheus.MustRegister(
		DefaultSwapsTotal,
		InvariantRepairsTotal,
		HealthChecksTotal,
		ActiveNegotiations,
		NegotiationLoadTotal,
		NegotiationErrorsTotal,
		NegotiationEvictTotal,
	)
}
