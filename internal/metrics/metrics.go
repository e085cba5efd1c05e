// Package metrics holds Prometheus instruments used across the service.  All
// collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for SearchValidations.
const (
	OutcomeValid       = "valid"
	OutcomeInvalid     = "invalid"
	OutcomeFiltering   = "filtering"
	OutcomeUnavailable = "unavailable"
)

var (
	SearchValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_validations_total",
			Help: "Search form validation passes by outcome.",
		}, []string{"outcome"})

	SubAgencyLookups = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subagency_lookups_total",
			Help: "Cumulative number of sub-agency choice lookups.",
		})

	SubAgencyLookupErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subagency_lookup_errors_total",
			Help: "Cumulative number of failed sub-agency choice lookups.",
		})

	SubAgencyLookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subagency_lookup_duration_seconds",
			Help:    "Latency of the distinct sub-agency query.",
			Buckets: prometheus.DefBuckets,
		})

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(
		SearchValidations,
		SubAgencyLookups,
		SubAgencyLookupErrors,
		SubAgencyLookupDuration,
		HTTPRequests,
	)
}
