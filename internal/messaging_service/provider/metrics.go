package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "messaging",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of carrier send requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name"},
	)

	providerRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "provider_requests_total",
			Help:      "Total number of carrier send requests by outcome.",
		},
		[]string{"provider_name", "outcome"}, // outcome: "accepted", "rejected", "transport_error"
	)
)
