package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSentCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "outbound_sends_total",
			Help:      "Total outbound send attempts by outcome.",
		},
		[]string{"outcome"}, // "sent", "bad_request", "no_number", "config_error", "provider_error", "datastore_error"
	)

	sendDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "messaging",
			Name:      "outbound_send_duration_seconds",
			Help:      "Duration of an outbound send including number selection and persistence.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	statusUpdatesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "status_updates_total",
			Help:      "Total delivery status callbacks by resulting status and outcome.",
		},
		[]string{"status", "outcome"}, // outcome: "applied", "unknown_tracking_id", "error"
	)

	inboundProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "inbound_processed_total",
			Help:      "Total inbound messages processed by outcome.",
		},
		[]string{"outcome"}, // "stored", "duplicate", "bad_request", "error"
	)

	inboundProcessingDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "messaging",
			Name:      "inbound_processing_duration_seconds",
			Help:      "Duration of inbound message ingestion.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	patientResolutionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "patient_resolutions_total",
			Help:      "Total inbound sender resolutions by result.",
		},
		[]string{"result"}, // "matched", "created", "temporary"
	)

	autoResponsesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messaging",
			Name:      "auto_responses_total",
			Help:      "Total auto-responses by outcome.",
		},
		[]string{"outcome"}, // "scheduled", "schedule_error", "sent", "send_error", "invalid_payload"
	)
)
