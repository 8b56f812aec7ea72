package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts dispatched jobs by delivery channel and outcome.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgeclassify_submissions_total",
			Help: "Total number of classification jobs dispatched",
		},
		[]string{"channel", "outcome"},
	)

	// ValidationRejectsTotal counts submissions rejected before dispatch.
	ValidationRejectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edgeclassify_validation_rejects_total",
			Help: "Total number of submissions rejected by input validation",
		},
	)

	// DeliveryDuration tracks how long a delivery attempt took in seconds.
	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edgeclassify_delivery_duration_seconds",
			Help:    "Duration of delivery attempts in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		},
		[]string{"channel"},
	)

	// LookupsTotal counts result lookups by status (pending, ready, error).
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgeclassify_result_lookups_total",
			Help: "Total number of result artifact lookups",
		},
		[]string{"status"},
	)

	// LookupDuration tracks artifact listing scans in seconds.
	LookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edgeclassify_result_lookup_duration_seconds",
			Help:    "Duration of result artifact lookups in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)
