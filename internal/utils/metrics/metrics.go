package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotTicksTotal counts scheduler ticks.
	SnapshotTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insight_service_snapshot_ticks_total",
		Help: "The total number of snapshot scheduler ticks",
	})

	// SnapshotPersonasTotal counts per-persona snapshot outcomes.
	SnapshotPersonasTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_service_snapshot_personas_total",
		Help: "The total number of per-persona snapshot attempts by outcome",
	}, []string{"outcome"})

	// GraphRequestDuration observes Meta Graph call latency per endpoint.
	GraphRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "insight_service_graph_request_duration_seconds",
		Help:    "Meta Graph API request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// GraphErrorsTotal counts Graph call failures by class.
	GraphErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_service_graph_errors_total",
		Help: "Meta Graph API errors by class",
	}, []string{"class"})

	// RepliesPostedTotal counts comment replies by outcome.
	RepliesPostedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_service_replies_posted_total",
		Help: "Comment replies posted by outcome",
	}, []string{"outcome"})

	// RequestsTotal counts HTTP requests by status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_service_requests_total",
		Help: "The total number of HTTP responses by status code",
	}, []string{"status"})

	// RequestDuration observes HTTP request handling time.
	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "insight_service_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
