// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesTotal counts frames read from the capture source
	FramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ngtrace_frames_total",
			Help: "Total number of frames read from the capture source",
		},
	)

	// FramesSkippedTotal counts dropped frames by skip reason
	FramesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngtrace_frames_skipped_total",
			Help: "Total number of frames dropped before reporting",
		},
		[]string{"reason"},
	)

	// MessagesTotal counts accepted messages by matched marker
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngtrace_messages_total",
			Help: "Total number of relevant messages accepted",
		},
		[]string{"marker"},
	)

	// EventsTotal counts decoded protocol events by command
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngtrace_events_total",
			Help: "Total number of protocol events decoded",
		},
		[]string{"command"},
	)

	// ReporterErrorsTotal counts reporter failures
	ReporterErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngtrace_reporter_errors_total",
			Help: "Total number of reporter errors",
		},
		[]string{"reporter"},
	)

	// StageLatencySeconds measures per-frame processing latency
	StageLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ngtrace_frame_latency_seconds",
			Help:    "Latency of processing one frame in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20), // 1µs to ~1s
		},
	)
)
