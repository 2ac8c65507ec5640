package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Bookings by outcome: success or one of the error kinds.
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calbook_bookings_total",
			Help: "Total number of booking requests by outcome",
		},
		[]string{"outcome"},
	)

	// Stage latency in seconds; stage is extract or dispatch.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calbook_stage_duration_seconds",
			Help:    "Latency of the external calls made while booking",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"stage", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"method", "path", "status"},
	)
)

// RecordBooking counts one finished booking by outcome.
func RecordBooking(outcome string) {
	BookingsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage observes the latency of a pipeline stage, labelled ok or error.
func RecordStage(stage string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// RecordHTTPRequest observes the latency of one served HTTP request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
