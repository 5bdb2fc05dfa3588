package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assetflow_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// Transitions counts custody transitions by action and outcome
	// (ok, invalid_transition, conflict, not_found, error).
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetflow_transitions_total",
			Help: "Custody transitions attempted via the lifecycle engine",
		},
		[]string{"action", "outcome"},
	)

	ScanRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assetflow_overdue_scans_total",
			Help: "Overdue scan invocations",
		},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetflow_notifications_total",
			Help: "Overdue notifications by delivery status",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCount, RequestDuration, Transitions, ScanRuns, Notifications)
}
