package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	TaskOperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_operation_count",
			Help: "Total number of task operations",
		},
		[]string{"operation", "outcome"}, // operation: create, update, delete, next_status
	)

	AuthFailureCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failure_count",
			Help: "Total number of rejected authentications",
		},
		[]string{"reason"}, // reason: missing_token, invalid_token, revoked_token
	)

	EventPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_count",
			Help: "Total number of task events published to MQ",
		},
		[]string{"routing_key", "outcome"},
	)

	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries exceeding the slow-query threshold",
		},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementTaskOperation(operation, outcome string) {
	TaskOperationCount.WithLabelValues(operation, outcome).Inc()
}

func IncrementAuthFailure(reason string) {
	AuthFailureCount.WithLabelValues(reason).Inc()
}

func IncrementEventPublish(routingKey, outcome string) {
	EventPublishCount.WithLabelValues(routingKey, outcome).Inc()
}

func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}
