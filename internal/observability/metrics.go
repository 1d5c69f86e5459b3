package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	clientRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tsctl",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total test server requests issued.",
		},
		[]string{"operation", "method", "status"},
	)
	clientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tsctl",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Test server request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "method", "status"},
	)
	remoteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tsctl",
			Subsystem: "client",
			Name:      "remote_errors_total",
			Help:      "Error-shaped responses reported by test servers.",
		},
		[]string{"operation", "domain"},
	)
	mockRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tsctl",
			Subsystem: "mock",
			Name:      "requests_total",
			Help:      "Total HTTP requests served by the mock test server.",
		},
		[]string{"method", "operation", "status"},
	)
	mockDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tsctl",
			Subsystem: "mock",
			Name:      "request_duration_seconds",
			Help:      "Mock test server request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "operation", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(clientRequests, clientDuration, remoteErrors, mockRequests, mockDuration)
	})
}

func RecordClientRequest(operation, method string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	clientRequests.WithLabelValues(operation, method, statusLabel).Inc()
	clientDuration.WithLabelValues(operation, method, statusLabel).Observe(duration.Seconds())
}

func RecordRemoteError(operation, domain string) {
	RegisterMetrics()
	remoteErrors.WithLabelValues(operation, domain).Inc()
}

func RecordMockRequest(method, operation string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	mockRequests.WithLabelValues(method, operation, statusLabel).Inc()
	mockDuration.WithLabelValues(method, operation, statusLabel).Observe(duration.Seconds())
}
