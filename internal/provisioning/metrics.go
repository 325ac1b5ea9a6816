package provisioning

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ResultSuccess is the result label of operations that returned no error.
const ResultSuccess = "success"

// Registry holds every stratus collector.
var Registry = prometheus.NewRegistry()

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stratus",
			Name:      "operations_total",
			Help:      "Total number of orchestrator operations by result",
		},
		[]string{"operation", "result"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stratus",
			Name:      "operation_duration_seconds",
			Help:      "Duration of orchestrator operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		[]string{"operation"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stratus",
			Name:      "retries_total",
			Help:      "Total number of retried remote calls by reason",
		},
		[]string{"operation", "reason"},
	)

	drainObjectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stratus",
			Name:      "drain_objects_total",
			Help:      "Total number of objects removed while draining buckets, by listing mode",
		},
		[]string{"mode"},
	)
)

func init() {
	Registry.MustRegister(
		operationsTotal,
		operationDuration,
		retriesTotal,
		drainObjectsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordOperation records the outcome and duration of an operation started at start.
func RecordOperation(operation string, start time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = Kind(err)
	}
	operationsTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordRetry records one retried remote call.
func RecordRetry(operation, reason string) {
	retriesTotal.WithLabelValues(operation, reason).Inc()
}

// RecordDrainObjects records objects removed in mode ("versions" or "objects").
func RecordDrainObjects(mode string, n int) {
	if n > 0 {
		drainObjectsTotal.WithLabelValues(mode).Add(float64(n))
	}
}

// MetricsHandler serves Registry in the prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
