// Package observability provides Prometheus metrics and OpenTelemetry tracing helpers.
package observability

import (
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RelationshipOperations counts engine operations by name and outcome (ok or an error code).
	RelationshipOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_relationship_operations_total",
		Help: "Total number of relationship engine operations by outcome",
	}, []string{"operation", "outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialgraph_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache hits, misses and writes skipped after an invalidation.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialgraph_cache_lookups_total",
		Help: "Cache lookups by cache name and result",
	}, []string{"cache", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordOperation increments the operation counter with the given outcome.
func RecordOperation(operation, outcome string) {
	RelationshipOperations.WithLabelValues(operation, outcome).Inc()
}

var (
	httpMetricsOnce sync.Once
	httpMetrics     *fiberprometheus.FiberPrometheus
)

// HTTPMetrics returns the process-wide fiber Prometheus middleware.
// Collectors live in the default registry, so it is built once.
func HTTPMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	httpMetricsOnce.Do(func() {
		httpMetrics = fiberprometheus.New(serviceName)
	})
	return httpMetrics
}
