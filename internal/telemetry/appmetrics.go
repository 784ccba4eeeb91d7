package telemetry

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// CacheCounters exposes cumulative cache results.
type CacheCounters func() (hits, misses, errors int64)

// InitAppMetrics registers observable gauges for the connection pool and the
// snippet cache. pool is nil when the API runs on SQLite.
func InitAppMetrics(serviceName string, pool *pgxpool.Pool, cacheCounters CacheCounters) {
	meter := otel.Meter(serviceName + "/app")

	poolAcquired, err := meter.Int64ObservableGauge(
		"cobit_db_pool_acquired_conns",
		metric.WithDescription("Connections currently checked out of the pool"),
	)
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}
	poolTotal, err := meter.Int64ObservableGauge(
		"cobit_db_pool_total_conns",
		metric.WithDescription("Connections owned by the pool"),
	)
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}
	cacheHits, err := meter.Int64ObservableCounter(
		"cobit_cache_hits_total",
		metric.WithDescription("Snippet cache hits"),
	)
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}
	cacheMisses, err := meter.Int64ObservableCounter(
		"cobit_cache_misses_total",
		metric.WithDescription("Snippet cache misses"),
	)
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}
	cacheErrors, err := meter.Int64ObservableCounter(
		"cobit_cache_errors_total",
		metric.WithDescription("Failed snippet cache operations"),
	)
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		if pool != nil {
			stat := pool.Stat()
			o.ObserveInt64(poolAcquired, int64(stat.AcquiredConns()))
			o.ObserveInt64(poolTotal, int64(stat.TotalConns()))
		}
		if cacheCounters != nil {
			hits, misses, errs := cacheCounters()
			o.ObserveInt64(cacheHits, hits)
			o.ObserveInt64(cacheMisses, misses)
			o.ObserveInt64(cacheErrors, errs)
		}
		return nil
	}, poolAcquired, poolTotal, cacheHits, cacheMisses, cacheErrors)
	if err != nil {
		log.Printf("app metrics: %v", err)
	}
}
