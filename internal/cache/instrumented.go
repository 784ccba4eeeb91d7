package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/PabloPavan/cobit_api/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrumented wraps a Cache and records per-operation latency plus hit,
// miss and error counts.
type Instrumented struct {
	next    Cache
	latency *metrics.LatencyTracker

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64

	requests metric.Int64Counter
}

type Stats struct {
	Backend  string          `json:"backend"`
	Hits     int64           `json:"hits"`
	Misses   int64           `json:"misses"`
	Errors   int64           `json:"errors"`
	HitRatio float64         `json:"hit_ratio"`
	Latency  []metrics.Stats `json:"latency"`
}

func NewInstrumented(next Cache, serviceName string) *Instrumented {
	c := &Instrumented{
		next:    next,
		latency: metrics.NewLatencyTracker(0.01),
	}
	meter := otel.Meter(serviceName + "/cache")
	if counter, err := meter.Int64Counter(
		"cobit_cache_requests_total",
		metric.WithDescription("Cache operations by result"),
	); err == nil {
		c.requests = counter
	}
	return c
}

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	val, ok, err := c.next.Get(ctx, key)
	c.latency.Since("get", start)

	switch {
	case err != nil:
		c.errors.Add(1)
		c.count(ctx, "get", "error")
	case ok:
		c.hits.Add(1)
		c.count(ctx, "get", "hit")
	default:
		c.misses.Add(1)
		c.count(ctx, "get", "miss")
	}
	return val, ok, err
}

func (c *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := c.next.Set(ctx, key, value)
	c.latency.Since("set", start)
	c.observe(ctx, "set", err)
	return err
}

func (c *Instrumented) Del(ctx context.Context, key string) error {
	start := time.Now()
	err := c.next.Del(ctx, key)
	c.latency.Since("del", start)
	c.observe(ctx, "del", err)
	return err
}

func (c *Instrumented) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	start := time.Now()
	n, err := c.next.DeleteMatching(ctx, pattern)
	c.latency.Since("delete_matching", start)
	c.observe(ctx, "delete_matching", err)
	return n, err
}

func (c *Instrumented) Ping(ctx context.Context) error {
	if p, ok := c.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Instrumented) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	return Stats{
		Backend:  backendName(c.next),
		Hits:     hits,
		Misses:   misses,
		Errors:   c.errors.Load(),
		HitRatio: ratio,
		Latency:  c.latency.GetAllStats(),
	}
}

func (c *Instrumented) observe(ctx context.Context, op string, err error) {
	if err != nil {
		c.errors.Add(1)
		c.count(ctx, op, "error")
		return
	}
	c.count(ctx, op, "ok")
}

func (c *Instrumented) count(ctx context.Context, op, result string) {
	if c.requests == nil {
		return
	}
	c.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.operation", op),
		attribute.String("cache.result", result),
	))
}

func backendName(c Cache) string {
	switch c.(type) {
	case *MemoryCache:
		return "memory"
	case *RedisCache:
		return "redis"
	default:
		return "custom"
	}
}
