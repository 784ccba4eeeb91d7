package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}
func (brokenCache) Set(context.Context, string, []byte) error { return errors.New("down") }
func (brokenCache) Del(context.Context, string) error         { return errors.New("down") }
func (brokenCache) DeleteMatching(context.Context, string) (int, error) {
	return 0, errors.New("down")
}

func TestInstrumentedCountsHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	c := NewInstrumented(NewMemoryCache(0), "cobit-test")

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.DeleteMatching(ctx, "*")
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, "memory", stats.Backend)
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 0, stats.Errors)
	assert.InDelta(t, 0.5, stats.HitRatio, 0.0001)

	ops := make([]string, 0, len(stats.Latency))
	for _, s := range stats.Latency {
		ops = append(ops, s.Operation)
	}
	assert.Equal(t, []string{"delete_matching", "get", "set"}, ops)
}

func TestInstrumentedCountsErrors(t *testing.T) {
	ctx := context.Background()
	c := NewInstrumented(brokenCache{}, "cobit-test")

	_, _, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, "k", nil))
	assert.Error(t, c.Del(ctx, "k"))

	stats := c.Stats()
	assert.Equal(t, "custom", stats.Backend)
	assert.EqualValues(t, 3, stats.Errors)
	assert.Zero(t, stats.HitRatio)
	assert.NoError(t, c.Ping(ctx))
}
