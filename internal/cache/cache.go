// Package cache provides the key-value layer that sits in front of the
// snippet store. Entries carry a per-instance TTL, support exact-key
// get/set/delete and glob based bulk deletion. The cache is never a system of
// record: every value it holds can be rebuilt from the store.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

const DefaultTTL = time.Hour

type Cache interface {
	// Get returns the stored bytes. A missing or expired key reports ok=false
	// with a nil error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set overwrites any prior value for key. The entry expires after the
	// cache's TTL.
	Set(ctx context.Context, key string, value []byte) error
	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
	// DeleteMatching removes every key matching a shell style glob and
	// returns how many were removed.
	DeleteMatching(ctx context.Context, pattern string) (int, error)
}

// Pinger is implemented by caches backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SetJSON stores v under key using the JSON codec.
func SetJSON(ctx context.Context, c Cache, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, payload)
}

// GetJSON loads key into dst. A value that does not decode is dropped and
// reported as a miss so the caller repopulates it from the store.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	payload, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		_ = c.Del(ctx, key)
		return false, nil
	}
	return true, nil
}
