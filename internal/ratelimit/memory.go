package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter applies the same fixed-window policy as Limiter inside one
// process.
type MemoryLimiter struct {
	Limit  int
	Window time.Duration
	Now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	limit, size := normalize(l.Limit, l.Window)
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.windows == nil {
		l.windows = make(map[string]*window)
	}
	// drop finished windows so the map does not grow without bound
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}

	w, ok := l.windows[key]
	if !ok {
		w = &window{resetAt: now.Add(size)}
		l.windows[key] = w
	}
	w.count++

	return w.count <= limit, w.resetAt.Sub(now), nil
}
