package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim  *rate.Limiter
	last time.Time
}

// Limiter keeps one token bucket per key, e.g. per client address.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*bucket
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time
}

// New allows perSec sustained requests per key with the given burst.
// Buckets unused for idle are dropped on the next Allow.
func New(perSec float64, burst int, idle time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*bucket),
		limit: rate.Limit(perSec),
		burst: burst,
		idle:  idle,
		now:   time.Now,
	}
}

// Allow reports whether one more request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.idle > 0 {
		for k, b := range l.m {
			if now.Sub(b.last) > l.idle {
				delete(l.m, k)
			}
		}
	}
	b, ok := l.m[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = b
	}
	b.last = now
	return b.lim.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
