package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long an unused key keeps its bucket.
const idleTTL = 10 * time.Minute

// LocalLimiter is an in-process token bucket per key. The bucket refills at
// limit events per window with a burst of limit.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates a limiter allowing limit events per window for each key.
// A non-positive limit allows everything.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if window <= 0 {
		window = time.Minute
	}
	l := &LocalLimiter{
		buckets: make(map[string]*bucket),
		burst:   limit,
		now:     time.Now,
	}
	if limit > 0 {
		l.every = rate.Every(window / time.Duration(limit))
	}
	return l
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.burst <= 0 {
		return true, nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.sweepLocked(now)
	return b.limiter.AllowN(now, 1), nil
}

// sweepLocked drops buckets idle for longer than idleTTL.
func (l *LocalLimiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleTTL {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
