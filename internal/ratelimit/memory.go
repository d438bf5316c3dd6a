package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in memory. Buckets idle for
// twice the sweep interval are dropped by a background goroutine.
type MemoryLimiter struct {
	perMinute int
	every     rate.Limit
	burst     int
	sweep     time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	stopped bool
}

// NewMemoryLimiter allows perMinute requests per key with the given burst.
func NewMemoryLimiter(perMinute, burst int, sweep time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		perMinute: perMinute,
		every:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		sweep:     sweep,
		buckets:   make(map[string]*bucket),
		stop:      make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *MemoryLimiter) bucketFor(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.every, m.burst)}
		m.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// Allow takes one token from key's bucket.
func (m *MemoryLimiter) Allow(key string) (bool, Info) {
	lim := m.bucketFor(key)
	allowed := lim.Allow()

	now := time.Now()
	tokens := lim.TokensAt(now)
	info := Info{
		Limit:     m.perMinute,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   now,
	}
	if missing := float64(m.burst) - tokens; missing > 0 {
		info.ResetAt = now.Add(time.Duration(missing / float64(m.every) * float64(time.Second)))
	}

	if !allowed {
		r := lim.Reserve()
		info.RetryAfter = r.Delay()
		r.Cancel()
	}
	return allowed, info
}

// Close stops the sweeper. It is safe to call more than once.
func (m *MemoryLimiter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped {
		m.stopped = true
		close(m.stop)
	}
}

func (m *MemoryLimiter) run() {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.dropIdle(time.Now().Add(-2 * m.sweep))
		}
	}
}

func (m *MemoryLimiter) dropIdle(cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, b := range m.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}
