package ratelimit

import (
	"sync"
	"time"
)

// IPRateLimiter keeps one token bucket per client IP and evicts buckets
// that have been idle for a while.
type IPRateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*ipBucket
	capacity   float64
	refillRate float64
	done       chan struct{}
	closeOnce  sync.Once
}

type ipBucket struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// NewIPRateLimiter creates a per-IP limiter and starts its eviction loop.
func NewIPRateLimiter(capacity, refillRate float64) *IPRateLimiter {
	l := &IPRateLimiter{
		buckets:    make(map[string]*ipBucket),
		capacity:   capacity,
		refillRate: refillRate,
		done:       make(chan struct{}),
	}

	go l.evictLoop()
	return l
}

// Allow consumes a token from the bucket for ip, creating it on first use.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.buckets[ip]
	if !ok {
		entry = &ipBucket{bucket: NewTokenBucket(l.capacity, l.refillRate)}
		l.buckets[ip] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()

	return entry.bucket.Allow()
}

// Stop terminates the eviction loop.
func (l *IPRateLimiter) Stop() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *IPRateLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)

			l.mu.Lock()
			for ip, entry := range l.buckets {
				if entry.lastSeen.Before(cutoff) {
					delete(l.buckets, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}
