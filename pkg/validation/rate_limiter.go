package validation

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket per operator
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	buckets     map[string]*bucket
	mu          sync.RWMutex
	cleanupTick *time.Ticker
	done        chan struct{}
	now         func() time.Time
}

// bucket tracks tokens for a single operator
type bucket struct {
	tokens     int
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter allows maxRequests per window for each operator
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		buckets:     make(map[string]*bucket),
		done:        make(chan struct{}),
		now:         time.Now,
	}

	rl.cleanupTick = time.NewTicker(window)
	go rl.cleanup()

	return rl
}

// Allow consumes a token for operator if one is available
func (rl *RateLimiter) Allow(operator string) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[operator]
	if !ok {
		b = &bucket{tokens: rl.maxRequests, lastRefill: rl.now()}
		rl.buckets[operator] = b
	}
	rl.mu.Unlock()

	return rl.consume(b)
}

func (rl *RateLimiter) consume(b *bucket) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	if elapsed := now.Sub(b.lastRefill); elapsed > 0 && b.tokens < rl.maxRequests {
		refill := int(float64(rl.maxRequests) * float64(elapsed) / float64(rl.window))
		if refill > 0 {
			b.tokens = min(b.tokens+refill, rl.maxRequests)
			b.lastRefill = now
		}
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.evictIdle()
		case <-rl.done:
			return
		}
	}
}

// evictIdle forgets operators idle for two windows
func (rl *RateLimiter) evictIdle() {
	cutoff := rl.now().Add(-2 * rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for operator, b := range rl.buckets {
		b.mu.Lock()
		if b.lastRefill.Before(cutoff) {
			delete(rl.buckets, operator)
		}
		b.mu.Unlock()
	}
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() {
	close(rl.done)
	rl.cleanupTick.Stop()
}
