// Package ratelimit provides a keyed token-bucket rate limiter. Auth
// endpoints use it per client IP.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an unused key's bucket is kept.
const DefaultIdleTTL = 10 * time.Minute

// Config describes the budget of every key: Events per Per, with Burst
// requests allowed at once.
type Config struct {
	Events  int
	Per     time.Duration
	Burst   int
	IdleTTL time.Duration // zero means DefaultIdleTTL
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter keeps one token bucket per key.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter and starts evicting idle keys in the background.
// Call Stop when done.
func New(cfg Config) *KeyedRateLimiter {
	limit := rate.Limit(0)
	if cfg.Events > 0 && cfg.Per > 0 {
		limit = rate.Limit(float64(cfg.Events) / cfg.Per.Seconds())
	}
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = DefaultIdleTTL
	}

	k := &KeyedRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   max(cfg.Burst, 1),
		idleTTL: idle,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go k.evictLoop()
	return k
}

// Allow takes a token for key if one is available. It never blocks.
func (k *KeyedRateLimiter) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.bucketLocked(key).AllowN(k.now(), 1)
}

// RetryAfter is how long key must wait for its next token. Zero means a
// request would be allowed now.
func (k *KeyedRateLimiter) RetryAfter(key string) time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()

	b, ok := k.buckets[key]
	if !ok {
		return 0
	}
	tokens := b.limiter.TokensAt(k.now())
	if tokens >= 1 {
		return 0
	}
	if k.limit <= 0 {
		return k.idleTTL
	}
	wait := time.Duration((1 - tokens) / float64(k.limit) * float64(time.Second)).Round(time.Millisecond)
	return max(wait, time.Millisecond)
}

// Len returns the number of tracked keys.
func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// Stop ends background eviction. It is safe to call more than once.
func (k *KeyedRateLimiter) Stop() {
	k.stopOnce.Do(func() { close(k.done) })
}

func (k *KeyedRateLimiter) bucketLocked(key string) *rate.Limiter {
	now := k.now()
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// evictIdle drops buckets unused for idleTTL. An evicted key starts again
// with a full bucket, which is what an idle key would have anyway once the
// TTL exceeds the refill time.
func (k *KeyedRateLimiter) evictIdle() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.now().Add(-k.idleTTL)
	n := 0
	for key, b := range k.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(k.buckets, key)
			n++
		}
	}
	return n
}

func (k *KeyedRateLimiter) evictLoop() {
	ticker := time.NewTicker(max(k.idleTTL/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.evictIdle()
		case <-k.done:
			return
		}
	}
}
