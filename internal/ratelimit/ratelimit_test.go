package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLimiter returns a limiter on a controllable clock.
func newTestLimiter(t *testing.T, cfg Config) (*KeyedRateLimiter, *time.Time) {
	t.Helper()
	k := New(cfg)
	t.Cleanup(k.Stop)

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	k.now = func() time.Time { return now }
	return k, &now
}

func allowed(k *KeyedRateLimiter, key string, n int) int {
	passed := 0
	for range n {
		if k.Allow(key) {
			passed++
		}
	}
	return passed
}

func TestAllow_SignInBudget(t *testing.T) {
	k, now := newTestLimiter(t, Config{Events: 30, Per: time.Minute, Burst: 10})

	assert.Equal(t, 10, allowed(k, "203.0.113.7", 15))

	// One token every two seconds.
	*now = now.Add(2 * time.Second)
	assert.Equal(t, 1, allowed(k, "203.0.113.7", 5))

	*now = now.Add(time.Minute)
	assert.Equal(t, 10, allowed(k, "203.0.113.7", 20), "refill is capped at the burst")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	k, _ := newTestLimiter(t, Config{Events: 1, Per: time.Minute, Burst: 1})

	require.True(t, k.Allow("203.0.113.7"))
	assert.False(t, k.Allow("203.0.113.7"))
	assert.True(t, k.Allow("198.51.100.1"))
	assert.Equal(t, 2, k.Len())
}

func TestNew_Defaults(t *testing.T) {
	k, _ := newTestLimiter(t, Config{Events: 5, Per: time.Second})
	assert.Equal(t, DefaultIdleTTL, k.idleTTL)
	assert.Equal(t, 1, k.burst, "burst is at least one")

	// No budget at all: the single burst token, then nothing.
	closed, _ := newTestLimiter(t, Config{Burst: 1})
	assert.Equal(t, 1, allowed(closed, "ip", 3))
	assert.Positive(t, closed.RetryAfter("ip"))
}

func TestRetryAfter(t *testing.T) {
	k, now := newTestLimiter(t, Config{Events: 30, Per: time.Minute, Burst: 2})

	assert.Zero(t, k.RetryAfter("unknown"))

	require.Equal(t, 2, allowed(k, "ip", 2))
	assert.Equal(t, 2*time.Second, k.RetryAfter("ip"))

	*now = now.Add(time.Second)
	assert.Equal(t, time.Second, k.RetryAfter("ip"))

	*now = now.Add(time.Second)
	assert.Zero(t, k.RetryAfter("ip"))
}

func TestEvictIdle(t *testing.T) {
	k, now := newTestLimiter(t, Config{Events: 1, Per: time.Minute, Burst: 1, IdleTTL: time.Minute})

	k.Allow("old")
	*now = now.Add(2 * time.Minute)
	k.Allow("fresh")

	assert.Equal(t, 1, k.evictIdle())
	assert.Equal(t, 1, k.Len())
	assert.True(t, k.Allow("old"), "an evicted key starts with a full bucket")
}

func TestAllow_Concurrent(t *testing.T) {
	k, _ := newTestLimiter(t, Config{Events: 1, Per: time.Hour, Burst: 5})

	var (
		mu     sync.Mutex
		passed = map[string]int{}
		wg     sync.WaitGroup
	)
	for i := range 40 {
		key := fmt.Sprintf("10.0.0.%d", i%4)
		wg.Go(func() {
			if k.Allow(key) {
				mu.Lock()
				passed[key]++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	for key, n := range passed {
		assert.Equal(t, 5, n, key)
	}
	assert.Len(t, passed, 4)
}

func TestStop_Idempotent(t *testing.T) {
	k := New(Config{Events: 1, Per: time.Second, Burst: 1})
	k.Stop()
	assert.NotPanics(t, k.Stop)
}
