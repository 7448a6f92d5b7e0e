// rate_limiter.go - Caller-side throttling for the external model API

package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// pollInterval is how often a waiting caller re-checks the bucket.
const pollInterval = 100 * time.Millisecond

// RateLimiter implements a simple token bucket rate limiter
type RateLimiter struct {
	tokens         int
	maxTokens      int
	refillRate     time.Duration
	lastRefillTime time.Time
	mu             sync.Mutex
}

// NewRateLimiter creates a new rate limiter
// maxTokens: burst size
// refillRate: time between token refills
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	if refillRate <= 0 {
		refillRate = time.Second
	}
	return &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

// refill adds tokens earned since the last refill. Caller holds mu.
func (rl *RateLimiter) refill(now time.Time) {
	tokensToAdd := int(now.Sub(rl.lastRefillTime) / rl.refillRate)
	if tokensToAdd > 0 {
		rl.tokens += tokensToAdd
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefillTime = rl.lastRefillTime.Add(time.Duration(tokensToAdd) * rl.refillRate)
	}
}

// TryTake consumes a token if one is available without waiting.
func (rl *RateLimiter) TryTake() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())
	if rl.tokens <= 0 {
		return false
	}
	rl.tokens--
	return true
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.TryTake() {
			return nil
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Limiter bounds both the request rate and the number of in-flight calls.
type Limiter struct {
	bucket *RateLimiter
	slots  *semaphore.Weighted
}

// NewLimiter creates a limiter allowing maxConcurrent in-flight calls,
// bursts of up to burst calls, and one extra call per refill interval.
func NewLimiter(maxConcurrent, burst int, refill time.Duration) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Limiter{
		bucket: NewRateLimiter(burst, refill),
		slots:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Acquire waits for a concurrency slot and then a rate token.
// A token is only spent once a slot is held.
// The returned release func must be called when the call finishes.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := l.bucket.Wait(ctx); err != nil {
		l.slots.Release(1)
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { l.slots.Release(1) }) }, nil
}
