package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is a token bucket refilled continuously at refillRate tokens
// per second up to maxTokens.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time

	now func() time.Time
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(maxTokens, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// refill must be called with b.mu held.
func (b *TokenBucket) refill() {
	now := b.now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
}

// TryConsume takes n tokens if available.
func (b *TokenBucket) TryConsume(n float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	if b.tokens >= n {
		b.tokens -= n
		return true
	}
	return false
}

// wait returns how long until n tokens are available, or zero after taking
// them. Requests larger than the bucket are capped at its size.
func (b *TokenBucket) wait(n float64) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.maxTokens {
		n = b.maxTokens
	}
	b.refill()
	if b.tokens >= n {
		b.tokens -= n
		return 0
	}
	if b.refillRate <= 0 {
		return time.Hour
	}
	return time.Duration((n - b.tokens) / b.refillRate * float64(time.Second))
}

// Consume blocks until n tokens are taken or ctx is done.
func (b *TokenBucket) Consume(ctx context.Context, n float64) error {
	for {
		d := b.wait(n)
		if d == 0 {
			return nil
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Return gives back tokens taken for a request that was not sent.
func (b *TokenBucket) Return(n float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens += n
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
}

// Available returns the current token count.
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}
