// Package ratelimit throttles model calls by requests and estimated tokens
// per minute.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"codearh/internal/config"
)

// Limiter combines a request bucket and an optional token bucket.
type Limiter struct {
	requests *TokenBucket
	tokens   *TokenBucket

	mu      sync.Mutex
	total   int64
	waited  int64
	tokenIn int64
}

// New creates a limiter from cfg. It returns nil when no limit is set; a
// nil *Limiter never blocks.
func New(cfg config.RateLimitConfig) *Limiter {
	if cfg.RequestsPerMinute <= 0 && cfg.TokensPerMinute <= 0 {
		return nil
	}
	l := &Limiter{}
	if cfg.RequestsPerMinute > 0 {
		burst := float64(cfg.BurstSize)
		if burst < 1 {
			burst = 1
		}
		l.requests = NewTokenBucket(burst, float64(cfg.RequestsPerMinute)/60)
	}
	if cfg.TokensPerMinute > 0 {
		// 10% of the per-minute budget may be spent at once
		burst := float64(cfg.TokensPerMinute) / 10
		if burst < 1 {
			burst = 1
		}
		l.tokens = NewTokenBucket(burst, float64(cfg.TokensPerMinute)/60)
	}
	return l
}

// Wait blocks until a request of estimatedTokens may be sent.
func (l *Limiter) Wait(ctx context.Context, estimatedTokens int64) error {
	if l == nil {
		return nil
	}
	start := time.Now()
	if l.requests != nil {
		if err := l.requests.Consume(ctx, 1); err != nil {
			return err
		}
	}
	if l.tokens != nil && estimatedTokens > 0 {
		if err := l.tokens.Consume(ctx, float64(estimatedTokens)); err != nil {
			if l.requests != nil {
				l.requests.Return(1)
			}
			return err
		}
	}

	l.mu.Lock()
	l.total++
	l.tokenIn += estimatedTokens
	if time.Since(start) > time.Millisecond {
		l.waited++
	}
	l.mu.Unlock()
	return nil
}

// Stats summarizes limiter activity.
type Stats struct {
	Requests          int64
	Throttled         int64
	Tokens            int64
	AvailableRequests float64
}

// Stats returns the counters; a nil limiter reports zeros.
func (l *Limiter) Stats() Stats {
	if l == nil {
		return Stats{}
	}
	l.mu.Lock()
	s := Stats{Requests: l.total, Throttled: l.waited, Tokens: l.tokenIn}
	l.mu.Unlock()
	if l.requests != nil {
		s.AvailableRequests = l.requests.Available()
	}
	return s
}
