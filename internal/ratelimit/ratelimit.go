// Package ratelimit provides token-bucket admission control for upstream
// API calls. One bucket is shared per named resource, so all collections
// polling the same source kind draw from the same quota.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Default bucket parameters, matching typical source API quotas.
const (
	DefaultMaxTokens  = 100
	DefaultRefillRate = 10 // tokens per second
)

// Limiter is a token bucket with capacity maxTokens and continuous refill
// at refillRate tokens/second. Refill is computed lazily from elapsed
// wall-clock time, not via a background timer.
type Limiter struct {
	name      string
	maxTokens int
	bucket    *rate.Limiter
}

// NewLimiter creates a bucket for a named resource. The bucket starts full.
// Non-positive parameters fall back to the defaults.
func NewLimiter(name string, maxTokens int, refillRate float64) *Limiter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if refillRate <= 0 {
		refillRate = DefaultRefillRate
	}
	return &Limiter{
		name:      name,
		maxTokens: maxTokens,
		bucket:    rate.NewLimiter(rate.Limit(refillRate), maxTokens),
	}
}

// Acquire blocks until n tokens are available, then debits them atomically.
// Requests for more than the bucket capacity fail immediately with
// domain.ErrUnsatisfiable: they would never refill enough.
// Concurrent callers are served without ordering guarantees but never
// double-spend tokens.
func (l *Limiter) Acquire(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if n > l.maxTokens {
		return fmt.Errorf("%w: requested %d tokens, capacity %d", domain.ErrUnsatisfiable, n, l.maxTokens)
	}

	logger.Debug("rate limiter %s: acquiring %d tokens (%.1f available)", l.name, n, l.bucket.Tokens())
	if err := l.bucket.WaitN(ctx, n); err != nil {
		return fmt.Errorf("acquiring %d tokens for %s: %w", n, l.name, err)
	}
	return nil
}

// Tokens returns the number of tokens currently available.
func (l *Limiter) Tokens() float64 {
	return l.bucket.Tokens()
}

// MaxTokens returns the bucket capacity.
func (l *Limiter) MaxTokens() int {
	return l.maxTokens
}

// Name returns the resource name this bucket throttles.
func (l *Limiter) Name() string {
	return l.name
}

// Registry hands out one shared limiter per named resource.
// Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry creates an empty limiter registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// Get returns the limiter for a resource, creating it with the given
// parameters on first use. Later calls for the same name return the
// existing bucket regardless of parameters: the first configuration wins.
func (r *Registry) Get(name string, maxTokens int, refillRate float64) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[name]; ok {
		return l
	}
	l := NewLimiter(name, maxTokens, refillRate)
	r.limiters[name] = l
	return l
}
