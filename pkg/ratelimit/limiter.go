// Package ratelimit guards outbound requests with a token bucket and a hard
// concurrency ceiling.
package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Config tunes a Limiter. Zero values leave the corresponding constraint
// unbounded.
type Config struct {
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" validate:"gte=0"`
	MaxConcurrent     int     `json:"max_concurrent,omitempty"      yaml:"max_concurrent,omitempty"      validate:"gte=0"`
}

// Limiter combines a lazily refilled token bucket with a concurrency cap.
// Waiters block on the runtime's primitives instead of polling and honor
// context cancellation at every suspension point. Safe for concurrent use.
type Limiter struct {
	bucket *rate.Limiter
	sem    chan struct{}
}

// New builds a Limiter from cfg. Absent constraints are not enforced at
// all, so an empty config yields pass-through Acquire/Release.
func New(cfg Config) *Limiter {
	l := &Limiter{}

	if cfg.RequestsPerSecond > 0 {
		// Burst mirrors the refill rate: the bucket never holds more
		// than one second's worth of tokens.
		burst := int(math.Ceil(cfg.RequestsPerSecond))
		l.bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if cfg.MaxConcurrent > 0 {
		l.sem = make(chan struct{}, cfg.MaxConcurrent)
	}

	return l
}

// Acquire blocks until a concurrency slot and a token are both available,
// or ctx is done. On success the caller holds one slot until Release.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.sem != nil {
		select {
		case l.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if l.bucket != nil {
		if err := l.bucket.Wait(ctx); err != nil {
			l.Release()

			return err
		}
	}

	return nil
}

// Release frees the concurrency slot taken by a successful Acquire. Extra
// calls are ignored rather than corrupting the active count.
func (l *Limiter) Release() {
	if l.sem == nil {
		return
	}

	select {
	case <-l.sem:
	default:
	}
}
