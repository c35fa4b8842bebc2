// Package ratelimiter provides token-bucket rate limiting for the accept
// loop, bounding how fast new control connections are admitted.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate with the server's conventions:
// a rate of zero means unlimited, and burst capacity defaults to twice the
// sustained rate.
//
// Thread safety: all methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter admitting eventsPerSecond sustained with the given
// burst capacity. A zero rate disables limiting; a zero burst defaults to
// twice the rate.
func New(eventsPerSecond, burst uint) *RateLimiter {
	if eventsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = eventsPerSecond * 2
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), int(burst)),
	}
}

// Allow reports whether one more event fits under the limit, consuming a
// token when it does. This is the non-blocking fast path used by the accept
// loop to shed load.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens reports the tokens currently available. Monitoring only.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
