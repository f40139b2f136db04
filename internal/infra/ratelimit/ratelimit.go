// Package ratelimit provides a keyed request rate limiter.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter decides whether a request from the given caller (remote address)
// is allowed.
type Limiter interface {
	Allow(caller string) bool
}

// New creates an in-memory limiter holding one token bucket per caller.
func New(r rate.Limit, burst int) Limiter {
	return &keyedLimiter{
		rate:    r,
		burst:   burst,
		callers: make(map[string]*rate.Limiter),
	}
}

type keyedLimiter struct {
	rate    rate.Limit
	burst   int
	mu      sync.Mutex
	callers map[string]*rate.Limiter
}

func (l *keyedLimiter) Allow(caller string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.callers[caller]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.callers[caller] = limiter
	}
	return limiter.Allow()
}

// Unlimited allows everything; used when rate limiting is disabled.
var Unlimited Limiter = unlimited{}

type unlimited struct{}

func (unlimited) Allow(string) bool { return true }
