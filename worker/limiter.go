package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles replay attempts per operation type. Types with no
// configured limit pass through untouched.
type Limiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter
}

// NewLimiter returns a Limiter with no limits configured.
func NewLimiter() *Limiter {
	return &Limiter{
		limits: make(map[string]*rate.Limiter),
	}
}

// SetLimit caps attempts for the given operation type at r events per
// second with the given burst. Replaces any existing limit for the type.
func (l *Limiter) SetLimit(opType string, r rate.Limit, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limits[opType] = rate.NewLimiter(r, burst)
}

// Wait blocks until an attempt for the type is permitted, or until ctx
// is done. Unlimited types return immediately.
func (l *Limiter) Wait(ctx context.Context, opType string) error {
	l.mu.RLock()
	lim, ok := l.limits[opType]
	l.mu.RUnlock()

	if !ok {
		return nil
	}
	return lim.Wait(ctx)
}

// Allow reports whether an attempt for the type is permitted right now,
// consuming a token if so.
func (l *Limiter) Allow(opType string) bool {
	l.mu.RLock()
	lim, ok := l.limits[opType]
	l.mu.RUnlock()

	if !ok {
		return true
	}
	return lim.Allow()
}
