// Package backoff provides pluggable retry delay strategies for operation
// replay. All strategies are safe for concurrent use (they are stateless).
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Linear
// ──────────────────────────────────────────────────

// Linear increases the delay linearly with the attempt number.
// Delay = min(Initial * attempt, Max).
type Linear struct {
	Initial time.Duration
	Max     time.Duration
}

// NewLinear creates a linear backoff strategy.
func NewLinear(initial, maxDelay time.Duration) *Linear {
	return &Linear{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * attempt, capped at Max.
func (l *Linear) Delay(attempt int) time.Duration {
	d := l.Initial * time.Duration(attempt)
	if l.Max > 0 && d > l.Max {
		return l.Max
	}
	return d
}

// ──────────────────────────────────────────────────
// Exponential (capped, additive jitter)
// ──────────────────────────────────────────────────

// Exponential doubles the delay each attempt and adds bounded random
// jitter on top of the capped base.
// Delay = min(min(Initial * 2^(attempt-1), Max) + jitter, Max) where
// jitter is uniform in [0, Jitter). The jitter spreads retries out so
// many operations backing off from the same outage don't all fire at
// once; keeping it additive (rather than full jitter) preserves a
// non-decreasing delay sequence as long as Jitter <= Initial.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
	Jitter  time.Duration
}

// NewExponential creates an exponential backoff strategy without jitter.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// NewExponentialWithJitter creates an exponential backoff strategy with
// additive jitter.
func NewExponentialWithJitter(initial, maxDelay, jitter time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay, Jitter: jitter}
}

// Delay returns the capped exponential base plus jitter, clamped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	// Compare in float64 before converting: the doubling overflows int64
	// around attempt 62 and a negative duration would defeat the cap.
	f := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && f > float64(e.Max) {
		f = float64(e.Max)
	}
	base := time.Duration(math.MaxInt64)
	if f < float64(math.MaxInt64) {
		base = time.Duration(f)
	}

	d := base
	if e.Jitter > 0 {
		j := time.Duration(rand.Float64() * float64(e.Jitter)) //nolint:gosec // jitter intentionally uses non-crypto rand
		if d <= math.MaxInt64-j {
			d += j
		}
	}
	if e.Max > 0 && d > e.Max {
		d = e.Max
	}
	return d
}

// ──────────────────────────────────────────────────
// Default
// ──────────────────────────────────────────────────

// Default returns the default backoff used by the queue:
// exponential with 1s initial delay, 30s cap, and up to 1s of jitter.
func Default() Strategy {
	return NewExponentialWithJitter(1*time.Second, 30*time.Second, 1*time.Second)
}
