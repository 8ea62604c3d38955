package backoff_test

import (
	"testing"
	"time"

	"github.com/xraph/opqueue/backoff"
)

func TestConstant_ReturnsFixedDelay(t *testing.T) {
	c := backoff.NewConstant(5 * time.Second)
	for attempt := 1; attempt <= 10; attempt++ {
		if got := c.Delay(attempt); got != 5*time.Second {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, 5*time.Second)
		}
	}
}

func TestLinear_GrowsLinearly(t *testing.T) {
	l := backoff.NewLinear(time.Second, time.Minute)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{5, 5 * time.Second},
		{10, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := l.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestLinear_CapsAtMax(t *testing.T) {
	l := backoff.NewLinear(time.Second, 5*time.Second)

	if got := l.Delay(100); got != 5*time.Second {
		t.Errorf("Delay(100) = %v, want %v (capped at Max)", got, 5*time.Second)
	}
}

func TestExponential_DoublesEachAttempt(t *testing.T) {
	e := backoff.NewExponential(time.Second, time.Hour)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},  // 1 * 2^0
		{2, 2 * time.Second},  // 1 * 2^1
		{3, 4 * time.Second},  // 1 * 2^2
		{4, 8 * time.Second},  // 1 * 2^3
		{5, 16 * time.Second}, // 1 * 2^4
	}
	for _, tt := range tests {
		if got := e.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponential_CapsAtMax(t *testing.T) {
	e := backoff.NewExponential(time.Second, 30*time.Second)

	// Attempt 6 = 32s > 30s max → should return 30s.
	if got := e.Delay(6); got != 30*time.Second {
		t.Errorf("Delay(6) = %v, want %v (capped at Max)", got, 30*time.Second)
	}
	if got := e.Delay(20); got != 30*time.Second {
		t.Errorf("Delay(20) = %v, want %v (capped at Max)", got, 30*time.Second)
	}
}

func TestExponential_HighAttemptsStayCapped(t *testing.T) {
	// The naive doubling overflows int64 around attempt 62; the delay
	// must stay positive and capped no matter how large the retry budget.
	e := backoff.NewExponential(time.Second, 30*time.Second)

	for _, attempt := range []int{62, 63, 64, 100, 1000} {
		if got := e.Delay(attempt); got != 30*time.Second {
			t.Errorf("Delay(%d) = %v, want %v (capped at Max)", attempt, got, 30*time.Second)
		}
	}

	j := backoff.NewExponentialWithJitter(time.Second, 30*time.Second, time.Second)
	for _, attempt := range []int{62, 100} {
		got := j.Delay(attempt)
		if got <= 0 || got > 30*time.Second {
			t.Errorf("jittered Delay(%d) = %v, want within (0, 30s]", attempt, got)
		}
	}
}

func TestExponential_UncappedHighAttemptStaysPositive(t *testing.T) {
	e := backoff.NewExponential(time.Second, 0)

	for _, attempt := range []int{62, 100} {
		if got := e.Delay(attempt); got <= 0 {
			t.Errorf("Delay(%d) = %v with no cap, want positive", attempt, got)
		}
	}
}

func TestExponentialWithJitter_WithinBounds(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, 30*time.Second, time.Second)

	for attempt := 1; attempt <= 8; attempt++ {
		base := time.Second << (attempt - 1)
		if base > 30*time.Second {
			base = 30 * time.Second
		}

		for range 100 {
			got := e.Delay(attempt)
			if got < base {
				t.Errorf("Delay(%d) = %v, should be >= base %v", attempt, got, base)
			}
			if got > 30*time.Second {
				t.Errorf("Delay(%d) = %v, should be <= 30s cap", attempt, got)
			}
		}
	}
}

func TestExponentialWithJitter_NonDecreasingSequence(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, 30*time.Second, time.Second)

	// With Jitter <= Initial the delay sequence never decreases.
	for range 20 {
		prev := time.Duration(0)
		for attempt := 1; attempt <= 10; attempt++ {
			got := e.Delay(attempt)
			if got < prev {
				t.Fatalf("Delay(%d) = %v decreased below previous %v", attempt, got, prev)
			}
			prev = got
		}
	}
}

func TestExponentialWithJitter_ProducesVariance(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, time.Minute, time.Second)

	seen := make(map[time.Duration]bool)
	for range 100 {
		seen[e.Delay(3)] = true
	}

	if len(seen) < 2 {
		t.Errorf("expected variance in jitter, got only %d distinct values", len(seen))
	}
}

func TestDefault_ShapeAndBounds(t *testing.T) {
	s := backoff.Default()
	if s == nil {
		t.Fatal("Default() returned nil")
	}

	for attempt := 1; attempt <= 20; attempt++ {
		got := s.Delay(attempt)
		if got < 0 || got > 30*time.Second {
			t.Errorf("Delay(%d) = %v, want within [0, 30s]", attempt, got)
		}
	}
}
