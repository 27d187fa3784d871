// Package retrylimit provides adaptive rate limiting and retry with
// exponential backoff for outbound HTTP clients. The rate adjusts itself:
// up on success, down on 429s and server errors.
package retrylimit

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// StatusError is an error carrying the HTTP status of a failed request.
// Integrations return it so the retry loop can tell throttling and server
// faults apart from permanent failures.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// AdaptiveLimiter manages a rate limit that adjusts automatically based on
// request outcomes. Thread-safe.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	lastError time.Time
}

// NewAdaptiveLimiter creates a limiter starting at initial requests per
// second, bounded by [min, max], growing by stepUp on success and multiplied
// by stepDown (e.g. 0.5) on failure.
func NewAdaptiveLimiter(initial, min, max rate.Limit, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if initial < 1 {
		initial = 1
	}
	if min < 1 {
		min = 1
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, maxInt(1, int(initial))),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
	}
}

// Wait blocks until a token is available or the context is canceled.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success increases the rate after a successful request, unless an error was
// seen recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > 10*time.Second {
		a.adjustLimit(a.limiter.Limit() + a.stepUp)
	}
}

// RateLimited reduces the rate after a throttled or failed request.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	a.adjustLimit(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) adjustLimit(newLimit rate.Limit) {
	if newLimit > a.maxLimit {
		newLimit = a.maxLimit
	} else if newLimit < a.minLimit {
		newLimit = a.minLimit
	}
	if newLimit != a.limiter.Limit() {
		a.limiter.SetLimit(newLimit)
		a.limiter.SetBurst(maxInt(1, int(newLimit)))
	}
}

// WithRetryMax executes fn with exponential backoff up to maxAttempts times,
// waiting on the limiter before each attempt. Retries stop on success,
// context cancellation, or a non-retryable error (anything that is not a 429
// or 5xx StatusError and not a transport error).
func WithRetryMax(ctx context.Context, fn func() error, lim *AdaptiveLimiter, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	delay := 500 * time.Millisecond
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			return nil
		}
		lastErr = err

		if se, ok := err.(*StatusError); ok {
			retryable := se.Code == http.StatusTooManyRequests || (se.Code >= 500 && se.Code < 600)
			if !retryable {
				return err
			}
			if lim != nil {
				lim.RateLimited()
			}
		}

		if attempt < maxAttempts {
			log.Printf("[WARN] Request failed (attempt %d): %v. Sleeping %v", attempt, err, delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(addJitter(delay)):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("max attempts (%d) exceeded: %w", maxAttempts, lastErr)
}

// addJitter adds 0-25% random jitter to a delay.
func addJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(int64(delay/4)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
