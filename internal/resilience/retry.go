package resilience

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64 // 0-1, adds randomness
}

// DefaultRetryConfig returns sensible defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Retry executes fn with exponential backoff
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < cfg.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(addJitter(delay, cfg.Jitter)):
			}
			delay = nextDelay(delay, cfg)
		}
	}
	return lastErr
}

func nextDelay(current time.Duration, cfg RetryConfig) time.Duration {
	next := time.Duration(float64(current) * cfg.Multiplier)
	if next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}

func addJitter(d time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return d
	}
	delta := float64(d) * jitter
	return d + time.Duration(rand.Float64()*delta*2-delta)
}

// ErrorCategory classifies a failure for retry and alerting purposes.
type ErrorCategory string

const (
	CategoryTransient         ErrorCategory = "transient"
	CategoryPermanent         ErrorCategory = "permanent"
	CategoryResourceExhausted ErrorCategory = "resource_exhaustion"
	CategoryInvalidInput      ErrorCategory = "invalid_input"
)

// Categorize classifies err by matching common substrings in its message,
// the same heuristic used to decide whether a failed operation should be
// retried or surfaced immediately.
func Categorize(err error) ErrorCategory {
	if err == nil {
		return CategoryPermanent
	}
	lower := strings.ToLower(err.Error())

	switch {
	case containsAny(lower, "timeout", "connection", "temporary", "busy", "lock"):
		return CategoryTransient
	case containsAny(lower, "out of memory", "disk full", "no space left", "too many"):
		return CategoryResourceExhausted
	case containsAny(lower, "invalid", "parse", "malformed", "not found"):
		return CategoryInvalidInput
	default:
		return CategoryPermanent
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// RunBackground runs fn on a fixed interval until ctx is cancelled. Each
// tick retries fn under cfg; a failure that survives every retry attempt
// is reported to onError rather than stopping the loop, so a background
// task keeps running despite transient backend outages. A
// ResourceExhaustion failure waits out an extra cooldown before the next
// tick so the loop doesn't hammer an already-overloaded resource.
func RunBackground(ctx context.Context, interval time.Duration, cfg RetryConfig, fn func(context.Context) error, onError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := Retry(ctx, cfg, func() error { return fn(ctx) })
			if err == nil {
				continue
			}
			if onError != nil {
				onError(err)
			}
			if Categorize(err) == CategoryResourceExhausted {
				select {
				case <-ctx.Done():
					return
				case <-time.After(60 * time.Second):
				}
			}
		}
	}
}
