package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig configures the retry policy.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Negative disables retries entirely.
	// Default: 3
	MaxRetries int

	// BaseDelay is the backoff delay before the first retry.
	// Default: 100ms
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff delay.
	// Default: 10s
	MaxDelay time.Duration
}

// RetryPolicy is a pure computation of retry eligibility and backoff delay.
// It holds no mutable state and is safe for concurrent use.
type RetryPolicy struct {
	config RetryConfig
}

// NewRetryPolicy creates a retry policy.
func NewRetryPolicy(config RetryConfig) *RetryPolicy {
	// Apply defaults
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	} else if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 10 * time.Second
	}

	return &RetryPolicy{config: config}
}

// MaxRetries returns the configured retry budget.
func (p *RetryPolicy) MaxRetries() int { return p.config.MaxRetries }

// Backoff returns the exponential delay for the zero-based attempt index,
// before jitter: min(MaxDelay, BaseDelay * 2^attempt).
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.config.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.config.MaxDelay {
			return p.config.MaxDelay
		}
	}
	if d > p.config.MaxDelay {
		return p.config.MaxDelay
	}
	return d
}

// Delay returns the backoff for the attempt with full jitter applied: a
// duration drawn uniformly from [0, Backoff(attempt)], de-synchronizing
// retries across concurrent callers.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Backoff(attempt)
	if d <= 0 {
		return 0
	}
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	return time.Duration(rand.Int64N(int64(d) + 1))
}

// Retryable classifies an error. Transient failures are retryable; permanent
// failures and caller cancellation are not. Unclassified errors are treated
// as transient.
func (p *RetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if IsPermanent(err) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// sleepUntil waits for the delay or until ctx is done, whichever comes first.
func sleepUntil(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
