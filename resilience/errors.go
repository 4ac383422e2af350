package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker denies admission.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrFallbackExhausted is returned when no fallback provider produced a result.
	ErrFallbackExhausted = errors.New("resilience: fallback chain exhausted")

	// ErrConcurrencyLimit is returned when the per-dependency concurrency cap is reached.
	ErrConcurrencyLimit = errors.New("resilience: concurrency limit reached")

	// ErrUnknownDependency is returned for dependency names never bound in the registry.
	ErrUnknownDependency = errors.New("resilience: unknown dependency")
)

// TransientError marks a failure as retryable: timeouts, connection
// failures, and server-side errors that may clear on a later attempt.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "resilience: transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable failure. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// PermanentError marks a failure as non-retryable: validation failures and
// client-side errors that will not clear however often they are retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return "resilience: permanent: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a non-retryable failure. Returns nil for a nil err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsTransient reports whether err carries a transient classification.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsPermanent reports whether err carries a permanent classification.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// CircuitOpenError is produced when admission is denied before any call
// attempt. It never counts toward the breaker's failure window.
// Matches ErrCircuitOpen under errors.Is.
type CircuitOpenError struct {
	Dependency string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("resilience: circuit breaker open for %q", e.Dependency)
}

func (e *CircuitOpenError) Is(target error) bool { return target == ErrCircuitOpen }

// FallbackExhaustedError wraps the terminal error of a call whose fallback
// chain produced no result. Matches ErrFallbackExhausted under errors.Is and
// unwraps to the original error.
type FallbackExhaustedError struct {
	Dependency string
	Err        error
}

func (e *FallbackExhaustedError) Error() string {
	return fmt.Sprintf("resilience: fallback exhausted for %q: %v", e.Dependency, e.Err)
}

func (e *FallbackExhaustedError) Unwrap() error { return e.Err }

func (e *FallbackExhaustedError) Is(target error) bool { return target == ErrFallbackExhausted }
