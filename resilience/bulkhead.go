package resilience

import "golang.org/x/sync/semaphore"

// Bulkhead caps the number of in-flight calls for one dependency.
// Over-capacity calls fail fast with ErrConcurrencyLimit; they are never
// queued and never touch the circuit breaker.
type Bulkhead struct {
	sem *semaphore.Weighted
	max int64
}

// NewBulkhead creates a bulkhead admitting up to maxConcurrent calls.
func NewBulkhead(maxConcurrent int) *Bulkhead {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	return &Bulkhead{
		sem: semaphore.NewWeighted(int64(maxConcurrent)),
		max: int64(maxConcurrent),
	}
}

// TryAcquire claims a slot without blocking.
func (b *Bulkhead) TryAcquire() bool { return b.sem.TryAcquire(1) }

// Release returns a slot claimed with TryAcquire.
func (b *Bulkhead) Release() { b.sem.Release(1) }

// Max returns the configured concurrency cap.
func (b *Bulkhead) Max() int { return int(b.max) }
