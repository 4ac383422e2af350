package resilience

import (
	"sync"
	"testing"
	"time"
)

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("dep", BreakerConfig{})

	if cb.State() != StateClosed {
		t.Errorf("Initial state = %v, want closed", cb.State())
	}
	if cb.config.FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %d, want 5", cb.config.FailureThreshold)
	}
	if cb.config.SuccessThreshold != 2 {
		t.Errorf("SuccessThreshold = %d, want 2", cb.config.SuccessThreshold)
	}
	if cb.config.OpenTimeout != 60*time.Second {
		t.Errorf("OpenTimeout = %v, want 60s", cb.config.OpenTimeout)
	}
	if cb.config.WindowSize != 100 {
		t.Errorf("WindowSize = %d, want 100", cb.config.WindowSize)
	}
}

func TestCircuitBreaker_OpenAfterThresholdFailures(t *testing.T) {
	cb := NewCircuitBreaker("dep", BreakerConfig{
		FailureThreshold: 3,
		OpenTimeout:      time.Hour,
	})

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		if cb.State() != StateClosed {
			t.Fatalf("After %d failures, state = %v, want closed", i+1, cb.State())
		}
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("After 3 failures, state = %v, want open", cb.State())
	}

	if cb.Allow() {
		t.Error("Allow() while open = true, want false")
	}
}

func TestCircuitBreaker_WindowEviction(t *testing.T) {
	// Window of 3: old failures must be evicted and stop counting
	// toward the threshold.
	cb := NewCircuitBreaker("dep", BreakerConfig{
		FailureThreshold: 3,
		WindowSize:       3,
		OpenTimeout:      time.Hour,
	})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess() // window now [F F S]
	cb.RecordFailure() // evicts the oldest F, window [F S F]

	if cb.State() != StateClosed {
		t.Errorf("State = %v, want closed (only 2 failures in window)", cb.State())
	}

	stats := cb.Snapshot()
	if stats.Failures != 2 {
		t.Errorf("Failures = %d, want 2", stats.Failures)
	}
	if stats.Successes != 1 {
		t.Errorf("Successes = %d, want 1", stats.Successes)
	}

	cb.RecordFailure() // window [S F F]
	if cb.State() != StateClosed {
		t.Errorf("State = %v, want closed", cb.State())
	}

	cb.RecordFailure() // window [F F F]
	if cb.State() != StateOpen {
		t.Errorf("State = %v, want open", cb.State())
	}
}

func TestCircuitBreaker_OpenDeniesUntilTimeout(t *testing.T) {
	cb := NewCircuitBreaker("dep", BreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      50 * time.Millisecond,
	})

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}

	if cb.Allow() {
		t.Error("Allow() before timeout = true, want false")
	}
	if cb.State() != StateOpen {
		t.Errorf("State = %v, want open (denied Allow must not transition)", cb.State())
	}

	time.Sleep(60 * time.Millisecond)

	// First Allow after the timeout grants the single trial permit.
	if !cb.Allow() {
		t.Fatal("Allow() after timeout = false, want true")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("State = %v, want half-open", cb.State())
	}

	// Second caller before the trial resolves is rejected.
	if cb.Allow() {
		t.Error("Allow() with trial in flight = true, want false")
	}
}

func TestCircuitBreaker_HalfOpenCloseAfterSuccessThreshold(t *testing.T) {
	cb := NewCircuitBreaker("dep", BreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	// First trial succeeds: still half-open, permit released.
	if !cb.Allow() {
		t.Fatal("Allow() = false, want true")
	}
	cb.RecordSuccess()
	if cb.State() != StateHalfOpen {
		t.Fatalf("After 1 success, state = %v, want half-open", cb.State())
	}

	// Second consecutive success closes and clears the window.
	if !cb.Allow() {
		t.Fatal("Allow() = false, want true (permit released after trial)")
	}
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Fatalf("After 2 successes, state = %v, want closed", cb.State())
	}

	stats := cb.Snapshot()
	if stats.Failures != 0 || stats.Successes != 0 {
		t.Errorf("Counters after close = %d/%d, want 0/0", stats.Failures, stats.Successes)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("dep", BreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("Allow() = false, want true")
	}
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}

	// openedAt was reset: the breaker must deny again for a full timeout.
	if cb.Allow() {
		t.Error("Allow() right after reopen = true, want false")
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	tests := []struct {
		name  string
		drive func(cb *CircuitBreaker)
	}{
		{"from closed", func(cb *CircuitBreaker) {
			cb.RecordFailure()
		}},
		{"from open", func(cb *CircuitBreaker) {
			cb.RecordFailure()
			cb.RecordFailure()
		}},
		{"from half-open", func(cb *CircuitBreaker) {
			cb.RecordFailure()
			cb.RecordFailure()
			time.Sleep(20 * time.Millisecond)
			cb.Allow()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker("dep", BreakerConfig{
				FailureThreshold: 2,
				OpenTimeout:      10 * time.Millisecond,
			})
			tt.drive(cb)

			cb.Reset()

			stats := cb.Snapshot()
			if stats.State != StateClosed {
				t.Errorf("State = %v, want closed", stats.State)
			}
			if stats.Failures != 0 || stats.Successes != 0 {
				t.Errorf("Counters = %d/%d, want 0/0", stats.Failures, stats.Successes)
			}
			if !cb.Allow() {
				t.Error("Allow() after reset = false, want true")
			}
		})
	}
}

func TestCircuitBreaker_TrialPermitConcurrency(t *testing.T) {
	cb := NewCircuitBreaker("dep", BreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      time.Millisecond,
	})

	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)

	// Many concurrent callers race for the single trial permit.
	const callers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cb.Allow() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Errorf("Admitted = %d concurrent trials, want exactly 1", admitted)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var mu sync.Mutex
	var transitions []struct{ from, to State }

	cb := NewCircuitBreaker("dep", BreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
		OnStateChange: func(from, to State) {
			mu.Lock()
			transitions = append(transitions, struct{ from, to State }{from, to})
			mu.Unlock()
		},
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()
	cb.RecordSuccess()

	mu.Lock()
	defer mu.Unlock()

	want := []struct{ from, to State }{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(transitions) != len(want) {
		t.Fatalf("Got %d transitions, want %d", len(transitions), len(want))
	}
	for i, w := range want {
		if transitions[i] != w {
			t.Errorf("Transition %d = %v -> %v, want %v -> %v",
				i, transitions[i].from, transitions[i].to, w.from, w.to)
		}
	}
}

func TestCircuitBreaker_TotalCalls(t *testing.T) {
	cb := NewCircuitBreaker("dep", BreakerConfig{FailureThreshold: 10})

	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordSuccess()

	if got := cb.Snapshot().TotalCalls; got != 3 {
		t.Errorf("TotalCalls = %d, want 3", got)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
