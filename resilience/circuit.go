package resilience

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow through normally.
	StateClosed State = iota
	// StateOpen means calls are rejected without touching the dependency.
	StateOpen
	// StateHalfOpen means the breaker is probing whether the dependency recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of failures within the outcome window
	// that opens the circuit. Counted as an absolute number, not a ratio.
	// Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successful trials in
	// half-open required to close the circuit.
	// Default: 2
	SuccessThreshold int

	// OpenTimeout is how long the circuit stays open before a trial call
	// is admitted.
	// Default: 60 seconds
	OpenTimeout time.Duration

	// WindowSize bounds the outcome window; the oldest outcome is evicted
	// on overflow.
	// Default: 100
	WindowSize int

	// OnStateChange is called when the circuit state changes. It runs with
	// the breaker's internal lock held: the hook must return quickly and
	// must not call back into the breaker (State, Snapshot, Allow, or the
	// Record methods deadlock).
	OnStateChange func(from, to State)
}

// CircuitBreaker tracks recent call outcomes for one dependency and decides
// whether a call may proceed. All operations are safe for concurrent use;
// transitions are serialized through a per-breaker mutex that is never held
// across a remote call or a backoff wait.
type CircuitBreaker struct {
	name   string
	config BreakerConfig

	mu             sync.Mutex
	state          State
	window         *outcomeWindow
	trialSuccesses int
	totalCalls     int64
	openedAt       time.Time
	trialInFlight  bool
}

// NewCircuitBreaker creates a circuit breaker for the named dependency.
func NewCircuitBreaker(name string, config BreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 60 * time.Second
	}
	if config.WindowSize <= 0 {
		config.WindowSize = 100
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
		window: newOutcomeWindow(config.WindowSize),
	}
}

// Name returns the protected dependency name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// Allow reports whether a call may proceed.
//
// Closed always admits. Open admits only once OpenTimeout has elapsed, in
// which case the breaker atomically moves to half-open and the caller holds
// the single trial permit. Half-open admits only while no trial is in
// flight; callers finding no permit are rejected, never queued.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(cb.openedAt) < cb.config.OpenTimeout {
			return false
		}
		cb.transition(StateHalfOpen)
		cb.trialInFlight = true
		return true

	case StateHalfOpen:
		if cb.trialInFlight {
			return false
		}
		cb.trialInFlight = true
		return true

	default:
		return false
	}
}

// RecordSuccess appends a success outcome. In half-open it resolves the
// trial; SuccessThreshold consecutive successful trials close the circuit
// and clear the window.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	cb.window.push(true)

	if cb.state == StateHalfOpen {
		cb.trialInFlight = false
		cb.trialSuccesses++
		if cb.trialSuccesses >= cb.config.SuccessThreshold {
			cb.window.clear()
			cb.transition(StateClosed)
		}
	}
}

// RecordFailure appends a failure outcome. In closed it opens the circuit
// once FailureThreshold failures sit in the window. In half-open a single
// failure reopens the circuit and restarts the open timeout.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	cb.window.push(false)

	switch cb.state {
	case StateClosed:
		if cb.window.failures >= cb.config.FailureThreshold {
			cb.openedAt = time.Now()
			cb.transition(StateOpen)
		}

	case StateHalfOpen:
		cb.trialInFlight = false
		cb.openedAt = time.Now()
		cb.transition(StateOpen)
	}
}

// State returns the current circuit state without side effects.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker to closed and clears the window, counters, and
// any outstanding trial permit, regardless of prior state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window.clear()
	cb.totalCalls = 0
	cb.trialInFlight = false
	cb.transition(StateClosed)
}

// Stats is a point-in-time snapshot of breaker counters.
type Stats struct {
	State      State
	Failures   int
	Successes  int
	TotalCalls int64
}

// Snapshot returns the current state and windowed counters.
func (cb *CircuitBreaker) Snapshot() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Stats{
		State:      cb.state,
		Failures:   cb.window.failures,
		Successes:  cb.window.successes,
		TotalCalls: cb.totalCalls,
	}
}

// transition moves to the target state and fires the state-change hook.
// Callers must hold cb.mu.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}

	cb.state = to
	if to == StateHalfOpen {
		cb.trialSuccesses = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// outcomeWindow is a fixed-size ring of call outcomes with incremental
// failure and success counts kept consistent with eviction.
type outcomeWindow struct {
	buf       []bool
	head      int
	n         int
	failures  int
	successes int
}

func newOutcomeWindow(size int) *outcomeWindow {
	return &outcomeWindow{buf: make([]bool, size)}
}

func (w *outcomeWindow) push(success bool) {
	if w.n == len(w.buf) {
		// Full: the write slot holds the oldest outcome.
		if w.buf[w.head] {
			w.successes--
		} else {
			w.failures--
		}
	} else {
		w.n++
	}

	w.buf[w.head] = success
	w.head = (w.head + 1) % len(w.buf)

	if success {
		w.successes++
	} else {
		w.failures++
	}
}

func (w *outcomeWindow) clear() {
	w.head = 0
	w.n = 0
	w.failures = 0
	w.successes = 0
}
