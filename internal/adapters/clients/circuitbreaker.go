package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/config"
)

// State is the state of a circuit breaker.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen rejects requests until the open timeout has elapsed.
	StateOpen

	// StateHalfOpen lets a limited number of trial requests through.
	StateHalfOpen
)

// String returns the lowercase state name.
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

// transition records a state change to report once the lock is released.
type transition struct {
	from, to State
}

// CircuitBreaker stops calling an upstream that keeps failing.
//
//   - closed → open after MaxFailures consecutive failures
//   - open → half-open once Timeout has passed since the last failure
//   - half-open → closed after HalfOpenLimit consecutive successes
//   - half-open → open on any failure
//
// At most HalfOpenLimit trial requests are in flight while half-open.
type CircuitBreaker struct {
	cfg config.CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	trials      int
	lastFailure time.Time
	onChange    func(from, to State)

	now func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to be called after every state change.
// fn runs on the goroutine that caused the change, outside the breaker's lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.onChange = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may proceed. A true result must be followed by
// exactly one call to RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var (
		allowed bool
		changed *transition
	)

	switch cb.state {
	case StateClosed:
		allowed = true

	case StateOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.cfg.Timeout {
			changed = cb.moveTo(StateHalfOpen)
			cb.trials = 1
			allowed = true
		}

	case StateHalfOpen:
		if cb.trials < cb.cfg.HalfOpenLimit {
			cb.trials++
			allowed = true
		}
	}

	cb.mu.Unlock()
	cb.notify(changed)

	return allowed
}

// RecordSuccess records a request that reached the upstream and got a usable answer.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var changed *transition

	switch cb.state {
	case StateClosed:
		cb.failures = 0

	case StateHalfOpen:
		cb.trials--
		cb.successes++
		if cb.successes >= cb.cfg.HalfOpenLimit {
			changed = cb.moveTo(StateClosed)
		}
	}

	cb.mu.Unlock()
	cb.notify(changed)
}

// RecordFailure records a transport failure or a 5xx answer.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var changed *transition

	cb.lastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			changed = cb.moveTo(StateOpen)
		}

	case StateHalfOpen:
		cb.trials--
		changed = cb.moveTo(StateOpen)
	}

	cb.mu.Unlock()
	cb.notify(changed)
}

// Release returns the slot taken by Allow without recording an outcome. Use it when
// the upstream never answered for reasons of the caller's own, such as cancellation.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.trials > 0 {
		cb.trials--
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// moveTo switches state and resets the counters. Callers hold cb.mu.
func (cb *CircuitBreaker) moveTo(next State) *transition {
	if cb.state == next {
		return nil
	}

	t := &transition{from: cb.state, to: next}
	cb.state = next
	cb.failures = 0
	cb.successes = 0

	if next != StateHalfOpen {
		cb.trials = 0
	}

	return t
}

func (cb *CircuitBreaker) notify(t *transition) {
	if t == nil {
		return
	}

	cb.mu.Lock()
	fn := cb.onChange
	cb.mu.Unlock()

	if fn != nil {
		fn(t.from, t.to)
	}
}
