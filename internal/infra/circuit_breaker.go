package infra

import (
	"errors"
	"sync"
	"time"
)

// Circuit breaker guarding the master-data registry. Item and warehouse
// lookups happen on most document writes, so a registry outage would
// otherwise turn every create into a 10s timeout; the breaker fast-fails
// instead and probes for recovery in the background of normal traffic.

// CBState is the breaker position. The health endpoint reports it verbatim.
type CBState int

const (
	CBClosed   CBState = iota // requests flow
	CBOpen                    // fast-fail everything
	CBHalfOpen                // a single probe may pass
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen fast-fails calls while the breaker is open or a probe is
// already in flight. The gateway surfaces it as a retryable gateway error.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	FailureThreshold int           // failure streak that trips the breaker
	SuccessThreshold int           // probe successes needed to close again
	OpenTimeout      time.Duration // open period before the first probe
}

// DefaultCBConfig is tuned for the registry: lookups are cheap and frequent,
// so trip after a short streak and probe again soon.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker tracks consecutive outcomes and moves between closed, open
// and half-open. Half-open admits one probe at a time; concurrent callers
// keep fast-failing until the probe settles.
type CircuitBreaker struct {
	mu            sync.Mutex
	cfg           CircuitBreakerConfig
	state         CBState
	failures      int
	successes     int
	openedAt      time.Time
	probeInFlight bool
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed}
}

// State returns the current position, promoting open to half-open once the
// open timeout has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.position()
}

// Execute runs fn through the breaker and feeds its outcome back into the
// state machine. fn runs outside the lock.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn()
	cb.settle(err)
	return err
}

// position must be called under the lock.
func (cb *CircuitBreaker) position() CBState {
	if cb.state == CBOpen && time.Since(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.successes = 0
		cb.probeInFlight = false
	}
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.position() {
	case CBOpen:
		return ErrCircuitOpen
	case CBHalfOpen:
		if cb.probeInFlight {
			return ErrCircuitOpen
		}
		cb.probeInFlight = true
	}
	return nil
}

func (cb *CircuitBreaker) settle(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probeInFlight = false

	if err != nil {
		switch cb.state {
		case CBClosed:
			cb.failures++
			if cb.failures >= cb.cfg.FailureThreshold {
				cb.trip()
			}
		case CBHalfOpen:
			// Probe failed, restart the open period
			cb.trip()
		}
		return
	}

	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = CBClosed
			cb.failures = 0
			cb.successes = 0
		}
	}
}

// trip must be called under the lock.
func (cb *CircuitBreaker) trip() {
	cb.state = CBOpen
	cb.openedAt = time.Now()
	cb.failures = 0
	cb.successes = 0
}
