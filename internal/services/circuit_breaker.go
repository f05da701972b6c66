package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the current state of the circuit breaker
type CircuitBreakerState int

const (
	Closed CircuitBreakerState = iota
	Open
	HalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // half-open successes needed to close
	OpenTimeout      time.Duration // time spent open before probing
	MaxProbes        int           // concurrent calls allowed while half-open
}

// CircuitBreakerStats holds statistics for the circuit breaker
type CircuitBreakerStats struct {
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	RejectedRequests   int64     `json:"rejected_requests"`
	LastFailureTime    time.Time `json:"last_failure_time"`
	StateChanges       int64     `json:"state_changes"`
}

// CircuitBreaker stops calling a failing dependency for a while. The lock is
// never held while the protected call runs.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	logger *logrus.Logger
	now    func() time.Time

	mu              sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	successCount    int
	inFlightProbes  int
	lastStateChange time.Time
	stats           CircuitBreakerStats
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, config CircuitBreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 30 * time.Second
	}
	if config.MaxProbes <= 0 {
		config.MaxProbes = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &CircuitBreaker{
		name:            name,
		config:          config,
		logger:          logger,
		now:             time.Now,
		state:           Closed,
		lastStateChange: time.Now(),
	}
}

// Execute runs fn unless the breaker is open, and records its outcome.
// A call ending in context cancellation counts as neither success nor failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	probe, err := cb.acquire()
	if err != nil {
		return err
	}

	err = fn(ctx)
	cb.release(probe, err)
	return err
}

func (cb *CircuitBreaker) acquire() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalRequests++

	if cb.state == Open && cb.now().Sub(cb.lastStateChange) >= cb.config.OpenTimeout {
		cb.setState(HalfOpen)
	}

	switch cb.state {
	case Closed:
		return false, nil
	case HalfOpen:
		if cb.inFlightProbes < cb.config.MaxProbes {
			cb.inFlightProbes++
			return true, nil
		}
	}

	cb.stats.RejectedRequests++
	return false, ErrCircuitOpen
}

func (cb *CircuitBreaker) release(probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if probe {
		cb.inFlightProbes--
	}

	switch {
	case err == nil:
		cb.onSuccess()
	case errors.Is(err, context.Canceled):
		// The caller gave up; says nothing about the dependency.
	default:
		cb.onFailure(err)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.stats.SuccessfulRequests++

	switch cb.state {
	case Closed:
		cb.failureCount = 0
	case HalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.setState(Closed)
		}
	}
}

func (cb *CircuitBreaker) onFailure(err error) {
	cb.stats.FailedRequests++
	cb.stats.LastFailureTime = cb.now()

	switch cb.state {
	case Closed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.setState(Open)
		}
	case HalfOpen:
		// Any failure in half-open state should open the circuit
		cb.setState(Open)
	}

	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"state":           cb.state.String(),
		"failure_count":   cb.failureCount,
	}).WithError(err).Debug("Circuit breaker: failed execution")
}

// setState changes the circuit breaker state
func (cb *CircuitBreaker) setState(newState CircuitBreakerState) {
	if cb.state == newState {
		return
	}
	oldState := cb.state
	cb.state = newState
	cb.lastStateChange = cb.now()
	cb.failureCount = 0
	cb.successCount = 0
	cb.stats.StateChanges++

	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"old_state":       oldState.String(),
		"new_state":       newState.String(),
	}).Info("Circuit breaker state changed")
}

// Name identifies the breaker in logs and admin endpoints.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns the current statistics
func (cb *CircuitBreaker) GetStats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stats
}

// Reset manually resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(Closed)
}

// breakerCache skips the result cache while its breaker is open.
type breakerCache struct {
	next    ResultCache
	breaker *CircuitBreaker
}

// NewCircuitBreakerCache wraps a ResultCache so that an unreachable cache is
// bypassed instead of adding a timeout to every request.
func NewCircuitBreakerCache(next ResultCache, breaker *CircuitBreaker) ResultCache {
	return &breakerCache{next: next, breaker: breaker}
}

func (c *breakerCache) Key(operation string, parts ...interface{}) (string, error) {
	return c.next.Key(operation, parts...)
}

func (c *breakerCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var found bool
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		found, err = c.next.Get(ctx, key, dest)
		return err
	})
	return found, err
}

func (c *breakerCache) Set(ctx context.Context, key string, value interface{}) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.next.Set(ctx, key, value)
	})
}
