package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/kpi-forecast-go/internal/config"
)

var errDependency = errors.New("dependency down")

func failing(context.Context) error    { return errDependency }
func succeeding(context.Context) error { return nil }

// breakerWithClock returns a breaker whose clock the test advances manually.
func breakerWithClock(cfg CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", cfg, quietLogger())
	cb.now = func() time.Time { return now }
	cb.lastStateChange = now
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 3, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, failing), errDependency)
	}
	assert.Equal(t, Open, cb.GetState())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, int64(1), cb.GetStats().RejectedRequests)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 2})
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	require.NoError(t, cb.Execute(ctx, succeeding))
	_ = cb.Execute(ctx, failing)
	assert.Equal(t, Closed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, now := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	require.Equal(t, Open, cb.GetState())

	*now = now.Add(time.Minute)
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, HalfOpen, cb.GetState())
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, Closed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second})
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	*now = now.Add(2 * time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, failing), errDependency)
	assert.Equal(t, Open, cb.GetState())
	assert.ErrorIs(t, cb.Execute(ctx, succeeding), ErrCircuitOpen)
}

func cancelled(context.Context) error { return fmt.Errorf("redis get: %w", context.Canceled) }

func TestCircuitBreaker_CancellationIsNotFailure(t *testing.T) {
	cb, _ := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 1})
	err := cb.Execute(context.Background(), cancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Closed, cb.GetState())
}

func TestCircuitBreaker_CancellationKeepsFailureCount(t *testing.T) {
	cb, _ := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 2})
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, cancelled)
	_ = cb.Execute(ctx, failing)
	assert.Equal(t, Open, cb.GetState())

	stats := cb.GetStats()
	assert.Equal(t, int64(2), stats.FailedRequests)
	assert.Equal(t, int64(0), stats.SuccessfulRequests)
}

func TestCircuitBreaker_CancelledHalfOpenCallDoesNotClose(t *testing.T) {
	cb, now := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	*now = now.Add(time.Minute)

	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.ErrorIs(t, cb.Execute(ctx, cancelled), context.Canceled)
	assert.Equal(t, HalfOpen, cb.GetState())

	// The cancelled half-open call released its slot.
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, Closed, cb.GetState())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Execute(context.Background(), failing)
	require.Equal(t, Open, cb.GetState())

	cb.Reset()
	assert.Equal(t, Closed, cb.GetState())
	assert.Equal(t, "closed", cb.GetState().String())
}

// stubCache is a ResultCache that fails on demand.
type stubCache struct {
	err   error
	gets  int
	store map[string]interface{}
}

func (s *stubCache) Key(operation string, _ ...interface{}) (string, error) {
	return "kpi:" + operation, nil
}

func (s *stubCache) Get(_ context.Context, key string, _ interface{}) (bool, error) {
	s.gets++
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.store[key]
	return ok, nil
}

func (s *stubCache) Set(_ context.Context, key string, value interface{}) error {
	if s.err != nil {
		return s.err
	}
	if s.store == nil {
		s.store = make(map[string]interface{})
	}
	s.store[key] = value
	return nil
}

func TestCircuitBreakerCache_BypassesFailingCache(t *testing.T) {
	stub := &stubCache{err: errDependency}
	breaker := NewCircuitBreaker("cache", CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour}, quietLogger())
	svc := NewForecastService(config.DefaultForecastConfig(), NewCircuitBreakerCache(stub, breaker), quietLogger())

	for i := 0; i < 5; i++ {
		result, err := svc.Forecast(context.Background(), revenueSeries())
		require.NoError(t, err)
		assert.Len(t, result.Predictions, 3)
	}

	// Get+Set of the first request open the breaker; later requests skip the cache.
	assert.Equal(t, 1, stub.gets)
	assert.Equal(t, Open, breaker.GetState())
}
