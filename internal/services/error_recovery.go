package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy defines retry behavior for failed operations
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryPolicies returns the policies used for the service's external dependencies.
func DefaultRetryPolicies() map[string]RetryPolicy {
	return map[string]RetryPolicy{
		"redis_connect": {
			MaxRetries:    4,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      8 * time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
	}
}

// Retry runs operation until it succeeds, the policy is exhausted or ctx is done.
// The last error is returned wrapped with the attempt count.
func Retry(ctx context.Context, logger *logrus.Logger, name string, policy RetryPolicy, operation func(context.Context) error) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	delay := policy.InitialDelay

	var err error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err = operation(ctx); err == nil {
			if attempt > 0 {
				logger.WithFields(logrus.Fields{
					"operation": name,
					"attempts":  attempt + 1,
				}).Info("Operation recovered after retry")
			}
			return nil
		}
		if attempt == policy.MaxRetries {
			break
		}

		wait := policy.delayWithJitter(delay)
		logger.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt + 1,
			"retry_in":  wait.String(),
		}).WithError(err).Warn("Operation failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", name, ctx.Err())
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * policy.BackoffFactor)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, policy.MaxRetries+1, err)
}

// delayWithJitter spreads delay by up to ±25%.
func (p RetryPolicy) delayWithJitter(delay time.Duration) time.Duration {
	if !p.JitterEnabled || delay <= 0 {
		return delay
	}
	jitter := time.Duration(float64(delay) * 0.25 * (2*rand.Float64() - 1))
	return delay + jitter
}
