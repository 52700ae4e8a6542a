// utils/retry.go
package utils

import (
	"log"
	"strings"
	"time"
)

// BackoffPolicy drives WithRetry: attempt n sleeps InitialDelay << n before
// retrying, up to MaxRetries extra attempts. Kept as data so tests can run
// with near-zero delays.
type BackoffPolicy struct {
	InitialDelay time.Duration
	MaxRetries   int
}

func (p BackoffPolicy) DelayFor(attempt int) time.Duration {
	return p.InitialDelay << attempt
}

var DefaultBackoff = BackoffPolicy{
	InitialDelay: 200 * time.Millisecond,
	MaxRetries:   3,
}

// Error substrings that mark a storage failure as transient. Anything else
// propagates immediately without retry.
var transientMarkers = []string{
	"connection reset",
	"connection refused",
	"timeout",
	"timed out",
	"socket",
	"network",
	"fetch failed",
}

func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// WithRetry runs op, retrying with exponential backoff while retryable
// reports the error as transient. The zero value and the last error are
// returned once the attempts are exhausted.
func WithRetry[T any](op func() (T, error), retryable func(error) bool, policy BackoffPolicy) (T, error) {
	var result T
	var err error
	for attempt := 0; ; attempt++ {
		result, err = op()
		if err == nil || !retryable(err) || attempt >= policy.MaxRetries {
			return result, err
		}
		delay := policy.DelayFor(attempt)
		log.Printf("[RETRY] transient error (attempt %d/%d, next in %v): %v",
			attempt+1, policy.MaxRetries, delay, err)
		time.Sleep(delay)
	}
}

// RetryVoid wraps WithRetry for operations without a result.
func RetryVoid(op func() error, retryable func(error) bool, policy BackoffPolicy) error {
	_, err := WithRetry(func() (struct{}, error) {
		return struct{}{}, op()
	}, retryable, policy)
	return err
}
