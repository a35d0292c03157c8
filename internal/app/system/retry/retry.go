// Package retry re-runs an operation after transient infrastructure errors
// (network blips, server selection timeouts). Business errors and lost
// races are never retried here; callers surface those.
package retry

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Policy bounds the attempts and the backoff between them.
type Policy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// Default is 3 attempts starting at 50ms.
var Default = Policy{Attempts: 3, Base: 50 * time.Millisecond, Max: time.Second}

// IsTransient reports whether err is worth retrying unchanged.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var le mongo.LabeledError
	if errors.As(err, &le) {
		return le.HasErrorLabel("RetryableWriteError") || le.HasErrorLabel("TransientTransactionError")
	}
	return false
}

// Do runs fn until it succeeds, returns a non-transient error, the attempts
// are used up, or ctx is done.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.Base

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil || !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
		if p.Max > 0 && delay > p.Max {
			delay = p.Max
		}
	}
	return err
}

// Do runs fn with the Default policy.
func Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return Default.Do(ctx, fn)
}
