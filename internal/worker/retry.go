package worker

import (
	"context"
	"errors"
	"time"
)

// permanentError marks a job failure that no retry can fix (bad payload,
// missing record). withRetry stops on it right away.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanente(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// backoffBase is the first retry delay; it doubles on each attempt.
var backoffBase = time.Second

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns the number of attempts made and the last error.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) (int, error) {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * backoffBase
			select {
			case <-ctx.Done():
				return i, ctx.Err()
			case <-time.After(wait):
			}
		}
		err := fn(i)
		if err == nil {
			return i + 1, nil
		}
		lastErr = err
		var perm *permanentError
		if errors.As(err, &perm) {
			return i + 1, err
		}
	}
	return maxAttempts, lastErr
}
