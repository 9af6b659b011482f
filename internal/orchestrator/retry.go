package orchestrator

import (
	"context"
	"errors"
	"time"
)

// retryable is implemented by errors that know whether a retry may help.
type retryable interface {
	Retryable() bool
}

func isRetryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// retry calls fn up to attempts times, doubling the backoff after each
// retryable failure. onRetry is called before each wait.
func retry(ctx context.Context, attempts int, backoff time.Duration, sleep func(time.Duration) <-chan time.Time,
	onRetry func(attempt int, err error), fn func(ctx context.Context) error) (int, error) {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt - 1, ctxErr
		}
		err = fn(ctx)
		if err == nil || attempt == attempts || !isRetryable(err) {
			return attempt, err
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}
		wait := backoff << (attempt - 1)
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-sleep(wait):
		}
	}
	return attempts, err
}
