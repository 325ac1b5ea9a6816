package provisioning

import (
	"context"
	"errors"
	"time"

	"github.com/imamik/stratus/internal/util/retry"
)

// CallThrottled runs fn and retries it exactly once after delay when
// isThrottled classifies the failure as rate limiting. A call still throttled
// after the retry surfaces as TransientError. Other failures are returned
// unchanged so callers can classify them.
func CallThrottled(ctx context.Context, obs Observer, phase, operation string, delay time.Duration, isThrottled func(error) bool, fn func() error) error {
	err := retry.Once(ctx, delay, func() error {
		err := fn()
		if err != nil && !isThrottled(err) {
			return retry.Fatal(err)
		}
		return err
	}, retry.WithOnRetry(func(_ int, err error) {
		LogRetry(obs, phase, operation, "throttled", err)
		RecordRetry(operation, "throttled")
	}))
	if err == nil {
		return nil
	}

	var fatal *retry.FatalError
	if errors.As(err, &fatal) {
		return Cancelled(ctx, operation, fatal.Err)
	}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return &TransientError{
			Operation: operation,
			Attempts:  exhausted.Attempts,
			Err:       NewRemoteError(operation, exhausted.Err),
		}
	}
	return Cancelled(ctx, operation, err)
}
