package shared

import (
	"context"
	"time"
)

// Retry runs fn up to attempts times with a fixed delay between attempts.
// It returns nil on the first success and the last error once the budget is
// exhausted. A canceled context stops further attempts immediately.
//
// Mapping logic must not be retried through this helper; it is intended for
// transient network failures (destination posts, media uploads).
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}
