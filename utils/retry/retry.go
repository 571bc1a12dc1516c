package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// Func is a unit of work executed by the retry helpers.
type Func func(ctx context.Context) error

// Retryable marks err as retryable. Errors returned by a Func passed to Constant
// that are not marked retryable stop the loop immediately.
func Retryable(err error) error {
	return retry.RetryableError(err)
}

// Constant executes f every interval until it returns nil, returns an error not
// marked with Retryable, or ctx is done. In the last case ctx.Err() is returned.
// A non-positive interval is an error.
func Constant(ctx context.Context, name string, f Func, interval time.Duration, log zerolog.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("failed to create %s retry mechanism: interval must be positive, got %s", name, interval)
	}
	backoff := retry.NewConstant(interval)

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := f(ctx)
		if err != nil {
			log.Debug().Err(err).Str("operation", name).Int("attempt", attempt).Msg("attempt did not succeed")
		}
		return err
	})
}
