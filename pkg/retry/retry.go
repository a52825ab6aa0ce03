// Package retry wraps sethvargo/go-retry with the backoff shape used for
// directory replication waits: fibonacci growth capped by a total duration.
package retry

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

type Backoff struct {
	backoff retry.Backoff
}

// RetryableError marks err as transient so Do will attempt the operation
// again. Unmarked errors abort immediately.
func RetryableError(err error) error {
	return retry.RetryableError(err)
}

func Fibonacci(base time.Duration) Backoff {
	if base <= 0 {
		base = 1 * time.Second
	}
	return Backoff{backoff: retry.NewFibonacci(base)}
}

// WithMaxDuration caps the total time spent across all attempts, including
// the time spent inside the operation itself.
func (b Backoff) WithMaxDuration(timeout time.Duration) Backoff {
	b.backoff = retry.WithMaxDuration(timeout, b.backoff)
	return b
}

func (b Backoff) Do(ctx context.Context, f retry.RetryFunc) error {
	return retry.Do(ctx, b.backoff, f)
}
