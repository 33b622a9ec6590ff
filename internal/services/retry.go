package services

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy is the single retry rule applied to every generate+validate
// attempt. MaxAttempts counts total attempts, including the first.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Exponential bool
}

// DefaultRetryPolicy returns three attempts two seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second}
}

func (p RetryPolicy) backoff() retry.Backoff {
	d := p.Delay
	if d <= 0 {
		// go-retry rejects non-positive bases
		d = time.Nanosecond
	}
	var b retry.Backoff
	if p.Exponential {
		b = retry.NewExponential(d)
	} else {
		b = retry.NewConstant(d)
	}
	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return retry.WithMaxRetries(uint64(retries), b)
}

// Do calls fn until it succeeds, returns an error not marked with
// retry.RetryableError, or the attempt budget is spent. It returns the number
// of attempts made and the last error, unwrapped.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	attempts := 0
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempts++
		return fn(ctx, attempts)
	})
	return attempts, err
}
