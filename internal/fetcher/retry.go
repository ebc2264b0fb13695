package fetcher

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// LinearBackOff waits attempt × Step before the next attempt.
type LinearBackOff struct {
	Step    time.Duration
	attempt int
}

// NextBackOff implements backoff.BackOff
func (b *LinearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.Step
}

// Reset implements backoff.BackOff
func (b *LinearBackOff) Reset() {
	b.attempt = 0
}

// Retrier runs an operation up to a fixed number of attempts with linear backoff.
type Retrier struct {
	maxAttempts int
	delay       time.Duration
}

// RetrierOptions contains options for creating a Retrier
type RetrierOptions struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Delay is the backoff step; the wait after attempt n is n × Delay.
	Delay time.Duration
}

// DefaultRetrierOptions returns default retrier options
func DefaultRetrierOptions() RetrierOptions {
	return RetrierOptions{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
	}
}

// NewRetrier creates a new Retrier with the given options
func NewRetrier(opts RetrierOptions) *Retrier {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Delay < 0 {
		opts.Delay = 500 * time.Millisecond
	}

	return &Retrier{
		maxAttempts: opts.MaxAttempts,
		delay:       opts.Delay,
	}
}

// MaxAttempts returns the attempt bound.
func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

func (r *Retrier) newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.WithMaxRetries(&LinearBackOff{Step: r.delay}, uint64(r.maxAttempts-1))
	return backoff.WithContext(b, ctx)
}

// Retry executes operation until it succeeds, the attempts run out or ctx
// is done. Every error is retried. It returns the number of attempts made.
func (r *Retrier) Retry(ctx context.Context, operation func(attempt int) error) (int, error) {
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return operation(attempts)
	}, r.newBackoff(ctx))
	return attempts, err
}

// RetryWithValue executes an operation with linear backoff and returns its value
func RetryWithValue[T any](ctx context.Context, r *Retrier, operation func(attempt int) (T, error)) (T, int, error) {
	var result T
	attempts, err := r.Retry(ctx, func(attempt int) error {
		var err error
		result, err = operation(attempt)
		return err
	})
	return result, attempts, err
}
