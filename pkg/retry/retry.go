// Package retry runs an operation again while it keeps failing with a
// retryable error, up to a fixed number of attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is wrapped into the error returned once every attempt failed
// with a retryable error.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy bounds how often and how fast an operation is re-run.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// OnRetry, if set, is called after a retryable failure with the wait
	// before the next attempt.
	OnRetry func(err error, wait time.Duration)
}

// DefaultPolicy is used when a zero Policy is supplied.
var DefaultPolicy = Policy{
	MaxAttempts: 5,
	BaseDelay:   5 * time.Millisecond,
	MaxDelay:    250 * time.Millisecond,
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy.MaxDelay
	}
	return p
}

// newBackOff doubles BaseDelay per attempt with ±50% jitter and caps the
// interval at MaxDelay. Elapsed time never stops it; attempts do.
func (p Policy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxInterval = p.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do calls op until it succeeds, returns a non-retryable error, the context
// is done, or MaxAttempts is reached. The attempt number passed to op starts
// at 1.
func Do(ctx context.Context, p Policy, retryable func(error) bool, op func(ctx context.Context, attempt int) error) error {
	p = p.normalized()
	if err := ctx.Err(); err != nil {
		return err
	}

	var schedule backoff.BackOff = &backoff.StopBackOff{}
	if p.MaxAttempts > 1 {
		schedule = backoff.WithMaxRetries(p.newBackOff(), uint64(p.MaxAttempts-1))
	}
	b := backoff.WithContext(schedule, ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx, attempt)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(err, wait)
		}
	})

	if err != nil && retryable(err) {
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
	}
	return err
}
