// Package retry provides the capped exponential backoff schedule used by
// fetchpool and a small context-aware driver around it.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
)

// Policy describes a capped exponential backoff retry schedule.
// The wait before the d-th retry (0-indexed) is
//
//	min(MaxInterval, Interval * Multiplier^d)
//
// so with the defaults the waits are 10ms, 20ms, 40ms, ... capped at 2s
// from the 9th wait onward.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt;
	// an operation runs at most MaxRetries+1 times.
	// Default: 10.
	MaxRetries uint64

	// Multiplier is the exponential growth factor applied to the wait
	// after every retry. Must be >= 1.
	// Default: 2.
	Multiplier float64

	// Interval is the wait before the first retry. Must be > 0.
	// Default: 10ms.
	Interval time.Duration

	// MaxInterval caps the wait before any single retry. Must be >= Interval.
	// Default: 2s.
	MaxInterval time.Duration
}

// DefaultPolicy returns the schedule applied when callers do not override it.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:  10,
		Multiplier:  2,
		Interval:    10 * time.Millisecond,
		MaxInterval: 2 * time.Second,
	}
}

// ErrInvalidPolicy is returned by Validate for out-of-range policy fields.
var ErrInvalidPolicy = errors.New("retry: invalid policy")

// Validate checks the policy fields against their documented ranges.
func (p Policy) Validate() error {
	switch {
	case p.Multiplier < 1:
		return ErrInvalidPolicy
	case p.Interval <= 0:
		return ErrInvalidPolicy
	case p.MaxInterval < p.Interval:
		return ErrInvalidPolicy
	}
	return nil
}

// NewBackOff materializes the policy as a backoff.BackOff.
// The returned value is stateful and must not be shared between operations.
func (p Policy) NewBackOff() backoff.BackOff {
	if p.MaxRetries == 0 {
		// Single attempt. WithMaxRetries treats zero as unlimited, which is
		// the opposite of what an empty budget means here.
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Interval
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	// Deterministic waits; the schedule is part of the contract.
	b.RandomizationFactor = 0
	// The budget is attempt-based, not wall-clock-based.
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, p.MaxRetries)
}

// Do runs op, retrying failures according to the policy until op succeeds,
// returns an error marked with Permanent, the retry budget is exhausted, or
// ctx is cancelled. Backoff waits are interrupted by ctx cancellation.
// On exhaustion or cancellation the error from the last attempt is returned.
func Do(ctx context.Context, p Policy, op func() error) error {
	return backoff.Retry(op, backoff.WithContext(p.NewBackOff(), ctx))
}

// Permanent marks err as not worth retrying. Do stops immediately on such
// errors and returns the wrapped error unchanged to the caller.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
