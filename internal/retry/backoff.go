// Package retry provides exponential backoff for the few operations in
// hellosrv that talk to the outside world and may fail transiently
// (the public address lookup).  The greeting session itself is never
// retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// PermanentError wraps an error that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err so that [Backoff.Do] gives up at once and returns
// err itself.  Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err, or anything it wraps, is permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Zero-value fallbacks for Backoff.
const (
	defaultBase   = 100 * time.Millisecond
	defaultCap    = 5 * time.Second
	defaultFactor = 2.0
)

// Backoff retries a function with exponentially growing pauses.
type Backoff struct {
	Base     time.Duration // pause after the first failure
	Cap      time.Duration // longest pause
	Factor   float64       // growth per failure
	Attempts int           // total tries including the first; 0 = until ctx ends
	Jitter   float64       // fraction of each pause randomised, 0 = none

	// OnRetry, if set, is called before each pause.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// LookupBackoff is tuned for a lookup that runs before the listener
// opens: a dead lookup service delays startup by about a second.
func LookupBackoff() *Backoff {
	return &Backoff{
		Base:     250 * time.Millisecond,
		Cap:      time.Second,
		Factor:   2,
		Attempts: 3,
		Jitter:   0.25,
	}
}

// Wait returns the un-jittered pause that follows failed attempt n
// (1-based).
func (b *Backoff) Wait(n int) time.Duration {
	base, limit, factor := b.Base, b.Cap, b.Factor
	if base <= 0 {
		base = defaultBase
	}
	if limit <= 0 {
		limit = defaultCap
	}
	if factor < 1 {
		factor = defaultFactor
	}
	d := float64(base) * math.Pow(factor, float64(n-1))
	if d > float64(limit) {
		return limit
	}
	return time.Duration(d)
}

// Do calls fn until it returns nil, returns a [Permanent] error, runs out
// of attempts, or ctx ends.  fn receives the 1-based attempt number.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	for n := 1; ; n++ {
		err := fn(n)
		var pe *PermanentError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &pe):
			return pe.Err
		case b.Attempts > 0 && n >= b.Attempts:
			return fmt.Errorf("gave up after %d attempts: %w", n, err)
		}

		wait := jitter(b.Wait(n), b.Jitter)
		if b.OnRetry != nil {
			b.OnRetry(n, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// jitter moves d by up to ±frac of itself, never below a millisecond.
func jitter(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * frac * float64(d)
	return max(time.Duration(float64(d)+delta), time.Millisecond)
}
