// Package retry runs API calls again after transient failures.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int           // total attempts, values below 1 mean one
	InitialWait time.Duration // wait before the second attempt
	MaxWait     time.Duration // cap on a single wait
	Multiplier  float64       // growth between waits
	Jitter      float64       // 0-1, fraction of the wait randomised
}

// Once performs a single attempt. It is the client default: put.io calls are
// not retried unless a caller asks for it.
func Once() Config {
	return Config{MaxAttempts: 1}
}

// Backoff returns a config with the given attempt count and the usual
// exponential schedule.
func Backoff(attempts int) Config {
	return Config{
		MaxAttempts: attempts,
		InitialWait: 200 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.1,
	}
}

// Attempts returns the effective number of attempts.
func (c Config) Attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// Wait returns the delay after the given failed attempt (1-indexed),
// before jitter.
func (c Config) Wait(attempt int) time.Duration {
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(c.InitialWait) * math.Pow(mult, float64(attempt-1))
	if c.MaxWait > 0 && wait > float64(c.MaxWait) {
		wait = float64(c.MaxWait)
	}
	return time.Duration(wait)
}

// RetryableError marks an error as transient.
type RetryableError struct {
	Err error
}

func (e RetryableError) Error() string {
	return e.Err.Error()
}

func (e RetryableError) Unwrap() error {
	return e.Err
}

// Retryable wraps err so Do tries again. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return RetryableError{Err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var retryable RetryableError
	return errors.As(err, &retryable)
}

// Unwrap strips a RetryableError marker, if any.
func Unwrap(err error) error {
	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.Err
	}
	return err
}

// Do executes fn until it succeeds, fails permanently, or attempts run out.
// The returned error never carries the RetryableError marker.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := cfg.Attempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == attempts {
			break
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		wait := float64(cfg.Wait(attempt))
		if cfg.Jitter > 0 {
			wait += wait * cfg.Jitter * (rand.Float64()*2 - 1)
		}

		timer := time.NewTimer(time.Duration(wait))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, Unwrap(lastErr)
}
