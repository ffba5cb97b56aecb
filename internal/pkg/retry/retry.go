// Package retry wraps github.com/cenkalti/backoff/v4 with the small set of
// policies SPEC_FULL.md §4.1, §4.2 and §4.9 need: bounded attempts, an
// exponential curve with a cap, and a caller-supplied retryable predicate.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures a bounded exponential backoff.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	// Retryable decides whether err should be retried. Nil means always retry
	// until MaxAttempts is exhausted.
	Retryable func(err error) bool
}

// EmbeddingPolicy is the default policy for C1 batch calls (§4.1: up to 5
// attempts, initial 1.5s, factor 1.5).
func EmbeddingPolicy() Policy {
	return Policy{
		MaxAttempts:     5,
		InitialInterval: 1500 * time.Millisecond,
		Multiplier:      1.5,
		MaxInterval:     30 * time.Second,
	}
}

// VectorStorePolicy is the default policy for C2 batch upserts (§4.2:
// exponential backoff, retried up to R times).
func VectorStorePolicy() Policy {
	return Policy{
		MaxAttempts:     5,
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxInterval:     20 * time.Second,
	}
}

// LLMPolicy is the default policy for C9 LLM calls (§4.9: up to 3 attempts,
// initial 1s, factor 2, cap 10s, connection/timeout errors only).
func LLMPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxInterval:     10 * time.Second,
	}
}

func (p Policy) backoff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.Multiplier = p.Multiplier
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = 0 // bounded by attempt count, not elapsed time
	return backoff.WithMaxRetries(eb, uint64(maxInt(p.MaxAttempts-1, 0)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Do runs fn, retrying per p until it succeeds, the retry budget is
// exhausted, or ctx is cancelled. The last error is returned when the
// budget is exhausted or the error is not retryable.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var lastErr error
	op := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.WithContext(p.backoff(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}

// DoWithResult is Do's generic counterpart for calls that produce a value.
func DoWithResult[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, p, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
