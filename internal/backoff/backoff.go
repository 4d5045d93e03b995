// Package backoff wraps a single outbound generation call with bounded
// exponential-backoff retries and normalizes terminal failures.
//
// It knows nothing about assets: callers pass a service name ("text" or
// "image") and a function, and get back either the result or a *Error.
package backoff

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultInitialDelay is the wait before the first retry. It doubles each retry.
	DefaultInitialDelay = time.Second
)

// Policy configures retries.
type Policy struct {
	MaxRetries   uint
	InitialDelay time.Duration
	Logger       *slog.Logger

	// Timer replaces the wall clock between attempts. Nil uses real time.
	Timer retry.Timer
}

// DefaultPolicy returns 3 retries starting at 1s (1s, 2s, 4s).
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
	}
}

func (p Policy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Do runs fn, retrying retryable failures with exponential backoff.
// Non-retryable failures stop immediately. Every terminal failure other than
// context cancellation is returned as a *Error.
func Do[T any](ctx context.Context, p Policy, service string, fn func(context.Context) (T, error)) (T, error) {
	logger := p.logger()

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(p.MaxRetries + 1),
		retry.Delay(p.InitialDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("generation attempt failed",
				"service", service,
				"attempt", n+1,
				"max_attempts", p.MaxRetries+1,
				"error", err)
		}),
	}
	if p.Timer != nil {
		opts = append(opts, retry.WithTimer(p.Timer))
	}

	result, err := retry.DoWithData(func() (T, error) {
		return fn(ctx)
	}, opts...)
	if err == nil {
		return result, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return result, err
	}
	final := Finalize(service, err)
	logger.Error("generation call failed", "service", service, "quota", final.Quota, "error", err)
	return result, final
}
