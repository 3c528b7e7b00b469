// Package degrade wraps external calls so that timeouts and failures become
// logged fallback values instead of propagated faults. Every collaborator
// call site in the pipeline goes through Call or Try rather than hand-rolled
// try/log/continue blocks.
package degrade

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// errTransient marks failures worth retrying (network-class errors). Calls
// that received a well-formed error body must not wrap with Transient.
var errTransient = errors.New("transient")

// Transient marks err as retryable
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(errTransient, err)
}

// IsTransient reports whether err was marked with Transient
func IsTransient(err error) bool {
	return errors.Is(err, errTransient)
}

// Options controls one degradable call
type Options struct {
	Timeout    time.Duration // 0 = no per-call timeout beyond ctx
	MaxRetries uint64        // Retries after the first attempt, transient errors only
	Interval   time.Duration // Initial backoff interval (default 500ms)
}

// Call runs op with a timeout and bounded exponential backoff. On any final
// error it logs at warn level and returns fallback; the error never escapes.
func Call[T any](ctx context.Context, log zerolog.Logger, name string, opts Options, fallback T, op func(ctx context.Context) (T, error)) T {
	v, err := Try(ctx, name, opts, op)
	if err != nil {
		log.Warn().Err(err).Str("call", name).Msg("degraded to fallback")
		return fallback
	}
	return v
}

// Try runs op like Call but returns the final error instead of swallowing it.
// Used where the caller distinguishes failure from a legitimate zero value.
func Try[T any](ctx context.Context, name string, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	var result T

	attempt := func() error {
		callCtx := ctx
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}

		v, err := op(callCtx)
		if err != nil {
			if IsTransient(err) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		result = v
		return nil
	}

	interval := opts.Interval
	if interval == 0 {
		interval = 500 * time.Millisecond
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = interval

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, opts.MaxRetries), ctx))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
