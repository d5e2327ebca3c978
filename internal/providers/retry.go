// Retry support for provider calls.
//
// Transient failures (as classified by the provider via Transient) are
// retried with exponential backoff; terminal errors abort immediately via
// backoff.Permanent. NoContentFound-style outcomes and validation errors
// must never reach this layer as transient.
package providers

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig bounds the retry loop for one logical provider call.
// Zero values fall back to the backoff library defaults.
type RetryConfig struct {
	// MaxTries caps total attempts (first call included). 0 means unlimited
	// within MaxElapsed.
	MaxTries uint
	// InitialInterval seeds the exponential backoff.
	InitialInterval time.Duration
	// MaxElapsed bounds the whole loop wall-clock time.
	MaxElapsed time.Duration
}

// DefaultRetry is tuned for interactive generation runs: a few quick
// attempts, never more than half a minute in total.
var DefaultRetry = RetryConfig{
	MaxTries:        4,
	InitialInterval: 500 * time.Millisecond,
	MaxElapsed:      30 * time.Second,
}

// Do runs op with bounded exponential backoff, honoring ctx cancellation.
// Only errors marked via Transient are retried.
func Do[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	wrapped := func() (T, error) {
		v, err := op()
		if err != nil && !IsTransient(err) {
			var zero T
			return zero, backoff.Permanent(err)
		}
		return v, err
	}

	bo := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		bo.InitialInterval = cfg.InitialInterval
	}

	opts := []backoff.RetryOption{backoff.WithBackOff(bo)}
	if cfg.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(cfg.MaxTries))
	}
	if cfg.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(cfg.MaxElapsed))
	}
	return backoff.Retry(ctx, wrapped, opts...)
}
