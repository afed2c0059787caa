package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/orgball2608/snappy-sync/pkg/logger"
)

// ErrNotConfirmed is returned by Poll when the condition never held within the retry budget.
var ErrNotConfirmed = errors.New("condition not confirmed")

type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      1.5,
	}
}

func newBackOff(ctx context.Context, cfg Config) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	if cfg.Multiplier > 0 {
		bo.Multiplier = cfg.Multiplier
	}
	bo.MaxElapsedTime = 0
	bo.Reset()

	retryable := backoff.WithMaxRetries(bo, cfg.MaxRetries)
	return backoff.WithContext(retryable, ctx)
}

func Do(ctx context.Context, log logger.Logger, operationName string, operation func() error, cfg Config) error {
	notify := func(err error, t time.Duration) {
		log.Warn(
			"Operation failed, retrying...",
			"operation", operationName,
			"error", err,
			"next_attempt_in", t.Round(time.Millisecond).String(),
		)
	}

	return backoff.RetryNotify(operation, newBackOff(ctx, cfg), notify)
}

// Poll calls check until it reports true, backing off between attempts.
// Errors from check count as a failed attempt.
func Poll(ctx context.Context, log logger.Logger, operationName string, check func() (bool, error), cfg Config) error {
	attempts := 0
	operation := func() error {
		attempts++
		ok, err := check()
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotConfirmed
		}
		return nil
	}

	notify := func(err error, t time.Duration) {
		log.Debug(
			"Condition not met yet, polling again",
			"operation", operationName,
			"attempt", attempts,
			"reason", err,
			"next_attempt_in", t.Round(time.Millisecond).String(),
		)
	}

	if err := backoff.RetryNotify(operation, newBackOff(ctx, cfg), notify); err != nil {
		if errors.Is(err, ErrNotConfirmed) {
			return fmt.Errorf("%s after %d attempts: %w", operationName, attempts, err)
		}
		return fmt.Errorf("%s after %d attempts: %w", operationName, attempts, errors.Join(ErrNotConfirmed, err))
	}
	return nil
}
