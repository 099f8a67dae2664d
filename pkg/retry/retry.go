package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshmart/grocery-api/pkg/logger"
)

// Func is an operation that can be attempted more than once.
type Func func() error

// Config controls how Do retries an operation.
type Config struct {
	MaxAttempts     int
	BackoffStrategy BackoffStrategy
	Logger          logger.Logger
	// RetryableErrors limits retries to errors matching one of these.
	// Empty means every error is retried.
	RetryableErrors []error
}

// Do runs fn until it succeeds, the attempts are exhausted, a non-retryable
// error occurs, or the context is cancelled.
func Do(ctx context.Context, fn Func, cfg *Config) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		if !retryable(err, cfg.RetryableErrors) {
			cfg.Logger.Warn("Non-retryable error, giving up", "error", err, "attempt", attempt)
			return err
		}

		backoff := cfg.BackoffStrategy.NextBackoff(attempt)
		cfg.Logger.Debug("Retrying after error",
			"error", err,
			"attempt", attempt,
			"maxAttempts", cfg.MaxAttempts,
			"backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled during backoff: %w", ctx.Err())
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

func retryable(err error, allowed []error) bool {
	if len(allowed) == 0 {
		return true
	}

	for _, candidate := range allowed {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
