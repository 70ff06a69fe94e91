// pkg/retry/retry.go - functions for retrying actions with exponential backoff.

package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/windowsadmins/adminkit/pkg/logging"
)

// NonRetryableError wraps an error that must not be retried.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string { return e.Err.Error() }
func (e *NonRetryableError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// Config defines the configuration for retry attempts
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64
}

// DefaultConfig is three attempts starting at one second, doubling.
func DefaultConfig() Config {
	return Config{MaxRetries: 3, InitialInterval: time.Second, Multiplier: 2.0}
}

// Do retries action with exponential backoff until it succeeds, returns a
// non-retryable error, runs out of attempts, or ctx is done.
func Do(ctx context.Context, config Config, action func() error) error {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	interval := config.InitialInterval

	var lastErr error
	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		err := action()
		if err == nil {
			return nil
		}
		lastErr = err

		var nonRetryable *NonRetryableError
		if errors.As(err, &nonRetryable) {
			logging.Warn("Non-retryable error encountered", "attempt", attempt, "error", err)
			return nonRetryable.Err
		}

		errorMsg := err.Error()
		if strings.Contains(strings.ToLower(errorMsg), "unexpected http status code: 404") {
			errorMsg = "file not found (404): resource may have been moved or deleted"
		}

		if attempt == config.MaxRetries {
			logging.Warn(fmt.Sprintf("Attempt %d/%d failed: %s. No more retries.",
				attempt, config.MaxRetries, errorMsg))
			break
		}
		logging.Warn(fmt.Sprintf("Attempt %d/%d failed: %s. Retrying in %s...",
			attempt, config.MaxRetries, errorMsg, interval))

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * config.Multiplier)
	}

	return fmt.Errorf("action failed after %d attempts: %w", config.MaxRetries, lastErr)
}
