// Package retry repeats runtime checks with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	perrors "github.com/britney/internal/errors"
)

// Logger receives progress lines; *logging.RunLogger satisfies it
type Logger interface {
	Log(format string, args ...interface{})
}

// Config configures retry behavior with exponential backoff
type Config struct {
	MaxRetries int           // attempts after the first one
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool // up to 10% random jitter
}

// Result contains information about the retry operation
type Result struct {
	Attempts      int
	TotalDuration time.Duration
	LastError     error
	Success       bool
	Reasons       []string // error text of every failed attempt
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// RuntimeConfig suits waiting for a local model runtime that is still starting
func RuntimeConfig(retries int) Config {
	return Config{
		MaxRetries: retries,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.5,
		Jitter:     true,
	}
}

// Do runs operation until it succeeds, fails with a non-retryable error,
// runs out of attempts or ctx is done. logger may be nil.
func Do(ctx context.Context, config Config, operation func(ctx context.Context) error, logger Logger) Result {
	startTime := time.Now()
	logf := func(format string, args ...interface{}) {
		if logger != nil {
			logger.Log(format, args...)
		}
	}

	result := Result{Reasons: make([]string, 0)}

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1
		logf("Attempt %d/%d", attempt+1, config.MaxRetries+1)

		err := operation(ctx)
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(startTime)
			logf("Operation succeeded after %d attempt(s) (total duration: %v)", result.Attempts, result.TotalDuration)
			return result
		}

		result.LastError = err
		result.Reasons = append(result.Reasons, err.Error())

		if attempt >= config.MaxRetries || !IsRetryableError(err) {
			result.TotalDuration = time.Since(startTime)
			logf("Operation failed after %d attempt(s) (total duration: %v): %v", result.Attempts, result.TotalDuration, err)
			return result
		}

		delay := calculateDelay(config, attempt)
		logf("Operation failed: %v", err)
		logf("Waiting %v before retry (next attempt at %v)", delay, time.Now().Add(delay).Format("15:04:05"))

		select {
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(startTime)
			logf("Operation cancelled during backoff delay: %v", ctx.Err())
			return result
		case <-time.After(delay):
		}
	}

	result.TotalDuration = time.Since(startTime)
	return result
}

// calculateDelay calculates the delay for the next retry attempt using exponential backoff
func calculateDelay(config Config, attempt int) time.Duration {
	// baseDelay * multiplier^attempt
	delay := float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
		if delay < 0 {
			delay = float64(config.BaseDelay)
		}
	}

	return time.Duration(delay)
}

// retryableErrors are fragments of transient network or runtime failures
var retryableErrors = []string{
	"failed to connect",
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"status 429",
	"status 502",
	"status 503",
	"status 504",
	"no such host",
	"network unreachable",
	"broken pipe",
	"unexpected eof",
}

// IsRetryableError reports whether repeating the operation may help.
// A runtime without models or a base model without FROM never heals by itself.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, perrors.ErrUnavailable) || errors.Is(err, perrors.ErrNoBaseDirective) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}
	return false
}
