// retry.go - Retry logic for model API calls

package ai

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bosocmputer/document_gateway/internal/common"
)

// RetryConfig defines retry behavior for model API calls
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig makes a single attempt; raise MaxAttempts to retry transient failures.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     1,
	InitialDelay:    1 * time.Second,
	MaxDelay:        8 * time.Second,
	BackoffMultiple: 2.0,
}

// callWithRetry runs call until it succeeds, fails with a non-retryable error, or attempts run out.
// Blocked and empty responses are returned as-is and never retried.
func callWithRetry[T any](ctx context.Context, provider string, config RetryConfig, call func(context.Context) (T, error)) (T, error) {
	var zero T
	rc := common.FromContext(ctx)

	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr *ModelError
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			rc.LogInfo("Retry attempt %d/%d", attempt, attempts)
		}

		result, err := call(ctx)
		if err == nil {
			if attempt > 1 {
				rc.LogInfo("✅ Retry succeeded on attempt %d", attempt)
			}
			return result, nil
		}

		if isTerminalResponse(err) {
			return zero, err
		}

		lastErr = categorizeError(provider, err)
		rc.LogError("API call failed (attempt %d/%d): %s", attempt, attempts, lastErr.Error())

		if !lastErr.Retryable {
			return zero, lastErr
		}
		if attempt >= attempts {
			break
		}

		delay := calculateBackoff(attempt, config)
		if lastErr.Category == "rate_limit" {
			delay *= 2
			rc.LogWarning("Rate limit hit, waiting %v before retry", delay)
		} else {
			rc.LogInfo("Waiting %v before retry", delay)
		}

		select {
		case <-ctx.Done():
			return zero, categorizeError(provider, fmt.Errorf("context canceled during retry wait: %w", ctx.Err()))
		case <-time.After(delay):
		}
	}

	if attempts == 1 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("%s API call failed after %d attempts: %w", provider, attempts, lastErr)
}

// calculateBackoff computes exponential backoff delay
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
