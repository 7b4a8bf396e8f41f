package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestCategorizeError_GoogleAPI(t *testing.T) {
	tests := []struct {
		code      int
		category  string
		retryable bool
	}{
		{http.StatusBadRequest, "bad_request", false},
		{http.StatusUnauthorized, "unauthorized", false},
		{http.StatusForbidden, "forbidden", false},
		{http.StatusNotFound, "not_found", false},
		{http.StatusTooManyRequests, "rate_limit", true},
		{http.StatusServiceUnavailable, "server_error", true},
		{599, "unknown_api_error", true},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			err := fmt.Errorf("call: %w", &googleapi.Error{Code: tt.code, Message: "details"})
			me := categorizeError("gemini", err)
			assert.Equal(t, tt.category, me.Category)
			assert.Equal(t, tt.retryable, me.Retryable)
			assert.Equal(t, tt.code, me.StatusCode)
			assert.Contains(t, me.Message, "details")
		})
	}
}

func TestCategorizeError_ContextAndMessages(t *testing.T) {
	assert.Equal(t, "timeout", categorizeError("vertex", context.DeadlineExceeded).Category)
	assert.Equal(t, "canceled", categorizeError("vertex", context.Canceled).Category)
	assert.Equal(t, "quota_exceeded", categorizeError("vertex", errors.New("Quota exceeded for project")).Category)
	assert.Equal(t, "unauthorized", categorizeError("vertex", errors.New("rpc error: code = PermissionDenied")).Category)
	assert.Equal(t, "network_error", categorizeError("vertex", errors.New("connection refused")).Category)
	assert.Equal(t, "unknown", categorizeError("vertex", errors.New("weird")).Category)
	assert.Nil(t, categorizeError("vertex", nil))
}

func TestBlockedError_KeepsReason(t *testing.T) {
	err := blockedError("PROHIBITED_CONTENT: prompt contains disallowed material")
	assert.ErrorIs(t, err, ErrContentBlocked)
	assert.Contains(t, err.Error(), "PROHIBITED_CONTENT: prompt contains disallowed material")

	assert.Contains(t, blockedError(" ").Error(), "unspecified")
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffMultiple: 2}
}

func TestCallWithRetry_SingleAttemptByDefault(t *testing.T) {
	calls := 0
	_, err := callWithRetry(context.Background(), "gemini", DefaultRetryConfig, func(context.Context) (string, error) {
		calls++
		return "", &googleapi.Error{Code: http.StatusServiceUnavailable}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var me *ModelError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "server_error", me.Category)
}

func TestCallWithRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0
	out, err := callWithRetry(context.Background(), "gemini", fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &googleapi.Error{Code: http.StatusServiceUnavailable}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
}

func TestCallWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := callWithRetry(context.Background(), "gemini", fastRetry(5), func(context.Context) (string, error) {
		calls++
		return "", &googleapi.Error{Code: http.StatusUnauthorized}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallWithRetry_NeverRetriesBlockedOrEmpty(t *testing.T) {
	for _, want := range []error{blockedError("SAFETY"), ErrEmptyResponse} {
		calls := 0
		_, err := callWithRetry(context.Background(), "gemini", fastRetry(3), func(context.Context) (string, error) {
			calls++
			return "", want
		})
		assert.Equal(t, want, err)
		assert.Equal(t, 1, calls)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffMultiple: 2}
	assert.Equal(t, time.Second, calculateBackoff(1, cfg))
	assert.Equal(t, 2*time.Second, calculateBackoff(2, cfg))
	assert.Equal(t, 4*time.Second, calculateBackoff(3, cfg))
	assert.Equal(t, 5*time.Second, calculateBackoff(4, cfg))
}

func TestProviders_NotConfigured(t *testing.T) {
	_, err := NewVertexProvider(context.Background(), "", "us-central1", "gemini-2.0-flash-001", time.Second, DefaultRetryConfig)
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)

	_, err = NewGeminiProvider(context.Background(), "", "gemini-2.0-flash-001", time.Second, DefaultRetryConfig)
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)

	var vp *VertexProvider
	_, err = vp.Generate(context.Background(), []byte("x"), "image/jpeg", "p")
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)

	_, err = NewMistralProvider("", "pixtral-12b-2409", time.Second, DefaultRetryConfig).Generate(context.Background(), nil, "image/jpeg", "p")
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
}
