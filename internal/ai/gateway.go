// gateway.go - Model gateway contract shared by every provider

package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Gateway sends one image plus an instruction to a multimodal model and returns its text.
// Exactly one of the results is meaningful: text on success, error otherwise.
type Gateway interface {
	Generate(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
	// Name returns the provider name (e.g., "vertex", "gemini", "mistral")
	Name() string
	Close() error
}

var (
	// ErrGatewayNotConfigured means the call was never issued.
	ErrGatewayNotConfigured = errors.New("model gateway is not configured")
	// ErrEmptyResponse means the model answered without any candidate text.
	ErrEmptyResponse = errors.New("model returned no candidates")
	// ErrContentBlocked means safety filtering blocked the prompt or the answer.
	ErrContentBlocked = errors.New("content blocked by model safety filters")
)

// blockedError wraps ErrContentBlocked and keeps the reason the model reported.
func blockedError(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unspecified"
	}
	return fmt.Errorf("%w: %s", ErrContentBlocked, reason)
}

// isTerminalResponse reports errors that describe the model's answer rather than the transport.
func isTerminalResponse(err error) bool {
	return errors.Is(err, ErrContentBlocked) || errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrGatewayNotConfigured)
}

// ModelError represents a categorized transport or API error
type ModelError struct {
	OriginalError error
	Provider      string
	Category      string
	StatusCode    int
	Message       string
	Retryable     bool
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("[%s] %s (status: %d, retryable: %v)", e.Category, e.Message, e.StatusCode, e.Retryable)
}

func (e *ModelError) Unwrap() error {
	return e.OriginalError
}

// categorizeError analyzes error and determines retry strategy
func categorizeError(provider string, err error) *ModelError {
	if err == nil {
		return nil
	}

	var modelErr *ModelError
	if errors.As(err, &modelErr) {
		return modelErr
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		me := categorizeStatus(provider, apiErr.Code, apiErr.Message)
		me.OriginalError = err
		return me
	}

	me := &ModelError{
		OriginalError: err,
		Provider:      provider,
		Category:      "unknown",
		Message:       err.Error(),
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		me.Category = "timeout"
		me.Message = "Request timeout - processing took too long"
		me.Retryable = true
		return me
	case errors.Is(err, context.Canceled):
		me.Category = "canceled"
		me.Message = "Request was canceled"
		return me
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "quota"):
		me.Category = "quota_exceeded"
		me.Message = "API quota exceeded: " + err.Error()
	case strings.Contains(errMsg, "permissiondenied") || strings.Contains(errMsg, "permission denied") ||
		strings.Contains(errMsg, "unauthenticated") || strings.Contains(errMsg, "credentials"):
		me.Category = "unauthorized"
		me.Message = "Authentication failed: " + err.Error()
	case strings.Contains(errMsg, "resourceexhausted") || strings.Contains(errMsg, "resource exhausted"):
		me.Category = "rate_limit"
		me.Message = "Rate limit exceeded: " + err.Error()
		me.Retryable = true
	case strings.Contains(errMsg, "unavailable"):
		me.Category = "server_error"
		me.Retryable = true
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline"):
		me.Category = "timeout"
		me.Retryable = true
	case strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network"):
		me.Category = "network_error"
		me.Retryable = true
	}
	return me
}

// categorizeStatus maps an HTTP status from the provider to an error category.
func categorizeStatus(provider string, code int, detail string) *ModelError {
	me := &ModelError{Provider: provider, StatusCode: code}

	switch code {
	case http.StatusBadRequest:
		me.Category = "bad_request"
		me.Message = "Invalid request format or parameters"
	case http.StatusUnauthorized:
		me.Category = "unauthorized"
		me.Message = "Invalid API key or authentication failed"
	case http.StatusForbidden:
		me.Category = "forbidden"
		me.Message = "Credentials lack required permissions"
	case http.StatusNotFound:
		me.Category = "not_found"
		me.Message = "Model not found or invalid endpoint"
	case http.StatusRequestEntityTooLarge:
		me.Category = "payload_too_large"
		me.Message = "Request size exceeds limit (reduce image size)"
	case http.StatusTooManyRequests:
		me.Category = "rate_limit"
		me.Message = "Rate limit exceeded - too many requests"
		me.Retryable = true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		me.Category = "server_error"
		me.Message = fmt.Sprintf("%s server error (%d)", provider, code)
		me.Retryable = true
	default:
		me.Category = "unknown_api_error"
		me.Message = "API error"
		me.Retryable = code >= 500
	}

	if detail = strings.TrimSpace(detail); detail != "" {
		me.Message += ": " + detail
	}
	return me
}
