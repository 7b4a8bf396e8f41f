package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("bad %s", "input"), http.StatusBadRequest},
		{"processing", NewProcessingError("decode failed", nil), http.StatusInternalServerError},
		{"external", NewExternalServiceError("model down", nil), http.StatusInternalServerError},
		{"format", NewResponseFormatError("no json", "hello", nil), http.StatusInternalServerError},
		{"unavailable", NewServiceUnavailableError("no config", nil), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestAppError_UnwrapAndAs(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("gateway: %w", NewExternalServiceError("model call failed", cause))

	appErr := AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, KindExternalService, appErr.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, appErr.Error(), "connection reset")
}

func TestAsAppError_WrapsUnknownErrors(t *testing.T) {
	appErr := AsAppError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, KindProcessing, appErr.Kind)
	assert.Equal(t, "boom", appErr.Message)
	assert.Equal(t, "PROCESSING_ERROR: boom", appErr.Error())

	assert.Nil(t, AsAppError(nil))
}

func TestResponseFormatError_KeepsRawResponse(t *testing.T) {
	err := NewResponseFormatError("no JSON object found", "I cannot read this", nil)
	assert.Equal(t, "I cannot read this", err.RawResponse)
	assert.Equal(t, KindResponseFormat, err.Kind)
}
