// errors.go - Error taxonomy shared by every extraction operation

package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure for the HTTP layer.
type ErrorKind string

const (
	KindValidation         ErrorKind = "VALIDATION_ERROR"
	KindProcessing         ErrorKind = "PROCESSING_ERROR"
	KindExternalService    ErrorKind = "EXTERNAL_SERVICE_ERROR"
	KindResponseFormat     ErrorKind = "RESPONSE_FORMAT_ERROR"
	KindServiceUnavailable ErrorKind = "SERVICE_UNAVAILABLE"
)

// AppError is the error every operation returns to the HTTP layer.
// RawResponse holds the model's unparsed text when the failure happened after the model answered.
type AppError struct {
	Kind        ErrorKind
	Message     string
	RawResponse string
	Cause       error
}

func (e *AppError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error kind to a response status code.
func (e *AppError) HTTPStatus() int {
	return StatusForKind(e.Kind)
}

// StatusForKind maps an error kind to a response status code.
func StatusForKind(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError reports a problem with the caller's input.
func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewProcessingError reports a server-side failure while preparing the input.
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{Kind: KindProcessing, Message: message, Cause: cause}
}

// NewExternalServiceError reports a failed model call.
func NewExternalServiceError(message string, cause error) *AppError {
	return &AppError{Kind: KindExternalService, Message: message, Cause: cause}
}

// NewResponseFormatError reports a model answer that could not be turned into the expected JSON.
func NewResponseFormatError(message, raw string, cause error) *AppError {
	return &AppError{Kind: KindResponseFormat, Message: message, RawResponse: raw, Cause: cause}
}

// NewServiceUnavailableError reports missing server-side configuration.
func NewServiceUnavailableError(message string, cause error) *AppError {
	return &AppError{Kind: KindServiceUnavailable, Message: message, Cause: cause}
}

// AsAppError unwraps err to an *AppError, wrapping unknown errors as processing errors.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewProcessingError(err.Error(), err)
}
