package errors

import (
	"errors"
	"fmt"
)

// Error types for the intake pipeline
type ErrorType string

const (
	ErrorTypeCompliance ErrorType = "compliance"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors

// NewComplianceError reports a policy rejection carrying the itemized rule
// violations and the processing id minted for the attempt. Rejections are
// final for the submitted payload.
func NewComplianceError(processingID string, issues []string) *AppError {
	return &AppError{
		Type:       ErrorTypeCompliance,
		Code:       "PIPEDA_COMPLIANCE_FAILED",
		Message:    "record failed PIPEDA compliance validation",
		Retryable:  false,
		StatusCode: 400,
		Details: map[string]interface{}{
			"processing_id": processingID,
			"issues":        issues,
		},
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// NewExternalError reports a failure from one of the downstream sinks
// (primary store, backup store, metrics). The sink name lands in Details
// so callers can tell which write failed without parsing the message.
func NewExternalError(sink, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       "EXTERNAL_SINK_ERROR",
		Message:    fmt.Sprintf("%s: %s", sink, message),
		Retryable:  true,
		StatusCode: 500,
		Details:    map[string]interface{}{"sink": sink},
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    message,
		Retryable:  true,
		StatusCode: 429,
	}
}

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}
