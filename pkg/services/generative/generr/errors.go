// Package generr provides structured error classification for generative
// model interactions, driving the narrative retry policy.
package generr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents categories of generative errors for retry logic.
type ErrorType int8

const (
	// Retryable error types.

	// ErrorTypeRateLimit represents rate limiting errors (429, quota exceeded).
	ErrorTypeRateLimit ErrorType = iota
	// ErrorTypeTransient represents transient errors (5xx, EOF, connection reset, timeout).
	ErrorTypeTransient
	// ErrorTypeEmptyResponse represents HTTP 200 but no content errors.
	ErrorTypeEmptyResponse
	// ErrorTypeInvalidOutput represents responses that fail structural validation.
	ErrorTypeInvalidOutput

	// Non-retryable error types.

	// ErrorTypeAuth represents authentication errors (401/403, bad API key).
	ErrorTypeAuth
	// ErrorTypeBadPrompt represents malformed request errors (too long, violates policy).
	ErrorTypeBadPrompt
	// ErrorTypeUnknown represents default for unclassified errors.
	ErrorTypeUnknown
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	case ErrorTypeInvalidOutput:
		return "invalid_output"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeBadPrompt:
		return "bad_prompt"
	case ErrorTypeUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Error is a classified generative error.
type Error struct {
	Err        error
	Message    string
	Type       ErrorType
	StatusCode int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generative error (%s): %s", e.Type.String(), e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("generative error (%s): %v", e.Type.String(), e.Err)
	}
	return fmt.Sprintf("generative error (%s): status %d", e.Type.String(), e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns whether this error type should be retried.
// Blocklist approach: everything is retryable unless explicitly non-retryable.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeAuth, ErrorTypeBadPrompt:
		return false
	default:
		return true
	}
}

// Is checks if an error is of a specific type.
func Is(err error, errorType ErrorType) bool {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Type == errorType
	}
	return false
}

// TypeOf returns the error type of an error, or ErrorTypeUnknown if not
// classified.
func TypeOf(err error) ErrorType {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable reports whether err should be retried. Unclassified errors are
// retried once by the policy, so they count as retryable here.
func IsRetryable(err error) bool {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.IsRetryable()
	}
	return true
}

// NewError creates a new classified generative error.
func NewError(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
	}
}

// NewErrorWithStatus creates a new classified generative error with HTTP status.
func NewErrorWithStatus(errorType ErrorType, statusCode int, message string) *Error {
	return &Error{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewErrorWithCause creates a new classified generative error wrapping another error.
func NewErrorWithCause(errorType ErrorType, cause error, message string) *Error {
	return &Error{
		Type:    errorType,
		Err:     cause,
		Message: message,
	}
}

// Classify maps a provider SDK error to a structured error type using status
// codes embedded in the error text plus common message patterns.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewErrorWithCause(ErrorTypeTransient, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return NewErrorWithCause(ErrorTypeTransient, err, "request canceled")
	}

	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr
	}

	errStr := err.Error()

	switch extractStatusCode(errStr) {
	case 401:
		return NewErrorWithStatus(ErrorTypeAuth, 401, "authentication failed - check API key")
	case 403:
		return NewErrorWithStatus(ErrorTypeAuth, 403, "permission denied - check API access")
	case 429:
		return NewErrorWithStatus(ErrorTypeRateLimit, 429, "rate limit exceeded")
	case 400:
		return NewErrorWithStatus(ErrorTypeBadPrompt, 400, "bad request - check prompt format and parameters")
	case 500:
		return NewErrorWithStatus(ErrorTypeTransient, 500, "server error")
	case 502:
		return NewErrorWithStatus(ErrorTypeTransient, 502, "server error")
	case 503:
		return NewErrorWithStatus(ErrorTypeTransient, 503, "server error")
	case 504:
		return NewErrorWithStatus(ErrorTypeTransient, 504, "server error")
	}

	lower := strings.ToLower(errStr)

	if strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "connection") ||
		strings.Contains(lower, "network") ||
		strings.Contains(lower, "temporary") ||
		strings.Contains(lower, "eof") ||
		strings.Contains(lower, "reset") {
		return NewErrorWithCause(ErrorTypeTransient, err, "network or connection error")
	}

	if strings.Contains(lower, "rate") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "overloaded") {
		return NewErrorWithCause(ErrorTypeRateLimit, err, "rate limiting detected")
	}

	if strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "api key") ||
		strings.Contains(lower, "auth") {
		return NewErrorWithCause(ErrorTypeAuth, err, "authentication error")
	}

	if strings.Contains(lower, "invalid") ||
		strings.Contains(lower, "malformed") ||
		strings.Contains(lower, "too large") {
		return NewErrorWithCause(ErrorTypeBadPrompt, err, "prompt or request error")
	}

	return NewErrorWithCause(ErrorTypeUnknown, err, "unclassified error")
}

// extractStatusCode attempts to extract an HTTP status code from an error
// string; provider SDKs typically include it in their error messages.
func extractStatusCode(errStr string) int {
	lower := strings.ToLower(errStr)
	patterns := []string{"status code: ", "status: ", "http ", "code "}
	codes := []int{400, 401, 403, 429, 500, 502, 503, 504}

	for _, pattern := range patterns {
		idx := strings.Index(lower, pattern)
		if idx == -1 {
			continue
		}
		start := idx + len(pattern)
		if start >= len(errStr) {
			continue
		}
		rest := errStr[start:]
		for _, code := range codes {
			if strings.HasPrefix(rest, fmt.Sprintf("%d", code)) {
				return code
			}
		}
	}
	return 0
}
