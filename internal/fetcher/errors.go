package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit indicates the request was rejected due to rate limiting (HTTP 429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates a server error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates a client error (HTTP 4xx except 429)
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeFormat indicates the body was received but did not have the expected shape
	ErrorTypeFormat ErrorType = "format"
	// ErrorTypeTimeout indicates the request timed out or was cancelled
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeUnknown indicates an error of unknown type
	ErrorTypeUnknown ErrorType = "unknown"
)

// FetchError represents a structured error from a fetch operation
type FetchError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	URL        string
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	msg := e.Message
	if e.URL != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.URL)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error, or a timeout error when the
// cause is a cancelled or expired context.
func NewNetworkError(url string, cause error) *FetchError {
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		return NewTimeoutError(url, cause)
	}
	return &FetchError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		URL:       url,
		Message:   "network request failed",
		Cause:     cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(url string, cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeTimeout,
		Retryable: true,
		URL:       url,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// NewFormatError reports a body that was fetched but could not be understood.
// Format errors usually mean the upstream changed its layout.
func NewFormatError(url, message string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeFormat,
		URL:     url,
		Message: message,
		Cause:   cause,
	}
}

// ClassifyHTTPError classifies a non-200 HTTP status code into an appropriate FetchError
func ClassifyHTTPError(url string, statusCode int) *FetchError {
	e := &FetchError{
		StatusCode: statusCode,
		URL:        url,
	}
	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Type, e.Retryable, e.Message = ErrorTypeRateLimit, true, "rate limit exceeded"
	case statusCode >= 500:
		e.Type, e.Retryable, e.Message = ErrorTypeServer, true, "server returned an error"
	case statusCode >= 400:
		e.Type, e.Message = ErrorTypeClient, fmt.Sprintf("client error: HTTP %d", statusCode)
	default:
		e.Type, e.Message = ErrorTypeUnknown, fmt.Sprintf("unexpected status code: %d", statusCode)
	}
	return e
}

// ResponseError returns the error describing a failed response, or nil if
// the response is OK.
func ResponseError(r Response) error {
	if r.Err != nil {
		return r.Err
	}
	if r.Status != http.StatusOK {
		return ClassifyHTTPError(r.URL, r.Status)
	}
	return nil
}
