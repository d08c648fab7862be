// Package utils provides the ambient pieces shared by every jobharvest
// package: structured errors, logging, randomness and time.
package utils

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns string representation of error severity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ErrorCode categorizes failures so callers can branch on kind rather than text.
type ErrorCode string

const (
	// Proxy pool
	ErrCodeProxyLineInvalid ErrorCode = "PROXY_LINE_INVALID"
	ErrCodeNoHealthyProxy   ErrorCode = "NO_HEALTHY_PROXY"

	// Browser boundary
	ErrCodeNavigationTimeout ErrorCode = "NAVIGATION_TIMEOUT"
	ErrCodeBrowserFailed     ErrorCode = "BROWSER_FAILED"
	ErrCodeCaptchaDetected   ErrorCode = "CAPTCHA_DETECTED"

	// Extraction
	ErrCodeExtractionEmpty ErrorCode = "EXTRACTION_EMPTY"

	// Persistence and setup
	ErrCodeStatsPersistence ErrorCode = "STATS_PERSISTENCE"
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodeOutputFailed     ErrorCode = "OUTPUT_FAILED"
)

// Sentinels for errors.Is. StructuredError.Is matches on Code, so any error
// built with NewError(code, ...) satisfies errors.Is(err, <sentinel for code>).
var (
	ErrProxyLineInvalid  = &StructuredError{Code: ErrCodeProxyLineInvalid, Message: "invalid proxy line"}
	ErrNoHealthyProxy    = &StructuredError{Code: ErrCodeNoHealthyProxy, Message: "no healthy proxies available"}
	ErrNavigationTimeout = &StructuredError{Code: ErrCodeNavigationTimeout, Message: "navigation timed out"}
	ErrBrowserFailed     = &StructuredError{Code: ErrCodeBrowserFailed, Message: "browser failure"}
	ErrCaptchaDetected   = &StructuredError{Code: ErrCodeCaptchaDetected, Message: "captcha or block page detected"}
	ErrExtractionEmpty   = &StructuredError{Code: ErrCodeExtractionEmpty, Message: "no structured data on page"}
	ErrStatsPersistence  = &StructuredError{Code: ErrCodeStatsPersistence, Message: "stats persistence failed"}
	ErrInvalidConfig     = &StructuredError{Code: ErrCodeInvalidConfig, Message: "invalid configuration"}
	ErrOutputFailed      = &StructuredError{Code: ErrCodeOutputFailed, Message: "output failed"}
)

// StructuredError provides rich error information for better debugging and handling
type StructuredError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Severity   ErrorSeverity          `json:"severity"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Cause      error                  `json:"-"`
	Timestamp  time.Time              `json:"timestamp"`
	StackTrace []string               `json:"stack_trace,omitempty"`
	Retryable  bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target error code
func (e *StructuredError) Is(target error) bool {
	if se, ok := target.(*StructuredError); ok {
		return e.Code == se.Code
	}
	return false
}

// WithContext adds contextual information to the error
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ErrorBuilder provides a fluent interface for creating structured errors
type ErrorBuilder struct {
	error *StructuredError
}

// NewError creates a new error builder
func NewError(code ErrorCode, message string) *ErrorBuilder {
	return &ErrorBuilder{
		error: &StructuredError{
			Code:      code,
			Message:   message,
			Severity:  SeverityError,
			Timestamp: time.Now(),
		},
	}
}

// Errorf is shorthand for NewError(code, fmt.Sprintf(...)).Build()
func Errorf(code ErrorCode, format string, args ...interface{}) error {
	return NewError(code, fmt.Sprintf(format, args...)).Build()
}

// WithCause sets the underlying cause
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.error.Cause = cause
	return b
}

// WithContext adds a context key/value
func (b *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	b.error.WithContext(key, value)
	return b
}

// WithSeverity sets the severity
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.error.Severity = severity
	return b
}

// WithRetryable marks the error as retryable
func (b *ErrorBuilder) WithRetryable(retryable bool) *ErrorBuilder {
	b.error.Retryable = retryable
	return b
}

// WithStackTrace captures the caller stack
func (b *ErrorBuilder) WithStackTrace() *ErrorBuilder {
	b.error.StackTrace = captureStackTrace(10)
	return b
}

// Build returns the constructed error
func (b *ErrorBuilder) Build() *StructuredError {
	return b.error
}

// CodeOf returns the code of the first StructuredError in err's chain.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether any StructuredError in the chain is retryable.
func IsRetryable(err error) bool {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

func captureStackTrace(depth int) []string {
	pcs := make([]uintptr, depth)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var trace []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			trace = append(trace, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return trace
}
