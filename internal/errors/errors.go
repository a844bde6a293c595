// Package errors provides a lightweight structured error type (BrokerMakeError)
// for category-based classification of orchestration failures and CLI exit codes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a brokermake error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig ErrorCategory = "config"

	// External collaborator errors
	CategoryVCS       ErrorCategory = "vcs"
	CategoryNetwork   ErrorCategory = "network"
	CategoryToolchain ErrorCategory = "toolchain"
	CategoryGenerator ErrorCategory = "generator"

	// Pipeline and local errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryCanceled   ErrorCategory = "canceled"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// BrokerMakeError is a structured error with category, severity and context
type BrokerMakeError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BrokerMakeError
type ContextFields map[string]any

// Error implements the error interface
func (e *BrokerMakeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BrokerMakeError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BrokerMakeError) WithContext(key string, value any) *BrokerMakeError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BrokerMakeError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BrokerMakeError {
	return &BrokerMakeError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BrokerMakeError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BrokerMakeError {
	return &BrokerMakeError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As finds the first BrokerMakeError in err's chain.
func As(err error) (*BrokerMakeError, bool) {
	var bme *BrokerMakeError
	if stderrors.As(err, &bme) {
		return bme, true
	}
	return nil, false
}

// IsCategory checks if an error (or anything it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if bme, ok := As(err); ok {
		return bme.Category == category
	}
	return false
}
