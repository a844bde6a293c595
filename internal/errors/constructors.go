package errors

import "fmt"

// Convenience functions for common error patterns

// Config errors

func ConfigLoadFailed(path string, cause error) *BrokerMakeError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration could not be loaded").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *BrokerMakeError {
	return New(CategoryConfig, SeverityFatal, fmt.Sprintf("invalid configuration: %s %s", field, reason)).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Pipeline errors

// StepFailed wraps the failure of a single pipeline step.
func StepFailed(step string, cause error) *BrokerMakeError {
	category := CategoryBuild
	if inner, ok := As(cause); ok {
		category = inner.Category
	}
	return Wrap(cause, category, SeverityFatal, fmt.Sprintf("step %q failed", step)).
		WithContext("step", step)
}

func ToolFailed(tool string, exitCode int, cause error) *BrokerMakeError {
	return Wrap(cause, CategoryToolchain, SeverityFatal, fmt.Sprintf("%s failed", tool)).
		WithContext("tool", tool).
		WithContext("exit_code", exitCode)
}

func Canceled(cause error) *BrokerMakeError {
	return Wrap(cause, CategoryCanceled, SeverityFatal, "operation canceled")
}

// Source control errors

func VCSQueryFailed(query string, cause error) *BrokerMakeError {
	return Wrap(cause, CategoryVCS, SeverityFatal, "source control query failed").
		WithContext("query", query)
}

// Generation errors

func FetchFailed(url string, cause error) *BrokerMakeError {
	return Wrap(cause, CategoryNetwork, SeverityFatal, "specification fetch failed").
		WithContext("url", url)
}

func SpecInvalid(path string, cause error) *BrokerMakeError {
	return Wrap(cause, CategoryGenerator, SeverityWarning, "specification failed validation").
		WithContext("path", path)
}

func WorkspaceError(operation string, cause error) *BrokerMakeError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *BrokerMakeError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
