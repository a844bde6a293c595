package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultWarning  ResultLabel = "warning"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for operations and their steps.
type Recorder interface {
	ObserveStepDuration(operation, step string, d time.Duration)
	IncStepResult(operation, step string, result ResultLabel)
	ObserveOperationDuration(operation string, d time.Duration)
	IncOperationOutcome(operation string, result ResultLabel)
	IncFetchRetry()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, string, time.Duration) {}
func (NoopRecorder) IncStepResult(string, string, ResultLabel)         {}
func (NoopRecorder) ObserveOperationDuration(string, time.Duration)    {}
func (NoopRecorder) IncOperationOutcome(string, ResultLabel)           {}
func (NoopRecorder) IncFetchRetry()                                    {}
