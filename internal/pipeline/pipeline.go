// Package pipeline runs an operation's steps strictly in order and records
// the outcome of each one.
//
// By default the first failing step stops the operation. With keep-going the
// remaining steps still run and every failure is reported at the end, which
// matches the historical make script. Advisory steps never stop anything.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	bmerrors "github.com/sklevenz/brokermake/internal/errors"
	"github.com/sklevenz/brokermake/internal/logfields"
	"github.com/sklevenz/brokermake/internal/metrics"
)

// Step is one external invocation or local action.
type Step struct {
	// Name is the stable identifier used in logs and metrics (e.g. "vet").
	Name string

	// Announce is printed as "-- <Announce>" before the step runs.
	Announce string

	// Describe is the command line shown in verbose and dry-run output.
	Describe string

	// Advisory steps only warn on failure.
	Advisory bool

	Action func(ctx context.Context) error
}

// StepResult records what happened to a step.
type StepResult struct {
	Name     string
	Index    int
	Duration time.Duration
	Err      error
	Skipped  bool
	Advisory bool
}

// Result is the outcome of one operation.
type Result struct {
	Operation string
	Steps     []StepResult
	Duration  time.Duration
}

// Failed returns the non-advisory steps that returned an error.
func (r *Result) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Err != nil && !s.Advisory {
			out = append(out, s)
		}
	}
	return out
}

// Pipeline executes step lists.
type Pipeline struct {
	out       io.Writer
	keepGoing bool
	dryRun    bool
	verbose   bool
	recorder  metrics.Recorder
}

// Option configures pipeline behavior.
type Option func(*Pipeline)

// WithOutput sets where announcements are written (default stdout).
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

// WithKeepGoing runs every step even after a failure.
func WithKeepGoing(keepGoing bool) Option {
	return func(p *Pipeline) { p.keepGoing = keepGoing }
}

// WithDryRun announces steps without running them.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// WithVerbose prints each step's command line after its announcement.
func WithVerbose(verbose bool) Option {
	return func(p *Pipeline) { p.verbose = verbose }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// New creates a pipeline.
func New(options ...Option) *Pipeline {
	p := &Pipeline{
		out:      os.Stdout,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Run executes steps in order for the named operation.
func (p *Pipeline) Run(ctx context.Context, operation string, steps []Step) (*Result, error) {
	start := time.Now()
	res := &Result{Operation: operation, Steps: make([]StepResult, 0, len(steps))}
	var failures []error
	halted := false

	for i, step := range steps {
		sr := StepResult{Name: step.Name, Index: i, Advisory: step.Advisory}

		if halted {
			sr.Skipped = true
			res.Steps = append(res.Steps, sr)
			p.recorder.IncStepResult(operation, step.Name, metrics.ResultSkipped)
			continue
		}
		if err := ctx.Err(); err != nil {
			sr.Skipped = true
			sr.Err = err
			res.Steps = append(res.Steps, sr)
			failures = append(failures, bmerrors.Canceled(err).WithContext("step", step.Name))
			p.recorder.IncStepResult(operation, step.Name, metrics.ResultCanceled)
			halted = true
			continue
		}

		p.announce(step)
		if p.dryRun {
			sr.Skipped = true
			res.Steps = append(res.Steps, sr)
			continue
		}

		stepStart := time.Now()
		err := step.Action(ctx)
		sr.Duration = time.Since(stepStart)
		sr.Err = err
		res.Steps = append(res.Steps, sr)
		p.recorder.ObserveStepDuration(operation, step.Name, sr.Duration)

		attrs := []any{logfields.Command(operation), logfields.Step(step.Name), logfields.StepIndex(i), logfields.DurationMS(float64(sr.Duration.Microseconds()) / 1000)}
		switch {
		case err == nil:
			p.recorder.IncStepResult(operation, step.Name, metrics.ResultSuccess)
			slog.Debug("Step completed", attrs...)
		case step.Advisory:
			p.recorder.IncStepResult(operation, step.Name, metrics.ResultWarning)
			slog.Warn("Advisory step failed, continuing", append(attrs, logfields.Error(err))...)
		case ctx.Err() != nil:
			// Only an interrupted run stops keep-going.
			p.recorder.IncStepResult(operation, step.Name, metrics.ResultCanceled)
			failures = append(failures, bmerrors.StepFailed(step.Name, bmerrors.Canceled(err)))
			halted = true
		default:
			p.recorder.IncStepResult(operation, step.Name, metrics.ResultFailed)
			failures = append(failures, bmerrors.StepFailed(step.Name, err))
			if p.keepGoing {
				slog.Warn("Step failed, continuing", append(attrs, logfields.Error(err))...)
			} else {
				slog.Error("Step failed, stopping", append(attrs, logfields.Error(err))...)
				halted = true
			}
		}
	}

	res.Duration = time.Since(start)
	p.recorder.ObserveOperationDuration(operation, res.Duration)

	if len(failures) == 0 {
		p.recorder.IncOperationOutcome(operation, metrics.ResultSuccess)
		return res, nil
	}
	p.recorder.IncOperationOutcome(operation, metrics.ResultFailed)
	if len(failures) == 1 {
		return res, failures[0]
	}
	return res, errors.Join(failures...)
}

func (p *Pipeline) announce(step Step) {
	label := step.Announce
	if label == "" {
		label = step.Name
	}
	_, _ = fmt.Fprintf(p.out, "-- %s\n", label)
	if (p.verbose || p.dryRun) && step.Describe != "" {
		_, _ = fmt.Fprintf(p.out, "   %s\n", step.Describe)
	}
}
