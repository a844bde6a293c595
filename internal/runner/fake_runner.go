package runner

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is a Runner for tests. It records every invocation and answers
// with Handler, or with a clean exit when Handler is nil.
type FakeRunner struct {
	Handler func(spec Spec) Result

	mu    sync.Mutex
	calls []Spec
}

func (f *FakeRunner) Run(_ context.Context, spec Spec) Result {
	f.mu.Lock()
	f.calls = append(f.calls, spec)
	f.mu.Unlock()

	if f.Handler == nil {
		return Result{}
	}
	return f.Handler(spec)
}

// Calls returns a copy of the recorded invocations in order.
func (f *FakeRunner) Calls() []Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Spec, len(f.calls))
	copy(out, f.calls)
	return out
}

// Commands returns the recorded argv lists joined with single spaces.
func (f *FakeRunner) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = strings.Join(c.Argv, " ")
	}
	return out
}

// FailOn returns a handler that fails any invocation whose joined argv has
// the given prefix with the given exit code.
func FailOn(prefix string, exitCode int) func(Spec) Result {
	return func(spec Spec) Result {
		if strings.HasPrefix(strings.Join(spec.Argv, " "), prefix) {
			return Result{ExitCode: exitCode, Kind: KindExit, Stderr: "fake failure"}
		}
		return Result{}
	}
}
