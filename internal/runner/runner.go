// Package runner executes external toolchain invocations for brokermake.
//
// Every collaborator the orchestrator drives (go toolchain, git, the code
// generator, gofmt) is reached through the Runner interface so that pipeline
// code can be exercised with FakeRunner in tests.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	bmerrors "github.com/sklevenz/brokermake/internal/errors"
)

// ErrorKind classifies the failure reason of an invocation.
type ErrorKind string

const (
	KindNone     ErrorKind = ""
	KindExit     ErrorKind = "exit"
	KindSpawn    ErrorKind = "spawn"
	KindTimeout  ErrorKind = "timeout"
	KindCanceled ErrorKind = "canceled"
)

// Spec defines a single external invocation.
type Spec struct {
	// Argv is the command and its arguments. Argv[0] is the program.
	// There is no shell involved.
	Argv []string

	// Dir overrides the runner's working directory. Relative values are
	// resolved against the runner's directory.
	Dir string

	// Capture collects stdout into Result.Stdout instead of streaming it.
	// Used for queries whose output is parsed (git status, git rev-parse).
	Capture bool
}

// String renders the argv the way an operator would type it.
func (s Spec) String() string {
	parts := make([]string, len(s.Argv))
	for i, a := range s.Argv {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			parts[i] = fmt.Sprintf("%q", a)
			continue
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

// Result captures the outcome of an invocation. Stderr holds only the
// tail of the output when it was streamed.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Kind     ErrorKind
	Err      error
	Duration time.Duration
}

// Failed reports whether the invocation did not exit cleanly.
func (r Result) Failed() bool {
	return r.Kind != KindNone || r.ExitCode != 0
}

// AsError converts a failed result into a toolchain error; nil on success.
func (r Result) AsError(spec Spec) error {
	if !r.Failed() {
		return nil
	}
	tool := ""
	if len(spec.Argv) > 0 {
		tool = spec.Argv[0]
	}
	cause := r.Err
	if cause == nil {
		cause = fmt.Errorf("%s exited with status %d", spec.String(), r.ExitCode)
	}
	switch r.Kind {
	case KindCanceled:
		return bmerrors.Canceled(cause).WithContext("tool", tool)
	case KindTimeout:
		// A step timeout is the tool's failure, not an interrupt of the run.
		return bmerrors.ToolFailed(tool, r.ExitCode, fmt.Errorf("%s timed out: %w", spec.String(), cause)).
			WithContext("timeout", true)
	}
	return bmerrors.ToolFailed(tool, r.ExitCode, cause)
}

// Runner is the interface for executing commands.
// It allows swapping the real runner with a fake one for testing.
type Runner interface {
	Run(ctx context.Context, spec Spec) Result
}

// ExecRunner is the production implementation of Runner backed by os/exec.
type ExecRunner struct {
	// Dir is the project directory every invocation runs in.
	Dir string

	// Stdout and Stderr receive streamed tool output. Nil means the
	// process's own stdout/stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Timeout bounds a single invocation. Zero means no timeout.
	Timeout time.Duration
}

// NewExecRunner creates a runner rooted at dir.
func NewExecRunner(dir string, timeout time.Duration) *ExecRunner {
	return &ExecRunner{Dir: dir, Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, spec Spec) Result {
	if len(spec.Argv) == 0 {
		return Result{ExitCode: -1, Kind: KindSpawn, Err: errors.New("empty argv")}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = r.resolveDir(spec.Dir)

	var stdoutBuf bytes.Buffer
	var stderrBuf fmt.Stringer
	if spec.Capture {
		captured := &bytes.Buffer{}
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = captured
		stderrBuf = captured
	} else {
		tail := newTailBuffer(streamedStderrTail)
		cmd.Stdout = writerOr(r.Stdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(writerOr(r.Stderr, os.Stderr), tail)
		stderrBuf = tail
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res
	}

	res.Err = err
	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = -1
		res.Kind = KindTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		res.ExitCode = -1
		res.Kind = KindCanceled
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		res.Kind = KindExit
	default:
		res.ExitCode = -1
		res.Kind = KindSpawn
	}
	return res
}

func (r *ExecRunner) resolveDir(dir string) string {
	if dir == "" {
		return r.Dir
	}
	if filepath.IsAbs(dir) || r.Dir == "" {
		return dir
	}
	return filepath.Join(r.Dir, dir)
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
