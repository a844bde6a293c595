package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/sklevenz/brokermake/internal/runner"
)

// CLI answers source control queries by invoking the git binary.
type CLI struct {
	run runner.Runner
}

// NewCLI creates a git CLI backend. The runner decides the working directory.
func NewCLI(r runner.Runner) *CLI { return &CLI{run: r} }

// HasUncommittedChanges runs `git status --porcelain`; any output means dirty.
func (c *CLI) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := c.query(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitHash runs `git rev-parse HEAD`.
func (c *CLI) CommitHash(ctx context.Context) (string, error) {
	out, err := c.query(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *CLI) query(ctx context.Context, args ...string) (string, error) {
	spec := runner.Spec{Argv: append([]string{"git"}, args...), Capture: true}
	res := c.run.Run(ctx, spec)
	if res.Failed() {
		return "", fmt.Errorf("%s failed (%s, exit %d): %s", spec.String(), res.Kind, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}
