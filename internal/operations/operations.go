// Package operations implements the broker's build, run, test, generate and
// release operations as fixed step lists.
package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sklevenz/brokermake/internal/config"
	"github.com/sklevenz/brokermake/internal/dispatch"
	"github.com/sklevenz/brokermake/internal/identity"
	"github.com/sklevenz/brokermake/internal/logfields"
	"github.com/sklevenz/brokermake/internal/metrics"
	"github.com/sklevenz/brokermake/internal/pipeline"
	"github.com/sklevenz/brokermake/internal/runner"
	"github.com/sklevenz/brokermake/internal/workspace"
)

// IdentityResolver produces the build identity for build and run.
type IdentityResolver interface {
	Resolve(ctx context.Context) (identity.BuildIdentity, error)
}

// SpecFetcher downloads the API specification.
type SpecFetcher interface {
	Fetch(ctx context.Context, url, dest string) (int64, error)
}

// Deps are the collaborators an Operations value drives.
type Deps struct {
	Config    *config.Config
	Runner    runner.Runner
	Identity  IdentityResolver
	Workspace *workspace.Manager
	Fetcher   SpecFetcher
	Recorder  metrics.Recorder
	Out       io.Writer
	DryRun    bool
}

// Operations runs the broker operations against one project directory.
type Operations struct {
	cfg      *config.Config
	run      runner.Runner
	identity IdentityResolver
	ws       *workspace.Manager
	fetcher  SpecFetcher
	recorder metrics.Recorder
	out      io.Writer
	dryRun   bool
}

var _ dispatch.Operations = (*Operations)(nil)

// New wires the operations from deps.
func New(deps Deps) *Operations {
	o := &Operations{
		cfg:      deps.Config,
		run:      deps.Runner,
		identity: deps.Identity,
		ws:       deps.Workspace,
		fetcher:  deps.Fetcher,
		recorder: deps.Recorder,
		out:      deps.Out,
		dryRun:   deps.DryRun,
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if o.recorder == nil {
		o.recorder = metrics.NoopRecorder{}
	}
	if o.out == nil {
		o.out = os.Stdout
	}
	return o
}

// Test vets the project and runs its tests.
func (o *Operations) Test(ctx context.Context, verbose bool) error {
	testArgs := []string{"go", "test", "./..."}
	if verbose {
		testArgs = []string{"go", "test", "-v", "./..."}
	}
	return o.execute(ctx, dispatch.Test, verbose, []pipeline.Step{
		o.tool("vet", "go", "vet", "./..."),
		o.tool("test", testArgs...),
	})
}

// Build purges the caches, formats and compiles the project with the build
// identity linked in.
func (o *Operations) Build(ctx context.Context, verbose bool) error {
	flags, err := o.linkerFlags(ctx)
	if err != nil {
		return err
	}
	return o.execute(ctx, dispatch.Build, verbose, []pipeline.Step{
		o.tool("clean", "go", "clean", "-r", "-cache", "-testcache", "-modcache"),
		o.tool("fmt", "go", "fmt", "./..."),
		o.tool("build", "go", "build", "-v", "-ldflags", flags, "./..."),
	})
}

// Run compiles and executes the entry file with the build identity linked in.
func (o *Operations) Run(ctx context.Context, verbose bool) error {
	flags, err := o.linkerFlags(ctx)
	if err != nil {
		return err
	}
	return o.execute(ctx, dispatch.Run, verbose, []pipeline.Step{
		o.tool("run", "go", "run", "-ldflags", flags, o.cfg.Entry),
	})
}

// Release only acknowledges the invocation.
func (o *Operations) Release(_ context.Context, verbose bool) error {
	_, err := fmt.Fprintf(o.out, "-- release broker\nverbose: %t\n", verbose)
	return err
}

// linkerFlags resolves a fresh identity and renders the -ldflags value.
func (o *Operations) linkerFlags(ctx context.Context) (string, error) {
	id, err := o.identity.Resolve(ctx)
	if err != nil {
		return "", err
	}
	flags := identity.LinkerFlags(o.cfg.SymbolPackage, id)
	slog.Debug("Linker flags", logfields.Identity(id.String()), slog.String("ldflags", flags))
	return flags, nil
}

// tool builds a step that runs argv in the project directory.
func (o *Operations) tool(name string, argv ...string) pipeline.Step {
	spec := runner.Spec{Argv: argv}
	return pipeline.Step{
		Name:     name,
		Announce: name + " broker",
		Describe: spec.String(),
		Action: func(ctx context.Context) error {
			slog.Debug("Invoking tool", logfields.Step(name), logfields.Argv(argv))
			res := o.run.Run(ctx, spec)
			if res.Failed() {
				slog.Debug("Tool failed", logfields.Step(name), logfields.ExitCode(res.ExitCode), slog.String("stderr_tail", res.Stderr))
			}
			return res.AsError(spec)
		},
	}
}

func (o *Operations) execute(ctx context.Context, cmd dispatch.Command, verbose bool, steps []pipeline.Step) error {
	p := pipeline.New(
		pipeline.WithOutput(o.out),
		pipeline.WithKeepGoing(o.cfg.KeepGoing),
		pipeline.WithDryRun(o.dryRun),
		pipeline.WithVerbose(verbose),
		pipeline.WithRecorder(o.recorder),
	)
	res, err := p.Run(ctx, cmd.String(), steps)
	if res != nil {
		slog.Info("Operation finished",
			logfields.Command(cmd.String()),
			slog.Int("steps", len(res.Steps)),
			slog.Int("failed", len(res.Failed())),
			logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	}
	return err
}
