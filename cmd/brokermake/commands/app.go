package commands

import (
	"io"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sklevenz/brokermake/internal/config"
	"github.com/sklevenz/brokermake/internal/fetch"
	"github.com/sklevenz/brokermake/internal/git"
	"github.com/sklevenz/brokermake/internal/identity"
	"github.com/sklevenz/brokermake/internal/logfields"
	"github.com/sklevenz/brokermake/internal/metrics"
	"github.com/sklevenz/brokermake/internal/operations"
	"github.com/sklevenz/brokermake/internal/runner"
	"github.com/sklevenz/brokermake/internal/workspace"
)

// app holds the collaborators for one invocation.
type app struct {
	ops         *operations.Operations
	recorder    *metrics.PrometheusRecorder
	metricsFile string
}

func newApp(cfg *config.Config, dryRun bool, out io.Writer) *app {
	recorder := metrics.NewPrometheusRecorder(prom.NewRegistry())

	return &app{
		ops: operations.New(operations.Deps{
			Config:    cfg,
			Runner:    runner.NewExecRunner(cfg.ProjectDir, cfg.StepTimeout),
			Identity:  identity.NewResolver(sourceControl(cfg)),
			Workspace: workspace.NewManager(cfg.ProjectDir),
			Fetcher: fetch.New(
				fetch.WithTimeout(cfg.Generate.FetchTimeout),
				fetch.WithRetryPolicy(cfg.Generate.Retry.Policy()),
				fetch.WithRecorder(recorder),
			),
			Recorder: recorder,
			Out:      out,
			DryRun:   dryRun,
		}),
		recorder:    recorder,
		metricsFile: cfg.MetricsFile,
	}
}

func sourceControl(cfg *config.Config) identity.SourceControl {
	switch cfg.VCS {
	case config.VCSGit:
		return git.NewCLI(runner.NewExecRunner(cfg.ProjectDir, 0))
	default:
		return git.NewRepository(cfg.ProjectDir)
	}
}

// flushMetrics writes the textfile when one is configured. Failures only warn.
func (a *app) flushMetrics() {
	if a.metricsFile == "" {
		return
	}
	if err := a.recorder.WriteTextfile(a.metricsFile); err != nil {
		slog.Warn("Failed to write metrics file", logfields.Path(a.metricsFile), logfields.Error(err))
		return
	}
	slog.Debug("Wrote metrics file", logfields.Path(a.metricsFile))
}
