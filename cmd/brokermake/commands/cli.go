package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/sklevenz/brokermake/internal/config"
	"github.com/sklevenz/brokermake/internal/dispatch"
	bmerrors "github.com/sklevenz/brokermake/internal/errors"
	"github.com/sklevenz/brokermake/internal/logfields"
)

// CLI is the command line surface: one optional positional command plus
// global flags that apply to every operation.
type CLI struct {
	Command   string           `arg:"" optional:"" help:"Command to execute: build, run, test, generate or release."`
	Verbose   bool             `short:"v" help:"Verbose output (echo commands, go test -v, debug logging)."`
	Config    string           `short:"c" help:"Configuration file path (default brokermake.yaml if present)." type:"path"`
	Dir       string           `short:"C" name:"dir" help:"Broker project directory." type:"path"`
	KeepGoing bool             `name:"keep-going" short:"k" help:"Run every step even after one fails."`
	DryRun    bool             `name:"dry-run" short:"n" help:"Print the steps without running them."`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit."`

	// Stdout receives stage announcements. Nil means os.Stdout.
	Stdout io.Writer `kong:"-"`

	runID string
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.runID = uuid.NewString()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger.With(logfields.RunID(c.runID)))
	return nil
}

// Run dispatches the requested command. usage is printed when the command
// is missing or unknown; that is not an error.
func (c *CLI) Run(ctx context.Context, usage func()) error {
	if _, ok := dispatch.ParseCommand(c.Command); !ok {
		return dispatch.New(nil, usage).Dispatch(ctx, c.Command, c.Verbose)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	slog.Debug("Starting operation",
		logfields.Command(c.Command),
		logfields.Path(cfg.ProjectDir),
		logfields.Verbose(c.Verbose),
		slog.Bool("keep_going", cfg.KeepGoing),
		slog.Bool("dry_run", c.DryRun))

	app := newApp(cfg, c.DryRun, c.Stdout)
	err = dispatch.New(app.ops, usage).Dispatch(ctx, c.Command, c.Verbose)
	app.flushMetrics()
	return err
}

// loadConfig loads file and environment settings and applies flag overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config, c.Dir)
	if err != nil {
		if _, ok := bmerrors.As(err); ok {
			return nil, err
		}
		return nil, bmerrors.ConfigLoadFailed(c.Config, err)
	}

	if c.Dir != "" {
		cfg.ProjectDir = c.Dir
	}
	if c.KeepGoing {
		cfg.KeepGoing = true
	}

	dir, err := resolveProjectDir(cfg.ProjectDir)
	if err != nil {
		return nil, err
	}
	cfg.ProjectDir = dir
	return cfg, nil
}

func resolveProjectDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", bmerrors.ConfigInvalid("project_dir", err.Error())
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", bmerrors.ConfigInvalid("project_dir", fmt.Sprintf("%s does not exist", abs))
	case err != nil:
		return "", bmerrors.ConfigInvalid("project_dir", err.Error())
	case !info.IsDir():
		return "", bmerrors.ConfigInvalid("project_dir", fmt.Sprintf("%s is not a directory", abs))
	}
	return abs, nil
}

// parseLogLevel maps --verbose to Debug; BROKERMAKE_LOG_LEVEL overrides.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(config.EnvLogLevel))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
