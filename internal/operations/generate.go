package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/sklevenz/brokermake/internal/apispec"
	"github.com/sklevenz/brokermake/internal/dispatch"
	bmerrors "github.com/sklevenz/brokermake/internal/errors"
	"github.com/sklevenz/brokermake/internal/logfields"
	"github.com/sklevenz/brokermake/internal/pipeline"
)

// Generate regenerates the OpenAPI server models:
// clean, prepare, fetch, lint, validate, generate, copy, format.
func (o *Operations) Generate(ctx context.Context, verbose bool) error {
	g := o.cfg.Generate
	genDirs := []string{g.GenDir, g.OutputDir}

	steps := []pipeline.Step{
		{
			Name:     "clean",
			Announce: "clean broker",
			Describe: fmt.Sprintf("remove %s %s", g.GenDir, g.OutputDir),
			Action: func(context.Context) error {
				if err := o.ws.Remove(genDirs...); err != nil {
					return bmerrors.WorkspaceError("remove", err)
				}
				return nil
			},
		},
		{
			Name:     "prepare",
			Announce: "prepare broker",
			Describe: fmt.Sprintf("mkdir %s %s", g.GenDir, g.OutputDir),
			Action: func(context.Context) error {
				dirs := genDirs
				if d := filepath.Dir(g.SpecFile); d != "." {
					dirs = append(dirs, d)
				}
				if err := o.ws.Ensure(dirs...); err != nil {
					return bmerrors.WorkspaceError("mkdir", err)
				}
				return nil
			},
		},
		{
			Name:     "fetch",
			Announce: "fetch broker",
			Describe: fmt.Sprintf("GET %s -> %s", g.SpecURL, g.SpecFile),
			Action: func(ctx context.Context) error {
				dest, err := o.ws.Resolve(g.SpecFile)
				if err != nil {
					return bmerrors.WorkspaceError("resolve", err)
				}
				if _, err := o.fetcher.Fetch(ctx, g.SpecURL, dest); err != nil {
					return bmerrors.FetchFailed(g.SpecURL, err)
				}
				return nil
			},
		},
		{
			Name:     "lint",
			Announce: "lint broker",
			Describe: "check " + g.SpecFile,
			Advisory: true,
			Action: func(ctx context.Context) error {
				path, err := o.ws.Resolve(g.SpecFile)
				if err != nil {
					return bmerrors.WorkspaceError("resolve", err)
				}
				summary, err := apispec.CheckFile(ctx, path)
				if err != nil {
					return bmerrors.SpecInvalid(g.SpecFile, err)
				}
				slog.Info("Specification checked",
					logfields.Path(g.SpecFile),
					slog.String("format", string(summary.Format)),
					slog.String("title", summary.Title),
					slog.String("version", summary.Version),
					slog.Int("paths", summary.Paths))
				return nil
			},
		},
		o.tool("validate", g.Generator, "validate", "-i", g.SpecFile),
		o.tool("generate", g.Generator, "generate", "-i", g.SpecFile, "-g", g.GeneratorKind, "-o", g.GenDir),
		{
			Name:     "copy",
			Announce: "copy broker",
			Describe: fmt.Sprintf("cp %s %s", filepath.Join(g.ModelDir, g.ModelPattern), g.OutputDir),
			Action: func(context.Context) error {
				copied, err := o.ws.CopyMatching(g.ModelDir, g.ModelPattern, g.OutputDir)
				if err != nil {
					return bmerrors.WorkspaceError("copy", err)
				}
				if len(copied) == 0 {
					return bmerrors.WorkspaceError("copy",
						fmt.Errorf("no files match %s", filepath.Join(g.ModelDir, g.ModelPattern)))
				}
				slog.Debug("Copied model files", logfields.Path(g.OutputDir), slog.Int("count", len(copied)))
				return nil
			},
		},
		o.tool("format", "gofmt", "-w", g.OutputDir),
	}

	return o.execute(ctx, dispatch.Generate, verbose, steps)
}
