package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	bmerrors "github.com/sklevenz/brokermake/internal/errors"
	"github.com/sklevenz/brokermake/internal/retry"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Entry) == "" {
		return bmerrors.ConfigInvalid("entry", "must not be empty")
	}
	if strings.ContainsAny(c.SymbolPackage, " \t") {
		return bmerrors.ConfigInvalid("symbol_package", "must not contain whitespace")
	}
	switch c.VCS {
	case VCSGoGit, VCSGit:
	default:
		return bmerrors.ConfigInvalid("vcs", fmt.Sprintf("unknown backend %q (want gogit or git)", c.VCS))
	}
	if c.StepTimeout < 0 {
		return bmerrors.ConfigInvalid("step_timeout", "must not be negative")
	}

	g := c.Generate
	u, err := url.Parse(g.SpecURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return bmerrors.ConfigInvalid("generate.spec_url", "must be an absolute http(s) URL")
	}
	for field, dir := range map[string]string{
		"generate.gen_dir":    g.GenDir,
		"generate.output_dir": g.OutputDir,
		"generate.model_dir":  g.ModelDir,
		"generate.spec_file":  g.SpecFile,
	} {
		if err := checkRelative(dir); err != nil {
			return bmerrors.ConfigInvalid(field, err.Error())
		}
	}
	if _, err := filepath.Match(g.ModelPattern, ""); err != nil {
		return bmerrors.ConfigInvalid("generate.model_pattern", err.Error())
	}
	if g.FetchTimeout < 0 {
		return bmerrors.ConfigInvalid("generate.fetch_timeout", "must not be negative")
	}
	switch g.Retry.Mode {
	case retry.BackoffFixed, retry.BackoffLinear, retry.BackoffExponential:
	default:
		return bmerrors.ConfigInvalid("generate.retry.mode", fmt.Sprintf("unknown mode %q", g.Retry.Mode))
	}
	if g.Retry.MaxRetries < 0 {
		return bmerrors.ConfigInvalid("generate.retry.max_retries", "must not be negative")
	}
	return nil
}

// checkRelative requires a project-relative path that stays inside the project.
func checkRelative(p string) error {
	if p == "" {
		return fmt.Errorf("must not be empty")
	}
	if filepath.IsAbs(p) {
		return fmt.Errorf("must be relative to the project directory")
	}
	clean := filepath.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("must name a directory inside the project")
	}
	return nil
}
