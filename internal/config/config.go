package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sklevenz/brokermake/internal/retry"
)

// DefaultFileName is looked up in the working directory when no --config is given.
const DefaultFileName = "brokermake.yaml"

// VCSBackend selects how source control state is queried.
type VCSBackend string

const (
	VCSGoGit VCSBackend = "gogit" // in-process via go-git
	VCSGit   VCSBackend = "git"   // the git binary
)

// Config represents the orchestrator configuration.
type Config struct {
	// ProjectDir is the broker project root every step runs in.
	ProjectDir string `yaml:"project_dir"`
	// Entry is the file or package compiled and executed by `run`.
	Entry string `yaml:"entry"`
	// SymbolPackage owns the Version and Commit variables set at link time.
	SymbolPackage string        `yaml:"symbol_package"`
	VCS           VCSBackend    `yaml:"vcs"`
	KeepGoing     bool          `yaml:"keep_going"`
	StepTimeout   time.Duration `yaml:"step_timeout"`
	MetricsFile   string        `yaml:"metrics_file"`

	Generate GenerateConfig `yaml:"generate"`
}

// GenerateConfig describes the API code generation pipeline.
type GenerateConfig struct {
	SpecURL       string        `yaml:"spec_url"`
	SpecFile      string        `yaml:"spec_file"`
	GenDir        string        `yaml:"gen_dir"`
	OutputDir     string        `yaml:"output_dir"`
	ModelDir      string        `yaml:"model_dir"`
	ModelPattern  string        `yaml:"model_pattern"`
	Generator     string        `yaml:"generator"`
	GeneratorKind string        `yaml:"generator_kind"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	Retry         RetryConfig   `yaml:"retry"`
}

// RetryConfig controls retries of the specification download.
type RetryConfig struct {
	Mode         retry.BackoffMode `yaml:"mode"`
	InitialDelay time.Duration     `yaml:"initial_delay"`
	MaxDelay     time.Duration     `yaml:"max_delay"`
	MaxRetries   int               `yaml:"max_retries"`
}

// Policy converts the retry settings into a retry.Policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.NewPolicy(r.Mode, r.InitialDelay, r.MaxDelay, r.MaxRetries)
}

// Load reads configuration for the project in projectDir.
//
// The lookup directory is projectDir, else $BROKERMAKE_PROJECT_DIR, else the
// working directory. Its .env and .env.local files are loaded first. An empty
// path selects DefaultFileName in the lookup directory, which may be absent.
// An explicitly named path is used as given and must exist. Environment
// overrides and defaults are applied, then the result is validated.
func Load(path, projectDir string) (*Config, error) {
	dir := lookupDir(projectDir)
	loadEnvFiles(dir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, DefaultFileName)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		slog.Debug("Loaded configuration file", "path", path)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		slog.Debug("No configuration file, using defaults", "path", path)
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("configuration file not found: %s", path)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = dir
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode expands ${VAR} references and rejects unknown keys.
func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func lookupDir(projectDir string) string {
	if projectDir != "" {
		return projectDir
	}
	if v := os.Getenv(EnvProjectDir); v != "" {
		return v
	}
	return "."
}

// loadEnvFiles loads .env then .env.local from dir. Variables already present
// in the process environment are never overwritten.
func loadEnvFiles(dir string) {
	for _, base := range []string{".env", ".env.local"} {
		name := filepath.Join(dir, base)
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", "path", name, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", name)
	}
}
