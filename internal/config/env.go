package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables that override file values.
const (
	EnvProjectDir  = "BROKERMAKE_PROJECT_DIR"
	EnvKeepGoing   = "BROKERMAKE_KEEP_GOING"
	EnvMetricsFile = "BROKERMAKE_METRICS_FILE"
	EnvVCS         = "BROKERMAKE_VCS"
	EnvSpecURL     = "BROKERMAKE_SPEC_URL"
	EnvStepTimeout = "BROKERMAKE_STEP_TIMEOUT"
	EnvLogLevel    = "BROKERMAKE_LOG_LEVEL"
)

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvProjectDir); v != "" {
		cfg.ProjectDir = v
	}
	if v := os.Getenv(EnvMetricsFile); v != "" {
		cfg.MetricsFile = v
	}
	if v := os.Getenv(EnvVCS); v != "" {
		cfg.VCS = VCSBackend(v)
	}
	if v := os.Getenv(EnvSpecURL); v != "" {
		cfg.Generate.SpecURL = v
	}
	if v := os.Getenv(EnvKeepGoing); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvKeepGoing, err)
		}
		cfg.KeepGoing = b
	}
	if v := os.Getenv(EnvStepTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStepTimeout, err)
		}
		cfg.StepTimeout = d
	}
	return nil
}
