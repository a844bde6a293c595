package config

import "path/filepath"

// Defaults mirror the layout of the cf-api-broker repository.
const (
	DefaultEntry         = "brokerApp.go"
	DefaultSymbolPackage = "main"
	DefaultSpecURL       = "https://raw.githubusercontent.com/openservicebrokerapi/servicebroker/v2.15/openapi.yaml"
	DefaultGenDir        = "gen"
	DefaultOutputDir     = "openapi"
	DefaultModelPattern  = "model_*.go"
	DefaultGenerator     = "openapi-generator"
	DefaultGeneratorKind = "go-server"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}
	if cfg.Entry == "" {
		cfg.Entry = DefaultEntry
	}
	if cfg.SymbolPackage == "" {
		cfg.SymbolPackage = DefaultSymbolPackage
	}
	if cfg.VCS == "" {
		cfg.VCS = VCSGoGit
	}

	g := &cfg.Generate
	if g.SpecURL == "" {
		g.SpecURL = DefaultSpecURL
	}
	if g.GenDir == "" {
		g.GenDir = DefaultGenDir
	}
	if g.SpecFile == "" {
		g.SpecFile = filepath.Join(g.GenDir, "openapi.yaml")
	}
	if g.OutputDir == "" {
		g.OutputDir = DefaultOutputDir
	}
	if g.ModelDir == "" {
		g.ModelDir = filepath.Join(g.GenDir, "go")
	}
	if g.ModelPattern == "" {
		g.ModelPattern = DefaultModelPattern
	}
	if g.Generator == "" {
		g.Generator = DefaultGenerator
	}
	if g.GeneratorKind == "" {
		g.GeneratorKind = DefaultGeneratorKind
	}
	if g.Retry.Mode == "" {
		g.Retry.Mode = "linear"
	}
}
