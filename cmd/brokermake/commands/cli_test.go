package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklevenz/brokermake/internal/config"
	bmerrors "github.com/sklevenz/brokermake/internal/errors"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Name("brokermake"),
		kong.Vars{"version": "test"},
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)
	return parser
}

// brokerRepo creates a committed broker project and returns its directory
// and HEAD hash.
func brokerRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brokerApp.go"), []byte("package main\n"), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("brokerApp.go")
	require.NoError(t, err)
	hash, err := wt.Commit("broker", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestParseFlags(t *testing.T) {
	cli := &CLI{}
	_, err := newParser(t, cli).Parse([]string{"-v", "--keep-going", "--dry-run", "--dir", "/srv/broker", "generate"})
	require.NoError(t, err)

	assert.Equal(t, "generate", cli.Command)
	assert.True(t, cli.Verbose)
	assert.True(t, cli.KeepGoing)
	assert.True(t, cli.DryRun)
	assert.Equal(t, "/srv/broker", cli.Dir)
	assert.NotEmpty(t, cli.runID)
}

func TestParseWithoutCommand(t *testing.T) {
	cli := &CLI{}
	_, err := newParser(t, cli).Parse([]string{})
	require.NoError(t, err)
	assert.Empty(t, cli.Command)
	assert.False(t, cli.Verbose)
}

func TestRunUnknownCommandPrintsUsage(t *testing.T) {
	for _, name := range []string{"", "deploy"} {
		usage := 0
		cli := &CLI{Command: name, Config: filepath.Join(t.TempDir(), "missing.yaml")}

		err := cli.Run(context.Background(), func() { usage++ })

		require.NoError(t, err)
		assert.Equal(t, 1, usage)
	}
}

func TestRunDryRunBuildStampsHead(t *testing.T) {
	chdir(t, t.TempDir())
	dir, hash := brokerRepo(t)
	var out bytes.Buffer
	cli := &CLI{Command: "build", Dir: dir, DryRun: true, Stdout: &out}

	require.NoError(t, cli.Run(context.Background(), nil))

	assert.Contains(t, out.String(), "-- build broker\n")
	assert.Contains(t, out.String(), "-X main.Commit="+hash)
}

func TestRunDryRunDirtyTree(t *testing.T) {
	chdir(t, t.TempDir())
	dir, _ := brokerRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brokerApp.go"), []byte("package main\n\nfunc main() {}\n"), 0o600))
	var out bytes.Buffer
	cli := &CLI{Command: "run", Dir: dir, DryRun: true, Stdout: &out}

	require.NoError(t, cli.Run(context.Background(), nil))

	assert.Contains(t, out.String(), `go run -ldflags "-X main.Version=dev -X main.Commit=dirty" brokerApp.go`)
}

func TestRunOutsideRepositoryFails(t *testing.T) {
	chdir(t, t.TempDir())
	var out bytes.Buffer
	cli := &CLI{Command: "build", Dir: t.TempDir(), DryRun: true, Stdout: &out}

	err := cli.Run(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, bmerrors.IsCategory(err, bmerrors.CategoryVCS))
	assert.Empty(t, out.String())
}

func TestRunReleaseNeedsNoRepository(t *testing.T) {
	chdir(t, t.TempDir())
	var out bytes.Buffer
	cli := &CLI{Command: "release", Verbose: true, Dir: t.TempDir(), Stdout: &out}

	require.NoError(t, cli.Run(context.Background(), nil))
	assert.Equal(t, "-- release broker\nverbose: true\n", out.String())
}

func TestRunWritesMetricsFile(t *testing.T) {
	chdir(t, t.TempDir())
	dir, _ := brokerRepo(t)
	metricsFile := filepath.Join(t.TempDir(), "textfile", "brokermake.prom")
	t.Setenv(config.EnvMetricsFile, metricsFile)
	cli := &CLI{Command: "test", Dir: dir, DryRun: true, Stdout: &bytes.Buffer{}}

	require.NoError(t, cli.Run(context.Background(), nil))

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `brokermake_operation_outcomes_total{operation="test",result="success"} 1`)
}

func TestRunConfigErrors(t *testing.T) {
	chdir(t, t.TempDir())

	missingConfig := &CLI{Command: "build", Config: filepath.Join(t.TempDir(), "nope.yaml")}
	err := missingConfig.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, bmerrors.IsCategory(err, bmerrors.CategoryConfig))

	missingDir := &CLI{Command: "build", Dir: filepath.Join(t.TempDir(), "absent")}
	err = missingDir.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, bmerrors.IsCategory(err, bmerrors.CategoryConfig))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	chdir(t, t.TempDir())
	dir, _ := brokerRepo(t)
	cfgPath := filepath.Join(t.TempDir(), "brokermake.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("project_dir: /does/not/matter\nkeep_going: false\n"), 0o600))

	cli := &CLI{Config: cfgPath, Dir: dir, KeepGoing: true}
	cfg, err := cli.loadConfig()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectDir)
	assert.True(t, cfg.KeepGoing)
}

func TestRunReadsConfigFromProjectDir(t *testing.T) {
	chdir(t, t.TempDir())
	dir, _ := brokerRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFileName), []byte("entry: cmd/broker/main.go\n"), 0o600))
	var out bytes.Buffer
	cli := &CLI{Command: "run", Dir: dir, DryRun: true, Stdout: &out}

	require.NoError(t, cli.Run(context.Background(), nil))

	// the config file is untracked, so the tree is dirty
	assert.Contains(t, out.String(), `-X main.Commit=dirty" cmd/broker/main.go`)
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "")
	assert.Equal(t, slog.LevelInfo, parseLogLevel(false))
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true))

	t.Setenv(config.EnvLogLevel, "WARN")
	assert.Equal(t, slog.LevelWarn, parseLogLevel(true))

	t.Setenv(config.EnvLogLevel, "error")
	assert.Equal(t, slog.LevelError, parseLogLevel(false))

	t.Setenv(config.EnvLogLevel, "bogus")
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true))
}
