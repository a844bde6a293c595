package operations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklevenz/brokermake/internal/config"
	bmerrors "github.com/sklevenz/brokermake/internal/errors"
	"github.com/sklevenz/brokermake/internal/fetch"
	"github.com/sklevenz/brokermake/internal/runner"
)

const brokerSpec = `openapi: 3.0.0
info:
  title: Open Service Broker API
  version: "2.15"
paths: {}
`

func specServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// fakeGenerator writes what openapi-generator would produce on "generate".
func fakeGenerator(root string) func(runner.Spec) runner.Result {
	return func(spec runner.Spec) runner.Result {
		if len(spec.Argv) > 1 && spec.Argv[1] == "generate" {
			goDir := filepath.Join(root, "gen", "go")
			_ = os.MkdirAll(goDir, 0o750)
			for _, name := range []string{"model_plan.go", "model_service.go", "api_catalog.go", "routers.go"} {
				_ = os.WriteFile(filepath.Join(goDir, name), []byte("package openapi\n"), 0o600)
			}
		}
		return runner.Result{}
	}
}

func newGenerateHarness(t *testing.T, srv *httptest.Server, mutate func(*config.Config)) *harness {
	t.Helper()
	return newHarness(t, func(c *config.Config, d *Deps) {
		c.Generate.SpecURL = srv.URL + "/openapi.yaml"
		d.Fetcher = fetch.New(fetch.WithHTTPClient(srv.Client()))
		if mutate != nil {
			mutate(c)
		}
	})
}

func TestGenerateRunsStagesInOrder(t *testing.T) {
	srv := specServer(t, http.StatusOK, brokerSpec)
	h := newGenerateHarness(t, srv, nil)
	h.runner.Handler = fakeGenerator(h.root)
	writeFile(t, filepath.Join(h.root, "gen", "stale.txt"), "old")
	writeFile(t, filepath.Join(h.root, "openapi", "model_removed.go"), "package openapi\n")

	require.NoError(t, h.ops.Generate(context.Background(), false))

	assert.Equal(t, []string{
		"openapi-generator validate -i gen/openapi.yaml",
		"openapi-generator generate -i gen/openapi.yaml -g go-server -o gen",
		"gofmt -w openapi",
	}, h.runner.Commands())

	var announced []string
	for _, line := range strings.Split(strings.TrimSpace(h.out.String()), "\n") {
		announced = append(announced, strings.TrimPrefix(line, "-- "))
	}
	assert.Equal(t, []string{
		"clean broker", "prepare broker", "fetch broker", "lint broker",
		"validate broker", "generate broker", "copy broker", "format broker",
	}, announced)

	data, err := os.ReadFile(filepath.Join(h.root, "gen", "openapi.yaml"))
	require.NoError(t, err)
	assert.Equal(t, brokerSpec, string(data))
	assert.NoFileExists(t, filepath.Join(h.root, "gen", "stale.txt"))

	entries, err := os.ReadDir(filepath.Join(h.root, "openapi"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"model_plan.go", "model_service.go"}, names)
}

func TestGenerateInvalidSpecIsOnlyAdvisory(t *testing.T) {
	srv := specServer(t, http.StatusOK, "openapi: 3.0.0\ninfo: {}\n")
	h := newGenerateHarness(t, srv, nil)
	h.runner.Handler = fakeGenerator(h.root)

	require.NoError(t, h.ops.Generate(context.Background(), false))
	assert.Len(t, h.runner.Commands(), 3)
}

func TestGenerateFetchFailureHalts(t *testing.T) {
	srv := specServer(t, http.StatusNotFound, "missing")
	h := newGenerateHarness(t, srv, nil)

	err := h.ops.Generate(context.Background(), false)

	require.Error(t, err)
	assert.True(t, bmerrors.IsCategory(err, bmerrors.CategoryNetwork))
	assert.Empty(t, h.runner.Calls())
	assert.Equal(t, "-- clean broker\n-- prepare broker\n-- fetch broker\n", h.out.String())
}

func TestGenerateFetchFailureKeepGoing(t *testing.T) {
	srv := specServer(t, http.StatusNotFound, "missing")
	h := newGenerateHarness(t, srv, func(c *config.Config) { c.KeepGoing = true })
	h.runner.Handler = fakeGenerator(h.root)

	err := h.ops.Generate(context.Background(), false)

	require.Error(t, err)
	assert.True(t, bmerrors.IsCategory(err, bmerrors.CategoryNetwork))
	assert.Equal(t, []string{
		"openapi-generator validate -i gen/openapi.yaml",
		"openapi-generator generate -i gen/openapi.yaml -g go-server -o gen",
		"gofmt -w openapi",
	}, h.runner.Commands())
}

func TestGenerateCopyWithoutModelsFails(t *testing.T) {
	srv := specServer(t, http.StatusOK, brokerSpec)
	h := newGenerateHarness(t, srv, nil)

	err := h.ops.Generate(context.Background(), false)

	require.Error(t, err)
	assert.True(t, bmerrors.IsCategory(err, bmerrors.CategoryFileSystem))
	assert.Contains(t, err.Error(), `step "copy" failed`)
	assert.Len(t, h.runner.Commands(), 2)
}

func TestGenerateDryRunTouchesNothing(t *testing.T) {
	srv := specServer(t, http.StatusOK, brokerSpec)
	h := newHarness(t, func(c *config.Config, d *Deps) {
		c.Generate.SpecURL = srv.URL + "/openapi.yaml"
		d.Fetcher = fetch.New(fetch.WithHTTPClient(srv.Client()))
		d.DryRun = true
	})
	writeFile(t, filepath.Join(h.root, "gen", "stale.txt"), "old")

	require.NoError(t, h.ops.Generate(context.Background(), true))

	assert.Empty(t, h.runner.Calls())
	assert.FileExists(t, filepath.Join(h.root, "gen", "stale.txt"))
	assert.NoFileExists(t, filepath.Join(h.root, "gen", "openapi.yaml"))
	assert.Contains(t, h.out.String(), "   openapi-generator generate -i gen/openapi.yaml -g go-server -o gen\n")
}
