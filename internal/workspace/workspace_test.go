package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestManager_RemoveAndEnsure(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(root)
	writeFile(t, filepath.Join(root, "gen", "stale", "old.go"), "package stale")

	require.NoError(t, mgr.Remove("gen", "openapi"))
	_, err := os.Stat(filepath.Join(root, "gen"))
	assert.True(t, os.IsNotExist(err), "gen should be removed")

	require.NoError(t, mgr.Ensure("gen", "openapi"))
	for _, d := range []string{"gen", "openapi"} {
		info, err := os.Stat(filepath.Join(root, d))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	entries, err := os.ReadDir(filepath.Join(root, "gen"))
	require.NoError(t, err)
	assert.Empty(t, entries, "recreated directory must be empty")
}

func TestManager_ResolveRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(root)

	for _, bad := range []string{"", ".", "..", "../elsewhere", "gen/../..", filepath.Dir(root)} {
		_, err := mgr.Resolve(bad)
		assert.Error(t, err, "path %q should be rejected", bad)
	}

	p, err := mgr.Resolve("gen/go")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "gen", "go"), p)

	abs := filepath.Join(root, "openapi")
	p, err = mgr.Resolve(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, p)
}

func TestManager_ResolveKeepsSymlinksInside(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "gen")))

	p, err := NewManager(root).Resolve("gen/openapi.yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, root+string(filepath.Separator)), p)
	assert.False(t, strings.HasPrefix(p, outside), p)
}

func TestManager_RemoveRefusesRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "brokerApp.go"), "package main")

	err := NewManager(root).Remove(".")
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(root, "brokerApp.go"))
	assert.NoError(t, statErr)
}

func TestManager_CopyMatching(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(root)
	genGo := filepath.Join(root, "gen", "go")
	writeFile(t, filepath.Join(genGo, "model_service_instance_resource.go"), "package openapi // resource")
	writeFile(t, filepath.Join(genGo, "model_catalog.go"), "package openapi // catalog")
	writeFile(t, filepath.Join(genGo, "routers.go"), "package openapi // routers")
	writeFile(t, filepath.Join(genGo, "model_nested", "model_x.go"), "package nested")

	copied, err := mgr.CopyMatching("gen/go", "model_*.go", "openapi")
	require.NoError(t, err)
	assert.Equal(t, []string{"model_catalog.go", "model_service_instance_resource.go"}, copied)

	data, err := os.ReadFile(filepath.Join(root, "openapi", "model_catalog.go"))
	require.NoError(t, err)
	assert.Equal(t, "package openapi // catalog", string(data))

	_, err = os.Stat(filepath.Join(root, "openapi", "routers.go"))
	assert.True(t, os.IsNotExist(err), "non-matching files must not be copied")
}

func TestManager_CopyMatchingMissingSource(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, err := mgr.CopyMatching("gen/go", "model_*.go", "openapi")
	assert.Error(t, err)
}

func TestManager_CopyMatchingBadPattern(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, err := mgr.CopyMatching("gen/go", "model_[", "openapi")
	assert.Error(t, err)
}
