package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/samber/lo"

	"github.com/sklevenz/brokermake/internal/logfields"
)

// Manager performs filesystem steps rooted at the project directory.
type Manager struct {
	root string
}

// NewManager creates a workspace manager for the project at root.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Resolve returns the location of rel inside the project, refusing paths
// that escape the project root or that name the root itself.
func (m *Manager) Resolve(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("empty workspace path")
	}
	root := filepath.Clean(m.root)
	p := rel
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)
	r, err := filepath.Rel(root, p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	if r == "." {
		return "", fmt.Errorf("refusing to operate on project root: %s", rel)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes project root: %s", rel)
	}
	// Symlinks inside the project must not lead outside it either.
	p, err = securejoin.SecureJoin(root, r)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	return p, nil
}

// Remove deletes each directory tree. Missing directories are not an error.
func (m *Manager) Remove(dirs ...string) error {
	for _, d := range dirs {
		p, err := m.Resolve(d)
		if err != nil {
			return err
		}
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", d, err)
		}
		slog.Debug("Removed directory", logfields.Path(p))
	}
	return nil
}

// Ensure creates each directory (and parents) if missing.
func (m *Manager) Ensure(dirs ...string) error {
	for _, d := range dirs {
		p, err := m.Resolve(d)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(p, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
		slog.Debug("Created directory", logfields.Path(p))
	}
	return nil
}

// CopyMatching copies the regular files directly inside srcDir whose base
// name matches pattern (filepath.Match syntax) into dstDir, preserving file
// modes. It returns the copied base names in sorted order.
func (m *Manager) CopyMatching(srcDir, pattern, dstDir string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	src, err := m.Resolve(srcDir)
	if err != nil {
		return nil, err
	}
	dst, err := m.Resolve(dstDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", srcDir, err)
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if !e.Type().IsRegular() {
			return "", false
		}
		ok, _ := filepath.Match(pattern, e.Name())
		return e.Name(), ok
	})
	sort.Strings(names)

	if err := os.MkdirAll(dst, 0o750); err != nil {
		return nil, fmt.Errorf("create %s: %w", dstDir, err)
	}
	for _, name := range names {
		if err := copyFile(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return nil, err
		}
	}
	slog.Debug("Copied generated files", logfields.Path(dst), slog.Int("files", len(names)))
	return names, nil
}

// copyFile copies a single file from src to dst
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode().Perm())
}
