package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/sklevenz/brokermake/internal/logfields"
)

// ErrNoCommits is returned when HEAD does not point at a commit yet.
var ErrNoCommits = errors.New("repository has no commits")

// Repository answers source control queries with go-git.
type Repository struct {
	dir string
}

// NewRepository creates a go-git backed query client for the repository
// containing dir (parent directories are searched for .git).
func NewRepository(dir string) *Repository { return &Repository{dir: dir} }

func (r *Repository) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(r.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", r.dir, err)
	}
	return repo, nil
}

// HasUncommittedChanges reports whether the worktree differs from HEAD,
// including untracked files that are not ignored by the repository, the
// user's excludes file or the system excludes file.
func (r *Repository) HasUncommittedChanges(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	repo, err := r.open()
	if err != nil {
		return false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("get worktree: %w", err)
	}
	excludes, err := userExcludes()
	if err != nil {
		return false, err
	}
	wt.Excludes = append(wt.Excludes, excludes...)

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("worktree status: %w", err)
	}
	if !status.IsClean() {
		slog.Debug("Worktree has uncommitted changes", logfields.Path(r.dir), slog.Int("entries", len(status)))
		return true, nil
	}
	return false, nil
}

// userExcludes loads the core.excludesfile patterns from the global and
// system git config. go-git only reads the repository's own ignore files.
func userExcludes() ([]gitignore.Pattern, error) {
	root := osfs.New("/")
	global, err := gitignore.LoadGlobalPatterns(root)
	if err != nil {
		return nil, fmt.Errorf("load global excludes: %w", err)
	}
	system, err := gitignore.LoadSystemPatterns(root)
	if err != nil {
		return nil, fmt.Errorf("load system excludes: %w", err)
	}
	return append(global, system...), nil
}

// CommitHash returns the full hash HEAD resolves to.
func (r *Repository) CommitHash(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", ErrNoCommits
		}
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}
