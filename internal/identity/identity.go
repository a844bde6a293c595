// Package identity derives the build identity stamped into broker binaries.
//
// The identity is the literal "dirty" when the working tree has uncommitted
// changes and the trimmed HEAD commit hash otherwise. It is computed fresh for
// every build or run and never persisted.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	bmerrors "github.com/sklevenz/brokermake/internal/errors"
	"github.com/sklevenz/brokermake/internal/logfields"
)

const (
	// Dirty marks a working tree with uncommitted changes.
	Dirty BuildIdentity = "dirty"

	// DevVersion is the version label linked into every development build.
	DevVersion = "dev"
)

// BuildIdentity is either Dirty or a commit hash.
type BuildIdentity string

func (b BuildIdentity) String() string { return string(b) }

// SourceControl is the read-only view of the repository the resolver needs.
type SourceControl interface {
	HasUncommittedChanges(ctx context.Context) (bool, error)
	CommitHash(ctx context.Context) (string, error)
}

// Resolver computes BuildIdentity values.
type Resolver struct {
	src SourceControl
}

// NewResolver creates a resolver backed by src.
func NewResolver(src SourceControl) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns Dirty when there are uncommitted changes, otherwise the
// whitespace-trimmed commit hash. The commit hash is not queried for a dirty
// tree. Any query failure, or an empty hash, is returned as a VCS error.
func (r *Resolver) Resolve(ctx context.Context) (BuildIdentity, error) {
	dirty, err := r.src.HasUncommittedChanges(ctx)
	if err != nil {
		return "", bmerrors.VCSQueryFailed("status", err)
	}
	if dirty {
		slog.Debug("Build identity resolved", logfields.Identity(string(Dirty)))
		return Dirty, nil
	}

	hash, err := r.src.CommitHash(ctx)
	if err != nil {
		return "", bmerrors.VCSQueryFailed("commit", err)
	}
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return "", bmerrors.VCSQueryFailed("commit", errors.New("empty commit hash"))
	}

	slog.Debug("Build identity resolved", logfields.Identity(hash))
	return BuildIdentity(hash), nil
}
