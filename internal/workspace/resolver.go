package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/git"
	"github.com/zpdzap/spinoff/internal/ui"
)

// Resolver locates the repository to copy and the compose file to run.
type Resolver interface {
	// SourceRoot returns the absolute repository root; dir is the explicit
	// source directory or empty.
	SourceRoot(ctx context.Context, dir string) (string, error)
	// ComposeFile returns the compose file under root matching pattern, or ""
	// when there is none.
	ComposeFile(ctx context.Context, root, pattern string) (string, error)
}

// GitResolver uses the explicit directory or the git top level of the working
// directory, and globs for compose files in the workspace root.
type GitResolver struct {
	Git *git.Client
	Log *ui.Logger
}

func (r *GitResolver) SourceRoot(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		top, err := r.Git.TopLevel(ctx, cwd)
		if err != nil {
			return "", fmt.Errorf("resolving repository root: %w", err)
		}
		dir = top
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return "", &OptionsError{Field: "input directory", Value: dir, Reason: "not a directory"}
	}
	return abs, nil
}

func (r *GitResolver) ComposeFile(_ context.Context, root, pattern string) (string, error) {
	matches, err := compose.Find(root, pattern)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0], nil
	default:
		chosen := compose.Choose(matches)
		r.Log.Warnf("%d compose files match %s, using %s", len(matches), pattern, filepath.Base(chosen))
		return chosen, nil
	}
}
