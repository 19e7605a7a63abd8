package git

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/process"
)

// Backend names accepted by NewFetcher.
const (
	BackendCLI    = "cli"
	BackendNative = "native"
)

// Dependency describes one git source dependency checked out under the build directory.
type Dependency struct {
	// Name is the checkout directory name below the build directory.
	Name string
	URL  string
	// Revision is a branch or tag. Empty tracks the remote's default branch head.
	Revision string
}

// Pinned reports whether the dependency is fixed to a caller-supplied revision.
func (d Dependency) Pinned() bool { return d.Revision != "" }

// Dir returns the checkout directory for the dependency below buildDir.
func (d Dependency) Dir(buildDir string) string { return filepath.Join(buildDir, d.Name) }

// Result reports where a dependency was checked out and at which commit.
type Result struct {
	Name   string
	Path   string
	Commit string
	// Cloned is true when the checkout was created by this fetch.
	Cloned bool
}

// ShortCommit returns the first eight characters of the commit hash.
func (r Result) ShortCommit() string {
	if len(r.Commit) > 8 {
		return r.Commit[:8]
	}
	return r.Commit
}

// Fetcher brings a dependency's working tree to its wanted revision.
type Fetcher interface {
	Fetch(ctx context.Context, buildDir string, dep Dependency) (Result, error)
}

// HasCheckout reports whether dir already holds a git working tree.
func HasCheckout(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// FetchAll fetches deps in order and stops at the first failure.
func FetchAll(ctx context.Context, f Fetcher, buildDir string, deps []Dependency) ([]Result, error) {
	results := make([]Result, 0, len(deps))
	for _, dep := range deps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := f.Fetch(ctx, buildDir, dep)
		if err != nil {
			return results, fmt.Errorf("fetch %s: %w", dep.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// NewFetcher selects a backend by name. An empty name selects the CLI backend.
func NewFetcher(backend string, runner process.Runner, binary string, depth int, progress io.Writer) (Fetcher, error) {
	switch backend {
	case "", BackendCLI:
		return NewCLIFetcher(runner, binary, depth), nil
	case BackendNative:
		return NewNativeFetcher(depth, progress), nil
	default:
		return nil, errors.ConfigError("unknown git backend").
			WithContext("backend", backend).
			Build()
	}
}
