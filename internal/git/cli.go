package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	ferrors "git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
	"git.home.luguber.info/inful/pluginbuild/internal/process"
)

// CLIFetcher drives the git command line client.
type CLIFetcher struct {
	runner process.Runner
	binary string
	depth  int
}

// NewCLIFetcher returns a fetcher running binary (default "git") through runner.
// depth <= 0 disables shallow fetching.
func NewCLIFetcher(runner process.Runner, binary string, depth int) *CLIFetcher {
	if binary == "" {
		binary = "git"
	}
	return &CLIFetcher{runner: runner, binary: binary, depth: depth}
}

// Commands returns the git invocations needed to bring dep up to date under buildDir.
func (c *CLIFetcher) Commands(buildDir string, dep Dependency) []process.Command {
	dir := dep.Dir(buildDir)
	var depth []string
	if c.depth > 0 {
		depth = []string{"--depth=" + strconv.Itoa(c.depth)}
	}
	cmd := func(args ...string) process.Command {
		return process.Command{Name: c.binary, Args: args}
	}
	concat := func(parts ...[]string) []string {
		var out []string
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	if HasCheckout(dir) {
		if dep.Pinned() {
			refspec := dep.Revision + ":refs/remotes/origin/" + dep.Revision
			return []process.Command{
				cmd(concat([]string{"-C", dir, "fetch"}, depth, []string{"origin", refspec})...),
				cmd("-C", dir, "checkout", "--force", "FETCH_HEAD"),
			}
		}
		return []process.Command{
			cmd(concat([]string{"-C", dir, "fetch"}, depth, []string{"origin", "HEAD"})...),
			cmd("-C", dir, "reset", "--hard", "FETCH_HEAD"),
		}
	}

	if dep.Pinned() {
		return []process.Command{cmd(concat([]string{"clone", "--branch", dep.Revision}, depth, []string{dep.URL, dir})...)}
	}
	return []process.Command{cmd(concat([]string{"clone"}, depth, []string{dep.URL, dir})...)}
}

// Fetch runs the commands for dep in order, stopping at the first failure.
func (c *CLIFetcher) Fetch(ctx context.Context, buildDir string, dep Dependency) (Result, error) {
	dir := dep.Dir(buildDir)
	res := Result{Name: dep.Name, Path: dir, Cloned: !HasCheckout(dir)}

	for _, cmd := range c.Commands(buildDir, dep) {
		if err := c.runner.Run(ctx, cmd); err != nil {
			if errors.Is(err, process.ErrBinaryNotFound) {
				return res, ferrors.WrapError(err, ferrors.CategoryGit, "git client not available").
					Fatal().
					WithContext("binary", c.binary).
					Build()
			}
			return res, fmt.Errorf("%s: %w", dep.Name, err)
		}
	}

	commit, err := ReadRepoHead(dir)
	if err != nil {
		slog.Warn("Unable to resolve dependency commit", logfields.Dependency(dep.Name), logfields.Error(err))
	}
	res.Commit = commit
	slog.Info("Dependency ready",
		logfields.Dependency(dep.Name),
		logfields.Revision(revisionLabel(dep)),
		logfields.Commit(res.ShortCommit()),
		logfields.Backend(BackendCLI))
	return res, nil
}

func revisionLabel(dep Dependency) string {
	if dep.Pinned() {
		return dep.Revision
	}
	return "HEAD"
}
