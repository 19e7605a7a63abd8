// Package msbuild invokes the MSBuild toolchain on a synthesized solution.
package msbuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
	"git.home.luguber.info/inful/pluginbuild/internal/process"
)

// Defaults for the build invocation.
const (
	DefaultBinary        = "msbuild"
	DefaultConfiguration = "Release"
	IncludeEnv           = "INCLUDE"
)

// Options configures one build.
type Options struct {
	// Binary is the build tool executable (default "msbuild").
	Binary string
	// Configuration is the solution configuration (default "Release").
	Configuration string
	// Toolset is passed as PlatformToolset.
	Toolset string
	// IncludeDirs are prepended to the include path, in order.
	IncludeDirs []string
}

// Builder runs the build tool through a process.Runner.
type Builder struct {
	runner process.Runner
	opts   Options
	getenv func(string) string
}

// New returns a Builder using runner.
func New(runner process.Runner, opts Options) *Builder {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Configuration == "" {
		opts.Configuration = DefaultConfiguration
	}
	return &Builder{runner: runner, opts: opts, getenv: os.Getenv}
}

// IncludePath joins the configured include directories with the caller's
// INCLUDE environment value. An unset or empty INCLUDE is left out.
func (b *Builder) IncludePath() string {
	parts := append([]string{}, b.opts.IncludeDirs...)
	if env := b.getenv(IncludeEnv); env != "" {
		parts = append(parts, env)
	} else {
		slog.Warn("INCLUDE is not set; toolchain headers must be found through the toolset defaults")
	}
	return strings.Join(parts, ";")
}

// Command returns the build invocation for the solution at slnPath, run from buildDir.
func (b *Builder) Command(buildDir, slnPath string) (process.Command, error) {
	rel, err := filepath.Rel(buildDir, slnPath)
	if err != nil {
		return process.Command{}, fmt.Errorf("solution path: %w", err)
	}
	return process.Command{
		Name: b.opts.Binary,
		Args: []string{
			rel,
			"/p:PlatformToolset=" + b.opts.Toolset,
			// quoted so ';' separates include directories instead of properties
			`/p:IncludePath="` + b.IncludePath() + `"`,
			"/p:UseEnv=true",
			"/p:Configuration=" + b.opts.Configuration,
		},
		Dir: buildDir,
	}, nil
}

// Build compiles the solution. A non-zero exit of the build tool is returned
// as a process error carrying the tool's exit status.
func (b *Builder) Build(ctx context.Context, buildDir, slnPath string) error {
	cmd, err := b.Command(buildDir, slnPath)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "prepare build command").Build()
	}
	slog.Info("Building solution", logfields.Path(slnPath), logfields.Toolset(b.opts.Toolset))
	if err := b.runner.Run(ctx, cmd); err != nil {
		if errors.Is(err, process.ErrBinaryNotFound) {
			return ferrors.WrapError(err, ferrors.CategoryBuild, "build tool not found").
				Fatal().
				WithContext("binary", b.opts.Binary).
				Build()
		}
		return fmt.Errorf("msbuild: %w", err)
	}
	return nil
}
