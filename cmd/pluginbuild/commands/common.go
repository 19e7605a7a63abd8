package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pluginbuild/internal/config"
	"git.home.luguber.info/inful/pluginbuild/internal/git"
	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
	"git.home.luguber.info/inful/pluginbuild/internal/process"
)

// Global carries process-wide state into the commands.
type Global struct {
	// Context is canceled on a termination signal.
	Context context.Context
	// Out receives progress lines and tables.
	Out io.Writer

	// Runner and Fetcher replace the real git and msbuild invocations when set.
	Runner  process.Runner
	Fetcher git.Fetcher
}

func (g *Global) context() context.Context {
	if g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stderr
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default <project-dir>/pluginbuild.yaml)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Fetch dependencies, build the plugin and package it"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever the project changes"`
	History HistoryCmd `cmd:"" help:"List recorded builds of a build directory"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads <project>/.env and the config file. An explicit --config
// must exist; the default location is optional.
func (c *CLI) loadConfig(projectDir string) (*config.Config, error) {
	if err := config.LoadEnvFile(projectDir); err != nil {
		return nil, err
	}
	path, required := c.Config, true
	if path == "" {
		path, required = filepath.Join(projectDir, config.FileName), false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	slog.Debug("Configuration loaded", logfields.Path(path),
		slog.String("git_backend", cfg.Git.Backend),
		slog.Bool("history", cfg.HistoryEnabled()))
	return cfg, nil
}
