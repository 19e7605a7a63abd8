package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pluginbuild/internal/config"
	ferrors "git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/history"
	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
	"git.home.luguber.info/inful/pluginbuild/internal/metrics"
	"git.home.luguber.info/inful/pluginbuild/internal/pipeline"
)

// BuildFlags are shared by build and watch.
type BuildFlags struct {
	OutputDir       string `name:"output-dir" required:"" type:"path" help:"Directory receiving the plugin archive"`
	ProjectDir      string `name:"project-dir" required:"" type:"path" help:"Directory holding the plugin's .vcxproj and Config.h"`
	BuildDir        string `name:"build-dir" required:"" type:"path" help:"Persistent build directory for checkouts and outputs"`
	PlatformToolset string `name:"platform-toolset" required:"" help:"MSBuild platform toolset, e.g. v143"`
	SDKRevision     string `name:"sdk-revision" required:"" help:"SDK branch or tag to build against"`
	IncludeExtras   string `name:"include-extras" type:"path" help:"Directory whose files are added to the archive"`
	Clean           bool   `name:"clean" help:"Remove generated project, solution and build outputs before building"`

	MetricsFile string `name:"metrics-file" type:"path" help:"Write Prometheus metrics to this file after the build"`
	NoHistory   bool   `name:"no-history" help:"Do not record the build in the history database"`
	NoSummary   bool   `name:"no-summary" help:"Do not print the stage summary table"`
}

func (f BuildFlags) inputs() pipeline.Inputs {
	return pipeline.Inputs{
		OutputDir:  f.OutputDir,
		ProjectDir: f.ProjectDir,
		BuildDir:   f.BuildDir,
		Toolset:    f.PlatformToolset,
		Revision:   f.SDKRevision,
		ExtrasDir:  f.IncludeExtras,
		Clean:      f.Clean,
	}
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(b.ProjectDir)
	if err != nil {
		return err
	}
	return runBuild(g.context(), g, cfg, b.BuildFlags)
}

// runBuild executes the pipeline once and records the outcome.
func runBuild(ctx context.Context, g *Global, cfg *config.Config, flags BuildFlags) error {
	opts, err := pipeline.NewOptions(flags.inputs(), cfg)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	rec := metrics.NewPrometheusRecorder(nil)
	pipeOpts := []pipeline.Option{pipeline.WithRecorder(rec), pipeline.WithOutput(g.out())}
	if g.Runner != nil {
		pipeOpts = append(pipeOpts, pipeline.WithRunner(g.Runner))
	}
	if g.Fetcher != nil {
		pipeOpts = append(pipeOpts, pipeline.WithFetcher(g.Fetcher))
	}
	p, err := pipeline.New(opts, pipeOpts...)
	if err != nil {
		return err
	}

	slog.Info("Starting plugin build",
		logfields.RunID(runID),
		logfields.Revision(opts.Revision),
		logfields.Toolset(opts.Toolset),
		logfields.Backend(opts.GitBackend))

	st, runErr := p.Run(ctx)

	if !flags.NoSummary && len(st.Stages) > 0 {
		pipeline.RenderSummary(g.out(), st)
	}
	if cfg.HistoryEnabled() && !flags.NoHistory && st.Workspace != nil {
		exitCode := ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(runErr)
		recordHistory(ctx, st.Workspace.HistoryDB(), st.HistoryRun(runID, opts, runErr, exitCode))
	}
	if path := metricsFile(flags, cfg); path != "" {
		if err := rec.WriteTextfile(path); err != nil {
			slog.Warn("Failed to write metrics file", logfields.Path(path), logfields.Error(err))
		}
	}
	return runErr
}

func metricsFile(flags BuildFlags, cfg *config.Config) string {
	if flags.MetricsFile != "" {
		return flags.MetricsFile
	}
	return cfg.MetricsFile
}

// recordHistory stores run; failures only warn so they never mask the build result.
func recordHistory(ctx context.Context, dbPath string, run history.Run) {
	store, err := history.NewSQLiteStore(dbPath)
	if err != nil {
		slog.Warn("Build history unavailable", logfields.Path(dbPath), logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.Record(context.WithoutCancel(ctx), run); err != nil {
		slog.Warn("Failed to record build history", logfields.RunID(run.ID), logfields.Error(err))
		return
	}
	slog.Debug("Recorded build", logfields.RunID(run.ID), logfields.Path(dbPath))
}
