package pipeline

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/pluginbuild/internal/git"
	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
	"git.home.luguber.info/inful/pluginbuild/internal/metrics"
	"git.home.luguber.info/inful/pluginbuild/internal/process"
	"git.home.luguber.info/inful/pluginbuild/internal/workspace"
)

// Pipeline executes the build stages for one set of Options.
type Pipeline struct {
	opts     Options
	runner   process.Runner
	fetcher  git.Fetcher
	recorder metrics.Recorder
	out      io.Writer
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the process runner used for git and msbuild.
func WithRunner(r process.Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithFetcher replaces the dependency fetcher chosen from the git backend.
func WithFetcher(f git.Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithOutput sets where progress lines are printed (default stderr).
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.out = w
		}
	}
}

// New returns a pipeline for opts.
func New(opts Options, options ...Option) (*Pipeline, error) {
	p := &Pipeline{
		opts:     opts,
		recorder: metrics.NoopRecorder{},
		out:      os.Stderr,
	}
	for _, o := range options {
		o(p)
	}
	if p.runner == nil {
		r := process.NewExecRunner()
		r.Echo = p.out
		p.runner = r
	}
	if p.fetcher == nil {
		f, err := git.NewFetcher(opts.GitBackend, p.runner, opts.GitBinary, opts.GitDepth, p.out)
		if err != nil {
			return nil, err
		}
		p.fetcher = f
	}
	return p, nil
}

// Options returns the options the pipeline was built with.
func (p *Pipeline) Options() Options { return p.opts }

// Stages returns the stage list in execution order.
func (p *Pipeline) Stages() []StageDef {
	return []StageDef{
		{StageFetch, p.stageFetch},
		{StagePatch, p.stagePatch},
		{StageProject, p.stageProject},
		{StageSolution, p.stageSolution},
		{StageBuild, p.stageBuild},
		{StagePackage, p.stagePackage},
	}
}

// Run executes every stage. The returned state is never nil, so callers can
// report partial progress of a failed run.
func (p *Pipeline) Run(ctx context.Context) (*State, error) {
	st := &State{StartedAt: time.Now()}

	ws, err := workspace.NewManager(p.opts.BuildDir)
	if err == nil {
		err = ws.Create()
	}
	if err == nil && p.opts.Clean {
		err = ws.Clean(p.opts.Platform)
	}
	if err != nil {
		p.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		return st, err
	}
	st.Workspace = ws

	err = runStages(ctx, st, p.Stages(), p.recorder)
	st.Duration = time.Since(st.StartedAt)
	p.recorder.ObserveBuildDuration(st.Duration)

	var se *StageError
	switch {
	case err == nil:
		p.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
		slog.Info("Build completed", logfields.DurationMS(ms(st.Duration)), logfields.Path(st.Package.Archive))
	case stdErrors.As(err, &se) && se.Kind == StageErrorCanceled:
		p.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
	default:
		p.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	}
	return st, err
}

// runStages executes stages in order, recording timing and stopping on the
// first error. Stages after a failure are recorded as skipped.
func runStages(ctx context.Context, st *State, stages []StageDef, rec metrics.Recorder) error {
	var failed error
	for _, def := range stages {
		if failed != nil {
			st.Stages = append(st.Stages, StageResult{Name: def.Name, Result: metrics.ResultSkipped})
			rec.IncStageResult(string(def.Name), metrics.ResultSkipped)
			continue
		}
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(def.Name, err)
			st.Stages = append(st.Stages, StageResult{Name: def.Name, Result: metrics.ResultCanceled, Err: err})
			rec.IncStageResult(string(def.Name), metrics.ResultCanceled)
			failed = se
			continue
		}

		slog.Debug("Stage started", logfields.Stage(string(def.Name)))
		t0 := time.Now()
		err := def.Fn(ctx, st)
		dur := time.Since(t0)
		rec.ObserveStageDuration(string(def.Name), dur)

		res := StageResult{Name: def.Name, Result: metrics.ResultSuccess, Duration: dur, Err: err}
		if err != nil {
			if ctx.Err() != nil || stdErrors.Is(err, context.Canceled) {
				res.Result = metrics.ResultCanceled
				failed = newCanceledStageError(def.Name, err)
			} else {
				res.Result = metrics.ResultFatal
				failed = newFatalStageError(def.Name, err)
			}
			slog.Error("Stage failed", logfields.Stage(string(def.Name)), logfields.DurationMS(ms(dur)), logfields.Error(err))
		} else {
			slog.Info("Stage completed", logfields.Stage(string(def.Name)), logfields.DurationMS(ms(dur)))
		}
		st.Stages = append(st.Stages, res)
		rec.IncStageResult(string(def.Name), res.Result)
	}
	if failed != nil {
		return failed
	}
	return nil
}

// timedFetcher reports per-dependency fetch durations to a recorder.
type timedFetcher struct {
	git.Fetcher
	rec metrics.Recorder
}

func (t timedFetcher) Fetch(ctx context.Context, buildDir string, dep git.Dependency) (git.Result, error) {
	t0 := time.Now()
	res, err := t.Fetcher.Fetch(ctx, buildDir, dep)
	t.rec.ObserveDependencyFetch(dep.Name, time.Since(t0), err == nil)
	return res, err
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
