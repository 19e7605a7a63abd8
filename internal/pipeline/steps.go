package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/pluginbuild/internal/git"
	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
	"git.home.luguber.info/inful/pluginbuild/internal/msbuild"
	"git.home.luguber.info/inful/pluginbuild/internal/packager"
	"git.home.luguber.info/inful/pluginbuild/internal/patch"
	"git.home.luguber.info/inful/pluginbuild/internal/solution"
	"git.home.luguber.info/inful/pluginbuild/internal/vcxproj"
)

func (p *Pipeline) stageFetch(ctx context.Context, st *State) error {
	fetcher := timedFetcher{Fetcher: p.fetcher, rec: p.recorder}
	results, err := git.FetchAll(ctx, fetcher, st.Workspace.GetPath(), p.opts.Dependencies())
	st.Dependencies = results
	if err != nil {
		return err
	}
	st.SDKDir = st.Workspace.DependencyDir(p.opts.SDK.Name)
	return nil
}

func (p *Pipeline) stagePatch(_ context.Context, st *State) error {
	rep, err := patch.New(p.opts.Patches, p.out).Apply(st.SDKDir)
	st.Patches = rep
	if err != nil {
		return err
	}
	p.recorder.SetPatchesApplied(rep.Applied)
	return nil
}

func (p *Pipeline) stageProject(_ context.Context, st *State) error {
	src, others, err := vcxproj.Find(p.opts.ProjectDir)
	if err != nil {
		return err
	}
	if len(others) > 0 {
		slog.Warn("Multiple project files found, using the first",
			logfields.File(src),
			slog.String("ignored", strings.Join(others, ", ")))
	}
	dst := st.Workspace.BuildProject()
	if err := vcxproj.CopyTo(src, dst); err != nil {
		return err
	}
	st.SourceProject = src
	st.BuildProject = dst
	slog.Info("Copied project file", logfields.File(src), logfields.Path(dst))
	return nil
}

func (p *Pipeline) stageSolution(_ context.Context, st *State) error {
	dst := st.Workspace.Solution()
	proj, err := solution.Synthesize(p.opts.SolutionTemplate, st.SourceProject, st.BuildProject, dst)
	st.Project = proj
	if err != nil {
		return err
	}
	st.Solution = dst
	slog.Info("Generated solution", logfields.Path(dst), slog.String("project", proj.Name), slog.String("guid", proj.GUID))
	return nil
}

func (p *Pipeline) stageBuild(ctx context.Context, st *State) error {
	b := msbuild.New(p.runner, msbuild.Options{
		Binary:        p.opts.MSBuildBinary,
		Configuration: p.opts.Configuration,
		Toolset:       p.opts.Toolset,
		IncludeDirs:   []string{st.SDKDir, st.Workspace.GetPath()},
	})
	return b.Build(ctx, st.Workspace.GetPath(), st.Solution)
}

func (p *Pipeline) stagePackage(_ context.Context, st *State) error {
	res, err := packager.New(p.opts.Layout, p.out).Package(packager.Request{
		ProjectDir: p.opts.ProjectDir,
		ReleaseDir: st.Workspace.ReleaseDir(p.opts.Platform, p.configuration()),
		ExtrasDir:  p.opts.ExtrasDir,
		OutputDir:  p.opts.OutputDir,
	})
	st.Package = res
	return err
}

func (p *Pipeline) configuration() string {
	if p.opts.Configuration == "" {
		return msbuild.DefaultConfiguration
	}
	return p.opts.Configuration
}
