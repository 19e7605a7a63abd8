package pipeline

import (
	"time"

	"git.home.luguber.info/inful/pluginbuild/internal/git"
	"git.home.luguber.info/inful/pluginbuild/internal/history"
	"git.home.luguber.info/inful/pluginbuild/internal/packager"
	"git.home.luguber.info/inful/pluginbuild/internal/patch"
	"git.home.luguber.info/inful/pluginbuild/internal/solution"
	"git.home.luguber.info/inful/pluginbuild/internal/workspace"
)

// State accumulates what the stages derive while the pipeline runs.
type State struct {
	Workspace *workspace.Manager

	Dependencies []git.Result
	SDKDir       string

	Patches patch.Report

	SourceProject string
	BuildProject  string

	Solution string
	Project  solution.Project

	Package packager.Result

	Stages    []StageResult
	StartedAt time.Time
	Duration  time.Duration
}

// Commits maps dependency name to the commit it was built from.
func (s *State) Commits() map[string]string {
	out := make(map[string]string, len(s.Dependencies))
	for _, d := range s.Dependencies {
		out[d.Name] = d.Commit
	}
	return out
}

// HistoryRun converts the state of a finished run into a history record.
func (s *State) HistoryRun(id string, opts Options, runErr error, exitCode int) history.Run {
	run := history.Run{
		ID:        id,
		StartedAt: s.StartedAt,
		Duration:  s.Duration,
		Revision:  opts.Revision,
		Toolset:   opts.Toolset,
		Commits:   s.Commits(),
		Archive:   s.Package.Archive,
		ExitCode:  exitCode,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	for _, sr := range s.Stages {
		hs := history.Stage{Name: string(sr.Name), Result: string(sr.Result), Duration: sr.Duration}
		if sr.Err != nil {
			hs.Error = sr.Err.Error()
		}
		run.Stages = append(run.Stages, hs)
	}
	return run
}
