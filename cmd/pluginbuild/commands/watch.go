package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/pluginbuild/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildFlags `embed:""`

	Debounce time.Duration `help:"Quiet period after a change before rebuilding" default:"500ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(w.ProjectDir)
	if err != nil {
		return err
	}
	watcher, err := watch.New(w.ProjectDir, w.Debounce, w.BuildDir, w.OutputDir)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	return watcher.Run(g.context(), func(ctx context.Context) error {
		return runBuild(ctx, g, cfg, w.BuildFlags)
	})
}
