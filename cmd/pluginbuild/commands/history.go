package commands

import (
	stdErrors "errors"
	"os"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/history"
	"git.home.luguber.info/inful/pluginbuild/internal/workspace"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	BuildDir string `name:"build-dir" required:"" type:"path" help:"Build directory whose history is listed"`
	Limit    int    `short:"n" help:"Number of runs to list" default:"20"`
	ID       string `arg:"" optional:"" help:"Show the stages of a single run"`
}

func (h *HistoryCmd) Run(g *Global, _ *CLI) error {
	ws, err := workspace.NewManager(h.BuildDir)
	if err != nil {
		return err
	}
	db := ws.HistoryDB()
	if _, err := os.Stat(db); err != nil {
		return errors.NotFoundError("no build history recorded").
			WithContext("path", db).
			Build()
	}

	store, err := history.NewSQLiteStore(db)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if h.ID != "" {
		run, err := store.Get(g.context(), h.ID)
		if stdErrors.Is(err, history.ErrRunNotFound) {
			return errors.NotFoundError("run not found").WithContext("id", h.ID).Build()
		}
		if stdErrors.Is(err, history.ErrAmbiguousRunID) {
			return errors.ValidationError("run id prefix matches several runs").WithContext("id", h.ID).Build()
		}
		if err != nil {
			return err
		}
		history.RenderRun(g.out(), run)
		return nil
	}

	runs, err := store.Recent(g.context(), h.Limit)
	if err != nil {
		return err
	}
	history.RenderRuns(g.out(), runs)
	return nil
}
