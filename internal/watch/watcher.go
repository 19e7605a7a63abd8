// Package watch re-runs a build whenever files below a project directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
)

// DefaultDebounce is how long the tree must stay quiet before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Watcher observes a directory tree.
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// New watches root recursively. Paths in ignore (and everything below them)
// never trigger a rebuild; the build and output directories belong there when
// they live inside the project.
func New(root string, debounce time.Duration, ignore ...string) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{root: abs, debounce: debounce}
	for _, p := range ignore {
		if p == "" {
			continue
		}
		if a, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, a)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run calls build once, then again after every quiet period following a
// change. Builds never overlap: changes made while a build runs schedule the
// next one. Build errors are logged and watching continues. Run returns nil
// when ctx is canceled.
func (w *Watcher) Run(ctx context.Context, build func(context.Context) error) error {
	w.runBuild(ctx, build, "")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := ""

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				w.addIfDir(event.Name)
			}
			slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			pending = event.Name
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		case <-timer.C:
			w.runBuild(ctx, build, pending)
			pending = ""
		}
	}
}

func (w *Watcher) runBuild(ctx context.Context, build func(context.Context) error, trigger string) {
	if ctx.Err() != nil {
		return
	}
	if trigger != "" {
		slog.Info("Rebuilding after change", logfields.Path(trigger))
	}
	if err := build(ctx); err != nil {
		slog.Error("Build failed; waiting for changes", logfields.Error(err))
		return
	}
	slog.Info("Build succeeded; waiting for changes", logfields.Path(w.root))
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !w.ignored(event.Name)
}

// ignored reports whether path is excluded from watching.
func (w *Watcher) ignored(path string) bool {
	for _, ig := range w.ignore {
		if path == ig || strings.HasPrefix(path, ig+string(filepath.Separator)) {
			return true
		}
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == ".git" || part == ".vs" {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) addIfDir(path string) {
	if err := w.addTree(path); err != nil {
		slog.Debug("Not watching new path", logfields.Path(path), logfields.Error(err))
	}
}
