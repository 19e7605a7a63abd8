package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
)

// Well-known names below the build directory.
const (
	BuildProjectName = "build.vcxproj"
	SolutionName     = "f4se_plugin.sln"
	HistoryDBName    = "history.db"
	DefaultPlatform  = "x64"
)

// Manager owns a build directory.
type Manager struct {
	root string
}

// NewManager returns a manager for the build directory at root. Relative paths
// are resolved against the current working directory.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("build directory not set")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve build directory: %w", err)
	}
	return &Manager{root: abs}, nil
}

// Create ensures the build directory exists.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.root, 0o750); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}
	slog.Debug("Using build directory", logfields.Path(m.root))
	return nil
}

// GetPath returns the build directory.
func (m *Manager) GetPath() string { return m.root }

// Path joins elem below the build directory.
func (m *Manager) Path(elem ...string) string {
	return filepath.Join(append([]string{m.root}, elem...)...)
}

// DependencyDir is the checkout directory of the named dependency.
func (m *Manager) DependencyDir(name string) string { return m.Path(name) }

// BuildProject is where the caller's project file is copied to.
func (m *Manager) BuildProject() string { return m.Path(BuildProjectName) }

// Solution is where the synthesized solution is written.
func (m *Manager) Solution() string { return m.Path(SolutionName) }

// ReleaseDir holds the build outputs for the given platform and configuration.
func (m *Manager) ReleaseDir(platform, configuration string) string {
	if platform == "" {
		platform = DefaultPlatform
	}
	return m.Path(platform, configuration)
}

// HistoryDB is the build history database.
func (m *Manager) HistoryDB() string { return m.Path(HistoryDBName) }

// Clean removes the generated files of previous runs for platform while
// keeping dependency checkouts and history.
func (m *Manager) Clean(platform string) error {
	if platform == "" {
		platform = DefaultPlatform
	}
	for _, p := range []string{m.BuildProject(), m.Solution(), m.Path(platform)} {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to clean %s: %w", p, err)
		}
	}
	slog.Info("Cleaned build outputs", logfields.Path(m.root))
	return nil
}
