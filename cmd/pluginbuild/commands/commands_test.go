package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/git"
	"git.home.luguber.info/inful/pluginbuild/internal/process"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Name("pluginbuild"),
		kong.Vars{"version": "test"},
		kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	return parser
}

func buildArgs(root string) []string {
	return []string{
		"build",
		"--output-dir", filepath.Join(root, "dist"),
		"--project-dir", filepath.Join(root, "project"),
		"--build-dir", filepath.Join(root, "build"),
		"--platform-toolset", "v143",
		"--sdk-revision", "v0.7.2",
	}
}

func TestParseBuildFlags(t *testing.T) {
	root := t.TempDir()
	cli := &CLI{}
	ctx, err := newParser(t, cli).Parse(append(buildArgs(root), "--include-extras", filepath.Join(root, "extras")))
	require.NoError(t, err)

	assert.Equal(t, "build", ctx.Command())
	assert.Equal(t, filepath.Join(root, "dist"), cli.Build.OutputDir)
	assert.Equal(t, "v143", cli.Build.PlatformToolset)
	assert.Equal(t, "v0.7.2", cli.Build.SDKRevision)
	assert.Equal(t, filepath.Join(root, "extras"), cli.Build.IncludeExtras)
	assert.False(t, cli.Build.inputs().Clean)
}

func TestParseBuildClean(t *testing.T) {
	cli := &CLI{}
	_, err := newParser(t, cli).Parse(append(buildArgs(t.TempDir()), "--clean"))
	require.NoError(t, err)
	assert.True(t, cli.Build.inputs().Clean)
}

func TestParseBuildRequiresFlags(t *testing.T) {
	root := t.TempDir()
	args := buildArgs(root)
	// drop --sdk-revision
	_, err := newParser(t, &CLI{}).Parse(args[:len(args)-2])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sdk-revision")
}

func TestParseWatchDebounce(t *testing.T) {
	root := t.TempDir()
	args := append([]string{"watch"}, buildArgs(root)[1:]...)
	cli := &CLI{}
	_, err := newParser(t, cli).Parse(append(args, "--debounce", "2s"))
	require.NoError(t, err)
	assert.Equal(t, "2s", cli.Watch.Debounce.String())
}

type failingFetcher struct{ err error }

func (f failingFetcher) Fetch(context.Context, string, git.Dependency) (git.Result, error) {
	return git.Result{}, f.err
}

func TestBuildRecordsHistoryAndMetrics(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "project"), 0o750))
	metricsPath := filepath.Join(root, "metrics", "pluginbuild.prom")

	cli := &CLI{}
	_, err := newParser(t, cli).Parse(append(buildArgs(root), "--metrics-file", metricsPath))
	require.NoError(t, err)

	var out bytes.Buffer
	g := &Global{
		Context: t.Context(),
		Out:     &out,
		Runner:  &process.FakeRunner{},
		Fetcher: failingFetcher{err: ferrors.ProcessError([]string{"git", "clone"}, 128, errors.New("exit status 128")).Build()},
	}
	err = cli.Build.Run(g, cli)
	require.Error(t, err)
	assert.Equal(t, 128, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Contains(t, out.String(), "BUILD SUMMARY")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `pluginbuild_build_outcomes_total{outcome="failed"} 1`)

	out.Reset()
	hist := &HistoryCmd{BuildDir: filepath.Join(root, "build"), Limit: 5}
	require.NoError(t, hist.Run(g, cli))
	assert.Contains(t, out.String(), "FAILED (128)")
	assert.Contains(t, out.String(), "v0.7.2")
}

func TestBuildNoHistory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "project"), 0o750))

	cli := &CLI{}
	_, err := newParser(t, cli).Parse(append(buildArgs(root), "--no-history", "--no-summary"))
	require.NoError(t, err)

	var out bytes.Buffer
	g := &Global{Context: t.Context(), Out: &out, Runner: &process.FakeRunner{}, Fetcher: failingFetcher{err: errors.New("offline")}}
	require.Error(t, cli.Build.Run(g, cli))
	assert.NoFileExists(t, filepath.Join(root, "build", "history.db"))
	assert.NotContains(t, out.String(), "BUILD SUMMARY")
}

func TestBuildMissingProjectDir(t *testing.T) {
	root := t.TempDir()
	cli := &CLI{}
	_, err := newParser(t, cli).Parse(buildArgs(root))
	require.NoError(t, err)

	err = cli.Build.Run(&Global{Context: t.Context(), Out: &bytes.Buffer{}}, cli)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestBuildExplicitConfigMustExist(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "project"), 0o750))
	cli := &CLI{}
	_, err := newParser(t, cli).Parse(append([]string{"--config", filepath.Join(root, "missing.yaml")}, buildArgs(root)...))
	require.NoError(t, err)

	err = cli.Build.Run(&Global{Context: t.Context(), Out: &bytes.Buffer{}}, cli)
	require.Error(t, err)
	assert.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestHistoryWithoutDatabase(t *testing.T) {
	hist := &HistoryCmd{BuildDir: t.TempDir(), Limit: 5}
	err := hist.Run(&Global{Out: &bytes.Buffer{}}, &CLI{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestTerminationSignals(t *testing.T) {
	assert.Contains(t, TerminationSignals(), os.Interrupt)
}
