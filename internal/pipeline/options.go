package pipeline

import (
	"os"

	"git.home.luguber.info/inful/pluginbuild/internal/config"
	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/git"
	"git.home.luguber.info/inful/pluginbuild/internal/packager"
	"git.home.luguber.info/inful/pluginbuild/internal/patch"
	"git.home.luguber.info/inful/pluginbuild/internal/solution"
)

// Inputs are the per-invocation parameters given on the command line.
type Inputs struct {
	OutputDir  string
	ProjectDir string
	BuildDir   string
	Toolset    string
	// Revision is the branch or tag the SDK is pinned to.
	Revision string
	// ExtrasDir is optional.
	ExtrasDir string
	// Clean removes the project copy, solution and build outputs of earlier
	// runs before the first stage.
	Clean bool
}

// Options is the complete, read-only description of one build.
type Options struct {
	Inputs

	SDK    git.Dependency
	Common git.Dependency

	GitBackend string
	GitBinary  string
	GitDepth   int

	MSBuildBinary string
	Configuration string
	Platform      string

	Patches          patch.Set
	Layout           packager.Layout
	SolutionTemplate []byte
}

// NewOptions combines command line inputs with a loaded configuration.
func NewOptions(in Inputs, cfg *config.Config) (Options, error) {
	if err := validateInputs(in); err != nil {
		return Options{}, err
	}
	if cfg == nil {
		cfg = config.Default()
	}

	tmpl, err := solution.LoadTemplate(cfg.SolutionTemplate)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Inputs: in,
		SDK: git.Dependency{
			Name:     cfg.Dependencies.SDK.Name,
			URL:      cfg.Dependencies.SDK.URL,
			Revision: in.Revision,
		},
		Common: git.Dependency{
			Name: cfg.Dependencies.Common.Name,
			URL:  cfg.Dependencies.Common.URL,
		},
		GitBackend:       cfg.Git.Backend,
		GitBinary:        cfg.Git.Binary,
		GitDepth:         cfg.GitDepth(),
		MSBuildBinary:    cfg.MSBuild.Binary,
		Configuration:    cfg.MSBuild.Configuration,
		Platform:         cfg.MSBuild.PlatformDir,
		Patches:          cfg.Patches,
		Layout:           cfg.Package,
		SolutionTemplate: tmpl,
	}, nil
}

// Dependencies returns the checkouts in fetch order.
func (o Options) Dependencies() []git.Dependency {
	return []git.Dependency{o.SDK, o.Common}
}

func validateInputs(in Inputs) error {
	required := []struct{ flag, value string }{
		{"--output-dir", in.OutputDir},
		{"--project-dir", in.ProjectDir},
		{"--build-dir", in.BuildDir},
		{"--platform-toolset", in.Toolset},
		{"--sdk-revision", in.Revision},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.ValidationError("missing required option " + r.flag).Build()
		}
	}
	if err := requireDir(in.ProjectDir, "project directory"); err != nil {
		return err
	}
	if in.ExtrasDir != "" {
		if err := requireDir(in.ExtrasDir, "extras directory"); err != nil {
			return err
		}
	}
	return nil
}

func requireDir(path, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotFound, what+" not found").
			Fatal().
			UserAction().
			WithContext("path", path).
			Build()
	}
	if !info.IsDir() {
		return errors.ValidationError(what + " is not a directory").
			WithContext("path", path).
			Build()
	}
	return nil
}
