// Package config loads the optional pluginbuild.yaml file that tunes how a
// plugin is built: dependency sources, git and build tool settings, the SDK
// patch set and the archive layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/packager"
	"git.home.luguber.info/inful/pluginbuild/internal/patch"
)

// FileName is the config file looked up in the project directory.
const FileName = "pluginbuild.yaml"

// Default dependency sources.
const (
	DefaultSDKName    = "f4se"
	DefaultSDKURL     = "https://github.com/ianpatt/f4se"
	DefaultCommonName = "common"
	DefaultCommonURL  = "https://github.com/ianpatt/common"
)

// Config is the pluginbuild configuration file.
type Config struct {
	Dependencies DependenciesConfig `yaml:"dependencies"`
	Git          GitConfig          `yaml:"git"`
	MSBuild      MSBuildConfig      `yaml:"msbuild"`
	Patches      patch.Set          `yaml:"patches"`
	Package      packager.Layout    `yaml:"package"`
	// SolutionTemplate overrides the bundled solution template.
	SolutionTemplate string `yaml:"solution_template"`
	// History enables the build history database (default true).
	History *bool `yaml:"history"`
	// MetricsFile receives Prometheus metrics in textfile format after each run.
	MetricsFile string `yaml:"metrics_file"`
}

// DependenciesConfig names the two source dependencies.
type DependenciesConfig struct {
	SDK    DependencyConfig `yaml:"sdk"`
	Common DependencyConfig `yaml:"common"`
}

// DependencyConfig is one git dependency.
type DependencyConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// GitConfig configures dependency fetching.
type GitConfig struct {
	Backend string `yaml:"backend"` // cli|native
	Binary  string `yaml:"binary"`
	// Depth limits fetch history; 0 fetches everything. Default 1.
	Depth *int `yaml:"depth"`
}

// MSBuildConfig configures the build tool.
type MSBuildConfig struct {
	Binary        string `yaml:"binary"`
	Configuration string `yaml:"configuration"`
	PlatformDir   string `yaml:"platform_dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	depth := 1
	history := true
	return &Config{
		Dependencies: DependenciesConfig{
			SDK:    DependencyConfig{Name: DefaultSDKName, URL: DefaultSDKURL},
			Common: DependencyConfig{Name: DefaultCommonName, URL: DefaultCommonURL},
		},
		Git:     GitConfig{Backend: "cli", Binary: "git", Depth: &depth},
		MSBuild: MSBuildConfig{Binary: "msbuild", Configuration: "Release", PlatformDir: "x64"},
		Patches: patch.DefaultSet(),
		Package: packager.DefaultLayout(),
		History: &history,
	}
}

// HistoryEnabled reports whether runs are recorded.
func (c *Config) HistoryEnabled() bool { return c.History == nil || *c.History }

// GitDepth returns the configured fetch depth.
func (c *Config) GitDepth() int {
	if c.Git.Depth == nil {
		return 1
	}
	return *c.Git.Depth
}

// Load reads the config file at path. When required is false a missing file
// yields the defaults. Environment variables in the file are expanded before
// parsing, and relative paths are resolved against the file's directory.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "configuration file not readable").
			Fatal().
			WithContext("path", path).
			Build()
	}

	// Decoded on top of the defaults; lists in the file replace the default lists.
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").
			Fatal().
			WithContext("path", path).
			Build()
	}

	base := filepath.Dir(path)
	cfg.SolutionTemplate = resolve(base, cfg.SolutionTemplate)
	cfg.MetricsFile = resolve(base, cfg.MetricsFile)

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// applyDefaults fills fields the file set to empty values.
func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.Dependencies.SDK.Name == "" {
		cfg.Dependencies.SDK.Name = d.Dependencies.SDK.Name
	}
	if cfg.Dependencies.SDK.URL == "" {
		cfg.Dependencies.SDK.URL = d.Dependencies.SDK.URL
	}
	if cfg.Dependencies.Common.Name == "" {
		cfg.Dependencies.Common.Name = d.Dependencies.Common.Name
	}
	if cfg.Dependencies.Common.URL == "" {
		cfg.Dependencies.Common.URL = d.Dependencies.Common.URL
	}
	if cfg.Git.Backend == "" {
		cfg.Git.Backend = d.Git.Backend
	}
	if cfg.Git.Binary == "" {
		cfg.Git.Binary = d.Git.Binary
	}
	if cfg.MSBuild.Binary == "" {
		cfg.MSBuild.Binary = d.MSBuild.Binary
	}
	if cfg.MSBuild.Configuration == "" {
		cfg.MSBuild.Configuration = d.MSBuild.Configuration
	}
	if cfg.MSBuild.PlatformDir == "" {
		cfg.MSBuild.PlatformDir = d.MSBuild.PlatformDir
	}
	if cfg.Patches.ConfigurationType == "" {
		cfg.Patches.ConfigurationType = d.Patches.ConfigurationType
	}
}
