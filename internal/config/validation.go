package config

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
)

// Validate checks a loaded configuration for values the pipeline cannot use.
func Validate(cfg *Config) error {
	switch cfg.Git.Backend {
	case "cli", "native":
	default:
		return errors.ValidationError("git.backend must be cli or native").
			WithContext("backend", cfg.Git.Backend).
			Build()
	}
	if cfg.GitDepth() < 0 {
		return errors.ValidationError("git.depth must not be negative").
			WithContext("depth", cfg.GitDepth()).
			Build()
	}
	if cfg.Dependencies.SDK.Name == cfg.Dependencies.Common.Name {
		return errors.ValidationError("dependencies must use distinct directory names").
			WithContext("name", cfg.Dependencies.SDK.Name).
			Build()
	}
	for _, name := range []string{cfg.Dependencies.SDK.Name, cfg.Dependencies.Common.Name} {
		if !isPlainName(name) {
			return errors.ValidationError("dependency name must be a single directory name").
				WithContext("name", name).
				Build()
		}
	}
	for i, inc := range cfg.Patches.Includes {
		if inc.File == "" || strings.TrimSpace(inc.Line) == "" {
			return errors.ValidationError("include patch needs file and line").
				WithContext("index", i).
				Build()
		}
		if !isRelative(inc.File) {
			return errors.ValidationError("include patch file must be relative to the SDK").
				WithContext("file", inc.File).
				Build()
		}
	}
	if cfg.Patches.Project != "" && !isRelative(cfg.Patches.Project) {
		return errors.ValidationError("patches.project must be relative to the SDK").
			WithContext("project", cfg.Patches.Project).
			Build()
	}
	if !strings.HasPrefix(cfg.Package.BinaryExt, ".") && cfg.Package.BinaryExt != "" {
		return errors.ValidationError("package.binary_ext must start with a dot").
			WithContext("binary_ext", cfg.Package.BinaryExt).
			Build()
	}
	if cfg.Package.InstallDir != "" && !isRelative(cfg.Package.InstallDir) {
		return errors.ValidationError("package.install_dir must be a relative archive path").
			WithContext("install_dir", cfg.Package.InstallDir).
			Build()
	}
	return nil
}

func isPlainName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func isRelative(p string) bool {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" || strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return false
	}
	clean := path.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}
