// Package patch applies the source fixes an SDK checkout needs before it can
// be compiled as a static library by a current toolchain.
package patch

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
	"git.home.luguber.info/inful/pluginbuild/internal/vcxproj"
)

// Include inserts Line as the second line of File unless an identical line exists.
type Include struct {
	File string `yaml:"file"`
	Line string `yaml:"line"`
}

// Set describes every patch applied to an SDK checkout. Paths are relative to the SDK directory.
type Set struct {
	Project           string    `yaml:"project"`
	ConfigurationType string    `yaml:"configuration_type"`
	Includes          []Include `yaml:"includes"`
}

// DefaultSet reproduces the fixes the F4SE SDK needs.
func DefaultSet() Set {
	return Set{
		Project:           "f4se/f4se.vcxproj",
		ConfigurationType: vcxproj.StaticLibrary,
		Includes: []Include{
			{File: "f4se/BSSkin.h", Line: "#include <xmmintrin.h>"},
			{File: "f4se/PapyrusObjects.h", Line: "#include <algorithm>"},
		},
	}
}

// Report summarizes one patch run.
type Report struct {
	ConfigurationGroups int
	Applied             int
	Total               int
}

func (r Report) String() string { return fmt.Sprintf("Patched: %d/%d", r.Applied, r.Total) }

// Patcher applies a Set to an SDK directory.
type Patcher struct {
	set Set
	out io.Writer
}

// New returns a patcher writing progress lines to out (nil discards them).
func New(set Set, out io.Writer) *Patcher {
	if out == nil {
		out = io.Discard
	}
	return &Patcher{set: set, out: out}
}

// Apply patches the checkout rooted at sdkDir.
func (p *Patcher) Apply(sdkDir string) (Report, error) {
	rep := Report{Total: len(p.set.Includes)}

	if p.set.Project != "" {
		n, err := p.patchProject(filepath.Join(sdkDir, filepath.FromSlash(p.set.Project)))
		if err != nil {
			return rep, err
		}
		rep.ConfigurationGroups = n
	}

	for _, inc := range p.set.Includes {
		path := filepath.Join(sdkDir, filepath.FromSlash(inc.File))
		applied, err := AddIncludeLine(path, inc.Line)
		if err != nil {
			return rep, errors.WrapError(err, errors.CategoryBuild, "include patch failed").
				Fatal().
				WithContext("file", inc.File).
				Build()
		}
		if applied {
			rep.Applied++
			slog.Info("Inserted include", logfields.File(inc.File), slog.String("line", inc.Line))
		} else {
			slog.Debug("Include already present", logfields.File(inc.File))
		}
	}

	_, _ = fmt.Fprintln(p.out, rep.String())
	return rep, nil
}

func (p *Patcher) patchProject(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryNotFound, "SDK project file missing").
			Fatal().
			WithContext("path", path).
			Build()
	}
	patched, n, err := vcxproj.SetConfigurationType(data, p.set.ConfigurationType)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryBuild, "SDK project file unreadable").
			Fatal().
			WithContext("path", path).
			Build()
	}
	if n == 0 {
		slog.Warn("No Configuration property group found; project left unchanged", logfields.Path(path))
		return 0, nil
	}
	if !bytes.Equal(patched, data) {
		if err := writeFilePreserveMode(path, patched); err != nil {
			return 0, errors.WrapError(err, errors.CategoryFileSystem, "write SDK project file").
				Fatal().
				WithContext("path", path).
				Build()
		}
	}
	slog.Info("Set configuration type", logfields.Path(path), slog.String("value", p.set.ConfigurationType), logfields.Count(n))
	return n, nil
}

func writeFilePreserveMode(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, data, mode)
}
