// Package solution synthesizes the Visual Studio solution that drives the
// plugin build from a template with placeholder project entries.
package solution

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/pluginbuild/internal/vcxproj"
)

// Template placeholders.
const (
	NamePlaceholder = "PLUGIN_NAME"
	DirPlaceholder  = "PLUGIN_DIR"
	GUIDPlaceholder = "{00000000-0000-0000-0000-000000000000}"

	// CppProjectType is the project type GUID Visual Studio assigns to C++ projects.
	CppProjectType = "{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}"
)

//go:embed f4se_plugin.sln
var defaultTemplate []byte

// DefaultTemplate returns a copy of the bundled solution template.
func DefaultTemplate() []byte { return bytes.Clone(defaultTemplate) }

// LoadTemplate reads the template at path, or returns the bundled one when path is empty.
func LoadTemplate(path string) ([]byte, error) {
	if path == "" {
		return DefaultTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "read solution template").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return data, nil
}

// Project identifies the plugin project placed into the solution.
type Project struct {
	Name string
	// GUID in canonical upper-case braced form.
	GUID string
	// Path relative to the solution directory, with Windows separators.
	Path string
}

// ProjectFromFile reads the display name and GUID of the project file at src.
func ProjectFromFile(src string) (Project, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return Project{}, errors.WrapError(err, errors.CategoryFileSystem, "read project file").
			Fatal().
			WithContext("path", src).
			Build()
	}
	g, err := vcxproj.ReadGlobals(data)
	if err != nil {
		return Project{}, errors.WrapError(err, errors.CategoryNotFound, "cannot extract name or GUID from project file").
			Fatal().
			WithContext("path", src).
			Build()
	}
	if g.RootNamespace == "" || g.ProjectGuid == "" {
		return Project{}, errors.NotFoundError("cannot extract name or GUID from project file").
			WithContext("path", src).
			Build()
	}
	guid, err := NormalizeGUID(g.ProjectGuid)
	if err != nil {
		return Project{}, errors.WrapError(err, errors.CategoryValidation, "project GUID is malformed").
			Fatal().
			WithContext("path", src).
			WithContext("guid", g.ProjectGuid).
			Build()
	}
	return Project{Name: g.RootNamespace, GUID: guid}, nil
}

// NormalizeGUID parses s with or without braces and returns it upper-case and braced.
func NormalizeGUID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "{"), "}"))
	if err != nil {
		return "", err
	}
	return "{" + strings.ToUpper(id.String()) + "}", nil
}

// WindowsPath returns the path of target relative to base using backslashes.
func WindowsPath(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", `\`), nil
}

// Render substitutes the project into tmpl. The name and path placeholders are
// replaced only on the C++ project entry carrying all three placeholders; the
// GUID placeholder is replaced everywhere.
func Render(tmpl []byte, p Project) ([]byte, error) {
	lines := strings.SplitAfter(string(tmpl), "\n")
	entry := fmt.Sprintf("Project(%q) = %q, %q, %q", CppProjectType, NamePlaceholder, DirPlaceholder, GUIDPlaceholder)
	found := 0
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), entry) {
			continue
		}
		found++
		line = strings.Replace(line, `"`+NamePlaceholder+`"`, `"`+p.Name+`"`, 1)
		lines[i] = strings.Replace(line, `"`+DirPlaceholder+`"`, `"`+p.Path+`"`, 1)
	}
	if found != 1 {
		return nil, errors.ConfigError("solution template must contain exactly one plugin project entry").
			WithContext("entries", found).
			Build()
	}

	out := strings.ReplaceAll(strings.Join(lines, ""), GUIDPlaceholder, p.GUID)
	for _, ph := range []string{GUIDPlaceholder, `"` + NamePlaceholder + `"`, `"` + DirPlaceholder + `"`} {
		if strings.Contains(out, ph) {
			return nil, errors.ConfigError("solution template placeholder left unresolved").
				WithContext("placeholder", ph).
				Build()
		}
	}
	return []byte(out), nil
}

// Synthesize writes the solution to dst referencing buildProject, named and
// identified after the source project file. buildProject is referenced
// relative to the directory of dst.
func Synthesize(tmpl []byte, sourceProject, buildProject, dst string) (Project, error) {
	p, err := ProjectFromFile(sourceProject)
	if err != nil {
		return p, err
	}
	if p.Path, err = WindowsPath(filepath.Dir(dst), buildProject); err != nil {
		return p, errors.WrapError(err, errors.CategoryInternal, "build project outside build directory").Build()
	}
	out, err := Render(tmpl, p)
	if err != nil {
		return p, err
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return p, errors.WrapError(err, errors.CategoryFileSystem, "write solution").
			Fatal().
			WithContext("path", dst).
			Build()
	}
	return p, nil
}
