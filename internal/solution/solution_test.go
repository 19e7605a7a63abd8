package solution

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
)

const pluginProject = `<?xml version="1.0" encoding="utf-8"?>
<Project xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <PropertyGroup Label="Globals">
    <ProjectGuid>{a1b2c3d4-0000-4000-8000-00000000beef}</ProjectGuid>
    <RootNamespace>BetterConsole</RootNamespace>
  </PropertyGroup>
</Project>
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSynthesize(t *testing.T) {
	project := writeFile(t, t.TempDir(), "BetterConsole.vcxproj", pluginProject)
	build := t.TempDir()
	buildProject := writeFile(t, build, "build.vcxproj", pluginProject)

	dst := filepath.Join(build, "f4se_plugin.sln")
	p, err := Synthesize(DefaultTemplate(), project, buildProject, dst)
	require.NoError(t, err)
	assert.Equal(t, Project{Name: "BetterConsole", GUID: "{A1B2C3D4-0000-4000-8000-00000000BEEF}", Path: "build.vcxproj"}, p)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	sln := string(data)
	assert.Contains(t, sln, `Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "BetterConsole", "build.vcxproj", "{A1B2C3D4-0000-4000-8000-00000000BEEF}"`)
	assert.Contains(t, sln, "{A1B2C3D4-0000-4000-8000-00000000BEEF}.Release|x64.Build.0 = Release|x64")
	assert.NotContains(t, sln, GUIDPlaceholder)
	assert.NotContains(t, sln, NamePlaceholder)
	assert.NotContains(t, sln, DirPlaceholder)
}

func TestSynthesize_MissingGlobals(t *testing.T) {
	project := writeFile(t, t.TempDir(), "p.vcxproj",
		`<Project><PropertyGroup Label="Globals"><RootNamespace>OnlyName</RootNamespace></PropertyGroup></Project>`)
	build := t.TempDir()

	_, err := Synthesize(DefaultTemplate(), project, filepath.Join(build, "build.vcxproj"), filepath.Join(build, "f4se_plugin.sln"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	assert.Contains(t, err.Error(), "cannot extract name or GUID from project file")
	assert.Equal(t, 1, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.NoFileExists(t, filepath.Join(build, "f4se_plugin.sln"))
}

func TestSynthesize_MalformedGUID(t *testing.T) {
	project := writeFile(t, t.TempDir(), "p.vcxproj",
		`<Project><PropertyGroup Label="Globals"><RootNamespace>X</RootNamespace><ProjectGuid>not-a-guid</ProjectGuid></PropertyGroup></Project>`)
	build := t.TempDir()

	_, err := Synthesize(DefaultTemplate(), project, filepath.Join(build, "build.vcxproj"), filepath.Join(build, "f4se_plugin.sln"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.NoFileExists(t, filepath.Join(build, "f4se_plugin.sln"))
}

func TestRender_ScopedSubstitution(t *testing.T) {
	tmpl := strings.Join([]string{
		`# PLUGIN_NAME stays in comments`,
		`Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "PLUGIN_NAME", "PLUGIN_NAME", "{11111111-1111-1111-1111-111111111111}"`,
		`EndProject`,
		`Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "PLUGIN_NAME", "PLUGIN_DIR", "{00000000-0000-0000-0000-000000000000}"`,
		`EndProject`,
		`	{00000000-0000-0000-0000-000000000000}.Release|x64.ActiveCfg = Release|x64`,
		``,
	}, "\r\n")
	p := Project{Name: "Plugin", GUID: "{ABCDEF01-2345-4678-9ABC-DEF012345678}", Path: `sub\build.vcxproj`}

	_, err := Render([]byte(tmpl), p)
	// the solution folder entry still carries a quoted name placeholder
	require.Error(t, err)

	tmpl = strings.Replace(tmpl, `"PLUGIN_NAME", "PLUGIN_NAME"`, `"Folder", "Folder"`, 1)
	out, err := Render([]byte(tmpl), p)
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.HasPrefix(s, "# PLUGIN_NAME stays in comments\r\n"))
	assert.Contains(t, s, `= "Plugin", "sub\build.vcxproj", "{ABCDEF01-2345-4678-9ABC-DEF012345678}"`+"\r\n")
	assert.Contains(t, s, "\t{ABCDEF01-2345-4678-9ABC-DEF012345678}.Release|x64.ActiveCfg")
}

func TestRender_MissingProjectEntry(t *testing.T) {
	_, err := Render([]byte("Global\nEndGlobal\n"), Project{Name: "x", GUID: "{A}", Path: "y"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNormalizeGUID(t *testing.T) {
	for _, in := range []string{
		"{a1b2c3d4-0000-4000-8000-00000000beef}",
		"a1b2c3d4-0000-4000-8000-00000000beef",
		" {A1B2C3D4-0000-4000-8000-00000000BEEF} ",
	} {
		got, err := NormalizeGUID(in)
		require.NoError(t, err, in)
		assert.Equal(t, "{A1B2C3D4-0000-4000-8000-00000000BEEF}", got)
	}
	_, err := NormalizeGUID("{zz}")
	require.Error(t, err)
}

func TestWindowsPath(t *testing.T) {
	base := t.TempDir()
	got, err := WindowsPath(base, filepath.Join(base, "nested", "build.vcxproj"))
	require.NoError(t, err)
	assert.Equal(t, `nested\build.vcxproj`, got)
}

func TestLoadTemplate(t *testing.T) {
	data, err := LoadTemplate("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate(), data)

	custom := writeFile(t, t.TempDir(), "custom.sln", "custom")
	data, err = LoadTemplate(custom)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(data))

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.sln"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
