package vcxproj

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
)

const sdkProject = `<?xml version="1.0" encoding="utf-8"?>
<Project DefaultTargets="Build" ToolsVersion="14.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <PropertyGroup Label="Globals">
    <ProjectGuid>{D4C128A1-73DC-4941-A453-CE55AF239BA8}</ProjectGuid>
    <RootNamespace>f4se</RootNamespace>
    <ConfigurationType>DynamicLibrary</ConfigurationType>
  </PropertyGroup>
  <PropertyGroup Condition="'$(Configuration)|$(Platform)'=='Debug|x64'" Label="Configuration">
    <ConfigurationType>DynamicLibrary</ConfigurationType>
    <UseDebugLibraries>true</UseDebugLibraries>
  </PropertyGroup>
  <PropertyGroup Condition="'$(Configuration)|$(Platform)'=='Release|x64'" Label="Configuration">
    <ConfigurationType>DynamicLibrary</ConfigurationType>
    <WholeProgramOptimization>true</WholeProgramOptimization>
  </PropertyGroup>
  <!-- <ConfigurationType>Commented</ConfigurationType> -->
  <ItemDefinitionGroup>
    <ConfigurationType>Untouched</ConfigurationType>
  </ItemDefinitionGroup>
</Project>
`

func TestSetConfigurationType(t *testing.T) {
	out, n, err := SetConfigurationType([]byte(sdkProject), StaticLibrary)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := strings.Replace(sdkProject,
		"Label=\"Configuration\">\n    <ConfigurationType>DynamicLibrary<",
		"Label=\"Configuration\">\n    <ConfigurationType>StaticLibrary<", -1)
	assert.Equal(t, want, string(out))
	// the Globals group, the comment and the unlabelled group keep their values
	assert.Contains(t, string(out), "<RootNamespace>f4se</RootNamespace>\n    <ConfigurationType>DynamicLibrary</ConfigurationType>")
	assert.Contains(t, string(out), "<!-- <ConfigurationType>Commented</ConfigurationType> -->")
	assert.Contains(t, string(out), "<ConfigurationType>Untouched</ConfigurationType>")
}

func TestSetConfigurationType_Idempotent(t *testing.T) {
	once, _, err := SetConfigurationType([]byte(sdkProject), StaticLibrary)
	require.NoError(t, err)
	twice, n, err := SetConfigurationType(once, StaticLibrary)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, string(once), string(twice))
}

func TestSetConfigurationType_PreservesBOMAndCRLF(t *testing.T) {
	doc := "\xEF\xBB\xBF" + strings.ReplaceAll(sdkProject, "\n", "\r\n")
	out, n, err := SetConfigurationType([]byte(doc), StaticLibrary)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(string(out), "\xEF\xBB\xBF<?xml"))
	assert.Equal(t, len(doc)-2*len("DynamicLibrary")+2*len("StaticLibrary"), len(out))
	assert.Equal(t, strings.Count(doc, "\r\n"), strings.Count(string(out), "\r\n"))
}

func TestSetConfigurationType_SelfClosing(t *testing.T) {
	doc := `<Project><PropertyGroup Label="Configuration"><ConfigurationType/></PropertyGroup></Project>`
	out, n, err := SetConfigurationType([]byte(doc), StaticLibrary)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, `<Project><PropertyGroup Label="Configuration"><ConfigurationType>StaticLibrary</ConfigurationType></PropertyGroup></Project>`, string(out))
}

func TestSetConfigurationType_NoMatch(t *testing.T) {
	doc := `<Project><PropertyGroup><ConfigurationType>DynamicLibrary</ConfigurationType></PropertyGroup></Project>`
	out, n, err := SetConfigurationType([]byte(doc), StaticLibrary)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, doc, string(out))
}

func TestSetConfigurationType_Malformed(t *testing.T) {
	_, _, err := SetConfigurationType([]byte(`<Project><PropertyGroup Label="Configuration"><ConfigurationType>x`), StaticLibrary)
	require.Error(t, err)
}

func TestReadGlobals(t *testing.T) {
	g, err := ReadGlobals([]byte(sdkProject))
	require.NoError(t, err)
	assert.Equal(t, "f4se", g.RootNamespace)
	assert.Equal(t, "{D4C128A1-73DC-4941-A453-CE55AF239BA8}", g.ProjectGuid)
}

func TestReadGlobals_ScopedToGlobalsGroup(t *testing.T) {
	doc := `<Project>
  <PropertyGroup Label="Configuration"><RootNamespace>wrong</RootNamespace></PropertyGroup>
  <PropertyGroup Label="Globals">
    <ProjectGuid>
      {11111111-2222-3333-4444-555555555555}
    </ProjectGuid>
  </PropertyGroup>
</Project>`
	g, err := ReadGlobals([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, g.RootNamespace)
	assert.Equal(t, "{11111111-2222-3333-4444-555555555555}", g.ProjectGuid)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta.vcxproj", "Alpha.vcxproj", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<Project/>"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.vcxproj"), 0o750))

	first, others, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Alpha.vcxproj"), first)
	assert.Equal(t, []string{filepath.Join(dir, "zeta.vcxproj")}, others)
}

func TestFind_NoProject(t *testing.T) {
	_, _, err := Find(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestCopyTo(t *testing.T) {
	src := filepath.Join(t.TempDir(), "MyPlugin.vcxproj")
	require.NoError(t, os.WriteFile(src, []byte(sdkProject), 0o600))
	dst := filepath.Join(t.TempDir(), "build", "build.vcxproj")

	require.NoError(t, CopyTo(src, dst))

	// overwritten on every run
	require.NoError(t, os.WriteFile(dst, []byte("stale and longer than the source document"+sdkProject), 0o600))
	require.NoError(t, CopyTo(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, sdkProject, string(data))
}
