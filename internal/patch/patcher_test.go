package patch

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pluginbuild/internal/foundation/errors"
)

const project = `<?xml version="1.0" encoding="utf-8"?>
<Project xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <PropertyGroup Label="Configuration">
    <ConfigurationType>DynamicLibrary</ConfigurationType>
  </PropertyGroup>
</Project>
`

func writeSDK(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func read(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func TestApply_DefaultSet(t *testing.T) {
	sdk := writeSDK(t, map[string]string{
		"f4se/f4se.vcxproj":     project,
		"f4se/BSSkin.h":         "#pragma once\n\nclass BSSkin {};\n",
		"f4se/PapyrusObjects.h": "#pragma once\r\n#include <algorithm>\r\n",
	})
	var out bytes.Buffer

	rep, err := New(DefaultSet(), &out).Apply(sdk)
	require.NoError(t, err)
	assert.Equal(t, Report{ConfigurationGroups: 1, Applied: 1, Total: 2}, rep)
	assert.Equal(t, "Patched: 1/2\n", out.String())

	assert.Contains(t, read(t, sdk, "f4se/f4se.vcxproj"), "<ConfigurationType>StaticLibrary</ConfigurationType>")
	assert.Equal(t, "#pragma once\n#include <xmmintrin.h>\n\nclass BSSkin {};\n", read(t, sdk, "f4se/BSSkin.h"))
	assert.Equal(t, "#pragma once\r\n#include <algorithm>\r\n", read(t, sdk, "f4se/PapyrusObjects.h"))

	// a second run changes nothing
	out.Reset()
	rep, err = New(DefaultSet(), &out).Apply(sdk)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Applied)
	assert.Equal(t, "Patched: 0/2\n", out.String())
	assert.Equal(t, "#pragma once\n#include <xmmintrin.h>\n\nclass BSSkin {};\n", read(t, sdk, "f4se/BSSkin.h"))
}

func TestApply_UnmatchedProjectIsNotFatal(t *testing.T) {
	sdk := writeSDK(t, map[string]string{
		"f4se/f4se.vcxproj":     "<Project></Project>",
		"f4se/BSSkin.h":         "a\n",
		"f4se/PapyrusObjects.h": "b\n",
	})
	rep, err := New(DefaultSet(), nil).Apply(sdk)
	require.NoError(t, err)
	assert.Zero(t, rep.ConfigurationGroups)
	assert.Equal(t, 2, rep.Applied)
	assert.Equal(t, "<Project></Project>", read(t, sdk, "f4se/f4se.vcxproj"))
}

func TestApply_MissingTargets(t *testing.T) {
	_, err := New(DefaultSet(), nil).Apply(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	sdk := writeSDK(t, map[string]string{"f4se/f4se.vcxproj": project})
	_, err = New(DefaultSet(), nil).Apply(sdk)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryBuild))
}

func TestInsertLine(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		line    string
		want    string
		changed bool
	}{
		{"second line", "a\nb\n", "#include <x>", "a\n#include <x>\nb\n", true},
		{"crlf file", "a\r\nb\r\n", "#include <x>", "a\r\n#include <x>\r\nb\r\n", true},
		{"already present", "a\n#include <x>\n", "#include <x>", "a\n#include <x>\n", false},
		{"present with crlf", "a\r\n#include <x>\r\n", "#include <x>\n", "a\r\n#include <x>\r\n", false},
		{"present as last line without newline", "a\n#include <x>", "#include <x>", "a\n#include <x>", false},
		{"single unterminated line", "a", "#include <x>", "a\n#include <x>\n", true},
		{"empty file", "", "#include <x>", "#include <x>\n", true},
		{"similar line is not equal", "a\n#include <x> // note\n", "#include <x>", "a\n#include <x>\n#include <x> // note\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := insertLine([]byte(tt.in), []byte(tt.line))
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestAddIncludeLine_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BSSkin.h")
	require.NoError(t, os.WriteFile(path, []byte("#pragma once\nstruct S;\n"), 0o600))

	changed, err := AddIncludeLine(path, "#include <xmmintrin.h>")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = AddIncludeLine(path, "#include <xmmintrin.h>")
	require.NoError(t, err)
	assert.False(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#pragma once\n#include <xmmintrin.h>\nstruct S;\n", string(data))
}
