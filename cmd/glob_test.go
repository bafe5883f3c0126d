package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.cnx",
		"src/selftest.cnx",
		"lib/motor.cnx",
	}
	result := filterExcludes(paths, []string{"selftest.cnx"})
	assert.Equal(t, []string{"src/main.cnx", "lib/motor.cnx"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.cnx",
		"build/output.cnx",
		"build/sub/deep.cnx",
		"lib/motor.cnx",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.cnx", "lib/motor.cnx"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.cnx",
		"src/generated_pins.cnx",
		"src/generated_regs.cnx",
		"lib/motor.cnx",
	}
	result := filterExcludes(paths, []string{"generated_*"})
	assert.Equal(t, []string{"src/main.cnx", "lib/motor.cnx"}, result)
}

func TestFilterExcludes_MultiplePatterns(t *testing.T) {
	paths := []string{
		"src/main.cnx",
		"build/output.cnx",
		"src/selftest.cnx",
		"lib/motor.cnx",
	}
	result := filterExcludes(paths, []string{"build", "selftest.cnx"})
	assert.Equal(t, []string{"src/main.cnx", "lib/motor.cnx"}, result)
}

func TestFilterExcludes_NoMatches(t *testing.T) {
	paths := []string{
		"src/main.cnx",
		"lib/motor.cnx",
	}
	result := filterExcludes(paths, []string{"nonexistent"})
	assert.Equal(t, []string{"src/main.cnx", "lib/motor.cnx"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/main.cnx"}
	result := filterExcludes(paths, nil)
	assert.Equal(t, []string{"src/main.cnx"}, result)
}

func TestMatchesAny_FullPath(t *testing.T) {
	// filepath.Match on the full path
	assert.True(t, matchesAny("src/main.cnx", []string{"src/*.cnx"}))
	assert.False(t, matchesAny("lib/main.cnx", []string{"src/*.cnx"}))
}

func TestMatchesAny_BaseName(t *testing.T) {
	assert.True(t, matchesAny("deep/nested/selftest.cnx", []string{"selftest.cnx"}))
}

func TestMatchesAny_Component(t *testing.T) {
	assert.True(t, matchesAny("project/build/output.cnx", []string{"build"}))
	assert.False(t, matchesAny("project/src/output.cnx", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	components := splitPath("a/b/c.cnx")
	assert.Contains(t, components, "c.cnx")
	assert.Contains(t, components, "b")
	assert.Contains(t, components, "a")
}

func TestExpandArgs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0700))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gen"), 0700))
	for _, name := range []string{"src/main.cnx", "src/panel.cnx", "gen/pins.cnx", "src/notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), nil, 0600))
	}

	files, err := expandArgs([]string{dir + "/..."}, []string{"gen"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "src", "main.cnx"),
		filepath.Join(dir, "src", "panel.cnx"),
	}, files)

	// Explicit arguments pass through even when excluded.
	files, err = expandArgs([]string{filepath.Join(dir, "gen", "pins.cnx")}, []string{"gen"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "gen", "pins.cnx")}, files)
}
