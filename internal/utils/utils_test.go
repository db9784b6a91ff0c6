package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapitalizeFirst(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", CapitalizeFirst(""))
	assert.Equal(t, "Merged", CapitalizeFirst("merged"))
	assert.Equal(t, "Éclair", CapitalizeFirst("éclair"))
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "SKILL.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing.md")))
}

func TestCreateDirectory(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "a", "b", "SKILL.md")
	require.NoError(t, CreateDirectory(target))

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestHasYAMLExt(t *testing.T) {
	t.Parallel()

	assert.True(t, HasYAMLExt("plan.yaml"))
	assert.True(t, HasYAMLExt("plan.yml"))
	assert.False(t, HasYAMLExt("plan.json"))
}

func TestSanitizeFilePath(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "skills", "SKILL.md"), SanitizeFilePath("~/skills/SKILL.md"))
	assert.True(t, filepath.IsAbs(SanitizeFilePath("SKILL.md")))
}
