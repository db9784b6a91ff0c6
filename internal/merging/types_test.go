package merging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillmerge/skillmerge/internal/git"
)

func TestRepoContext_ZeroValueIsNotARepository(t *testing.T) {
	assert.False(t, RepoContext{}.InRepo())
	assert.True(t, RepoContext{WorkingDir: "/repo", StateDir: "/repo/.git"}.InRepo())
}

func TestRepoContext_RelPath(t *testing.T) {
	root := t.TempDir()
	rc := RepoContext{WorkingDir: root, StateDir: filepath.Join(root, ".git")}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "skills"), 0o755))

	rel, ok := rc.RelPath(filepath.Join(root, "skills", "SKILL.md"))
	assert.True(t, ok)
	assert.Equal(t, "skills/SKILL.md", rel)

	_, ok = rc.RelPath(filepath.Join(filepath.Dir(root), "elsewhere.md"))
	assert.False(t, ok)

	assert.Equal(t, filepath.Join(root, "skills", "SKILL.md"), rc.WorkPath("skills/SKILL.md"))
}

func TestStagedConflict(t *testing.T) {
	entries := StagedConflict("skills/SKILL.md", "b", "o", "t")

	require.Len(t, entries, 3)
	assert.Equal(t, "100644 b 1\tskills/SKILL.md", entries[0].String())
	assert.Equal(t, "100644 o 2\tskills/SKILL.md", entries[1].String())
	assert.Equal(t, "100644 t 3\tskills/SKILL.md", entries[2].String())
}

func TestParseIndexEntry(t *testing.T) {
	entry, err := ParseIndexEntry("100644 e69de29bb2d1d6434b8b29ae775ad8c2e48c5391 2\tdir with space/SKILL.md")
	require.NoError(t, err)
	assert.Equal(t, IndexEntry{
		Mode:  "100644",
		Hash:  "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391",
		Stage: StageOurs,
		Path:  "dir with space/SKILL.md",
	}, entry)

	for _, line := range []string{"", "100644 abc 2 SKILL.md", "100644 abc\tSKILL.md", "100644 abc 9\tSKILL.md"} {
		_, err := ParseIndexEntry(line)
		assert.Error(t, err, line)
	}
}

func TestExecutionError(t *testing.T) {
	cmdErr := &git.CommandError{Args: []string{"merge-file"}, ExitCode: 255, Stderr: "error: Could not stat base.md\n", Err: errors.New("exit status 255")}

	err := fmt.Errorf("SKILL.md: %w", executionError("merge-file", cmdErr))

	assert.ErrorIs(t, err, ErrExecutionFailure)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 255, execErr.ExitCode)
	assert.Equal(t, "merge-file failed: error: Could not stat base.md", execErr.Error())

	var gotCmdErr *git.CommandError
	assert.ErrorAs(t, err, &gotCmdErr)

	// wrapping twice keeps the innermost operation
	assert.Same(t, execErr, executionError("stage", execErr))
}

func TestNewVersionControl(t *testing.T) {
	vcs, err := NewVersionControl(BackendExec, git.DefaultRunner)
	require.NoError(t, err)
	assert.IsType(t, &ExecBackend{}, vcs)

	vcs, err = NewVersionControl("", git.DefaultRunner)
	require.NoError(t, err)
	assert.IsType(t, &ExecBackend{}, vcs)

	vcs, err = NewVersionControl(BackendNative, git.DefaultRunner)
	require.NoError(t, err)
	assert.IsType(t, &NativeBackend{}, vcs)

	_, err = NewVersionControl("svn", git.DefaultRunner)
	assert.Error(t, err)
}

func TestMergeResult(t *testing.T) {
	assert.Equal(t, MergeResult{Clean: true, ExitCode: 0}, cleanResult())
	assert.Equal(t, 3, conflictResult(3).Conflicts())
	assert.False(t, conflictResult(3).Clean)
	assert.Equal(t, "Skill merge: skills/SKILL.md", SessionMessage("skills/SKILL.md"))
}
