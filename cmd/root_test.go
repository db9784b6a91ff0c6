package cmd

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	root := CmdForTest("0.0.1-test", "linux_x86_64")
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func writeInputs(t *testing.T, dir, current, base, incoming string) (string, string, string) {
	t.Helper()
	paths := []string{filepath.Join(dir, "SKILL.md"), filepath.Join(dir, "base.md"), filepath.Join(dir, "incoming.md")}
	for i, content := range []string{current, base, incoming} {
		require.NoError(t, os.WriteFile(paths[i], []byte(content), 0o644))
	}
	return paths[0], paths[1], paths[2]
}

func TestApply_CleanMergeOutsideRepository(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	t.Chdir(dir)

	current, base, incoming := writeInputs(t, dir,
		"local\n2\n3\n4\n5\n",
		"1\n2\n3\n4\n5\n",
		"1\n2\n3\n4\nincoming\n",
	)

	err := runCommand(t, "apply", "--target", current, "--base", base, "--incoming", incoming)
	require.NoError(t, err)

	data, err := os.ReadFile(current)
	require.NoError(t, err)
	assert.Equal(t, "local\n2\n3\n4\nincoming\n", string(data))
}

func TestApply_ConflictFails(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	t.Chdir(dir)

	current, base, incoming := writeInputs(t, dir, "mine\n", "line\n", "theirs\n")

	err := runCommand(t, "apply", "--target", current, "--base", base, "--incoming", incoming)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnresolvedConflicts)
}

func TestMergeFile_ReportsConflicts(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	t.Chdir(dir)

	current, base, incoming := writeInputs(t, dir, "mine\n", "line\n", "theirs\n")

	err := runCommand(t, "merge-file", "--current", current, "--base", base, "--incoming", incoming)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 conflicting region(s)")
}

func TestApplyPlan_RejectsNonYAMLPlan(t *testing.T) {
	err := runCommand(t, "apply-plan", "--plan", "plan.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a .yaml or .yml file")
}

func TestConfigureBackend_RejectsUnknownBackend(t *testing.T) {
	err := runCommand(t, "configure", "backend", "--backend", "svn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not one of")
}

func TestStatus_OutsideRepository(t *testing.T) {
	requireGit(t)
	t.Chdir(t.TempDir())

	require.NoError(t, runCommand(t, "status", "--json"))
}

func TestInvalidLogLevel(t *testing.T) {
	err := runCommand(t, "status", "--logLevel", "verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level must be one of")
}
