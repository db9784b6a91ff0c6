package merging

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillmerge/skillmerge/internal/git"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(git.DefaultBinary); err != nil {
		t.Skip("git binary not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command(git.DefaultBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Skill Merge",
		"GIT_AUTHOR_EMAIL=skillmerge@example.com",
		"GIT_COMMITTER_NAME=Skill Merge",
		"GIT_COMMITTER_EMAIL=skillmerge@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// newTestRepo creates a repository with one commit containing README.md.
func newTestRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	writeFile(t, filepath.Join(dir, "README.md"), "# skills\n")
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-q", "-m", "init")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// backends returns one instance of every VersionControl implementation.
func backends() map[string]VersionControl {
	return map[string]VersionControl{
		BackendExec:   NewExecBackend(git.DefaultRunner),
		BackendNative: NewNativeBackend(git.DefaultRunner),
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, vcs VersionControl)) {
	t.Helper()
	for name, vcs := range backends() {
		t.Run(name, func(t *testing.T) {
			fn(t, vcs)
		})
	}
}

// fakeVCS is an in-memory VersionControl. Session markers are real files in rc.StateDir.
type fakeVCS struct {
	sessionFiles

	mu sync.Mutex
	rc RepoContext

	// mergeOutput maps a target file name to the content ThreeWayMerge writes into it.
	mergeOutput map[string]string
	mergeErr    map[string]error
	stageErr    error
	headErr     error
	// resolveTo is written into every staged path when resolution memory runs.
	resolveTo string

	hashed  [][]byte
	staged  []IndexEntry
	resets  []string
	merges  int
	rereres int
}

var _ VersionControl = (*fakeVCS)(nil)

func newFakeVCS(rc RepoContext) *fakeVCS {
	return &fakeVCS{
		sessionFiles: newSessionFiles(),
		rc:           rc,
		mergeOutput:  map[string]string{},
		mergeErr:     map[string]error{},
	}
}

// newFakeRepo returns a fake rooted at a temp working tree with its own state directory.
func newFakeRepo(t *testing.T) (*fakeVCS, string) {
	t.Helper()
	root := t.TempDir()
	stateDir := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(stateDir, 0o755))
	return newFakeVCS(RepoContext{WorkingDir: root, StateDir: stateDir}), root
}

func (f *fakeVCS) IsRepo(context.Context, string) bool { return f.rc.InRepo() }

func (f *fakeVCS) ResolveWorkTree(context.Context, string) (string, error) {
	return f.rc.WorkingDir, nil
}

func (f *fakeVCS) ResolveStateDir(context.Context, string) (string, error) {
	return f.rc.StateDir, nil
}

func (f *fakeVCS) ThreeWayMerge(_ context.Context, in MergeInputs) (MergeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges++

	name := filepath.Base(in.CurrentPath)
	if err := f.mergeErr[name]; err != nil {
		return MergeResult{}, executionError("merge-file", err)
	}
	out, ok := f.mergeOutput[name]
	if !ok {
		return cleanResult(), nil
	}
	if err := os.WriteFile(in.CurrentPath, []byte(out), 0o644); err != nil {
		return MergeResult{}, executionError("merge-file", err)
	}
	if n := len(ParseConflictMarkers([]byte(out))); n > 0 {
		return conflictResult(n), nil
	}
	return cleanResult(), nil
}

func (f *fakeVCS) HashObject(_ context.Context, _ RepoContext, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashed = append(f.hashed, append([]byte(nil), content...))
	return strings.Repeat(string(rune('a'+len(f.hashed)-1)), 40), nil
}

func (f *fakeVCS) StageUnmergedEntries(_ context.Context, _ RepoContext, entries []IndexEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stageErr != nil {
		return executionError("update-index", f.stageErr)
	}
	f.staged = append(f.staged, entries...)
	return nil
}

func (f *fakeVCS) UnmergedEntries(context.Context, RepoContext) ([]IndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]IndexEntry(nil), f.staged...), nil
}

func (f *fakeVCS) ResetPathEntries(_ context.Context, _ RepoContext, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, path)
	kept := f.staged[:0]
	for _, e := range f.staged {
		if path != "" && e.Path != path {
			kept = append(kept, e)
		}
	}
	f.staged = kept
	return nil
}

func (f *fakeVCS) ReadHead(context.Context, RepoContext) (string, error) {
	if f.headErr != nil {
		return "", executionError("rev-parse HEAD", f.headErr)
	}
	return strings.Repeat("f", 40), nil
}

func (f *fakeVCS) RunResolutionMemory(_ context.Context, rc RepoContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rereres++
	if f.resolveTo == "" {
		return nil
	}
	for _, e := range f.staged {
		if err := os.WriteFile(rc.WorkPath(e.Path), []byte(f.resolveTo), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeVCS) EnableResolutionMemory(context.Context, RepoContext) error { return nil }
