package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conflictEntries(t *testing.T, r *Repository, path string) []IndexEntry {
	t.Helper()

	var entries []IndexEntry
	for stage, content := range []string{"base\n", "ours\n", "theirs\n"} {
		hash, err := r.WriteBlob([]byte(content))
		require.NoError(t, err)
		entries = append(entries, IndexEntry{Mode: "100644", Hash: hash, Stage: stage + 1, Path: path})
	}
	return entries
}

func TestWriteBlob_RoundTrip(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	hash, err := r.WriteBlob([]byte("A\nB\nC\n"))
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	content, err := r.GetBlob(hash)
	require.NoError(t, err)
	assert.Equal(t, "A\nB\nC\n", string(content))
}

func TestWriteBlob_EmptyBlobDigest(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	// Same digest as `git hash-object --stdin </dev/null`.
	hash, err := r.WriteBlob(nil)
	require.NoError(t, err)
	assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", hash)
}

func TestSetUnmergedEntries(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)
	entries := conflictEntries(t, r, "README.md")

	require.NoError(t, r.SetUnmergedEntries("README.md", entries))

	unmerged, err := r.UnmergedEntries()
	require.NoError(t, err)
	require.Len(t, unmerged, 3)
	for i, e := range unmerged {
		assert.Equal(t, "README.md", e.Path)
		assert.Equal(t, i+1, e.Stage)
		assert.Equal(t, entries[i].Hash, e.Hash)
		assert.Equal(t, "100644", e.Mode)
	}
}

func TestSetUnmergedEntries_ReplacesPreviousStages(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	require.NoError(t, r.SetUnmergedEntries("README.md", conflictEntries(t, r, "README.md")))
	require.NoError(t, r.SetUnmergedEntries("README.md", conflictEntries(t, r, "README.md")))

	unmerged, err := r.UnmergedEntries()
	require.NoError(t, err)
	assert.Len(t, unmerged, 3)
}

func TestSetUnmergedEntries_RejectsForeignPath(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)
	entries := conflictEntries(t, r, "other.md")

	err := r.SetUnmergedEntries("README.md", entries)
	require.Error(t, err)
}

func TestResetPath_PreservesOtherStagedPaths(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)

	// Stage an unrelated new file the way a user would.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("wip\n"), 0o644))
	wt, err := r.repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("notes.txt")
	require.NoError(t, err)

	require.NoError(t, r.SetUnmergedEntries("README.md", conflictEntries(t, r, "README.md")))
	require.NoError(t, r.ResetPath("README.md"))

	unmerged, err := r.UnmergedEntries()
	require.NoError(t, err)
	assert.Empty(t, unmerged)

	idx, err := r.repo.Storer.Index()
	require.NoError(t, err)

	names := map[string]int{}
	for _, e := range idx.Entries {
		names[e.Name]++
	}
	assert.Equal(t, map[string]int{"README.md": 1, "notes.txt": 1}, names)

	readme, err := idx.Entry("README.md")
	require.NoError(t, err)
	content, err := r.GetBlob(readme.Hash.String())
	require.NoError(t, err)
	assert.Equal(t, "# test\n", string(content))
}

func TestResetPath_UntrackedPathIsDropped(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	require.NoError(t, r.SetUnmergedEntries("new.md", conflictEntries(t, r, "new.md")))
	require.NoError(t, r.ResetPath("new.md"))

	idx, err := r.repo.Storer.Index()
	require.NoError(t, err)
	_, err = idx.Entry("new.md")
	require.Error(t, err)
}

func TestResetIndex(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("wip\n"), 0o644))
	wt, err := r.repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("notes.txt")
	require.NoError(t, err)
	require.NoError(t, r.SetUnmergedEntries("README.md", conflictEntries(t, r, "README.md")))

	require.NoError(t, r.ResetIndex())

	idx, err := r.repo.Storer.Index()
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "README.md", idx.Entries[0].Name)
}

func TestResetIndex_UnbornHead(t *testing.T) {
	t.Parallel()

	r, err := InitLocalRepository(t.TempDir())
	require.NoError(t, err)

	require.Error(t, r.ResetIndex())
}

func TestResetPath_BaseStageMatchingHeadIsNotKept(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	// Stage 1 carries the same blob HEAD has for the path.
	entries := conflictEntries(t, r, "README.md")
	headBlob, err := r.WriteBlob([]byte("# test\n"))
	require.NoError(t, err)
	entries[0].Hash = headBlob

	require.NoError(t, r.SetUnmergedEntries("README.md", entries))

	unmerged, err := r.UnmergedEntries()
	require.NoError(t, err)
	require.Len(t, unmerged, 3)
	assert.Equal(t, 1, unmerged[0].Stage)

	require.NoError(t, r.ResetPath("README.md"))

	unmerged, err = r.UnmergedEntries()
	require.NoError(t, err)
	assert.Empty(t, unmerged)

	idx, err := r.repo.Storer.Index()
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "README.md", idx.Entries[0].Name)
	assert.EqualValues(t, 0, idx.Entries[0].Stage)
}

func TestUnmergedEntries_IgnoresResolvedEntries(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	unmerged, err := r.UnmergedEntries()
	require.NoError(t, err)
	assert.Empty(t, unmerged)
}
