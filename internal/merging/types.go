package merging

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// ConflictMarker opens a conflict region. Its presence at the start of a line is the
	// only reliable signal that a working file is still conflicted.
	ConflictMarker = "<<<<<<<"
	separatorMarker = "======="
	closingMarker   = ">>>>>>>"

	RegularFileMode = "100644"

	HeadMarkerName    = "MERGE_HEAD"
	MessageMarkerName = "MERGE_MSG"
	lockFileName      = "skillmerge.lock"
)

// RepoContext locates the repository a merge operates on. The zero value means
// "not inside a repository" and turns every repository operation into a no-op.
type RepoContext struct {
	// WorkingDir is the top level of the working tree. Paths handed to StageConflict,
	// TryAutoResolve and Cleanup are relative to it.
	WorkingDir string
	// StateDir is the absolute path of the repository's internal state directory (.git).
	StateDir string
}

func (rc RepoContext) InRepo() bool {
	return rc.StateDir != ""
}

// StatePath returns the absolute path of name inside the state directory.
func (rc RepoContext) StatePath(name string) string {
	return filepath.Join(rc.StateDir, name)
}

// WorkPath returns the absolute location of a working-tree relative path.
func (rc RepoContext) WorkPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rc.WorkingDir, filepath.FromSlash(path))
}

// RelPath converts path (absolute, or relative to the process working directory) into the
// slash separated form relative to WorkingDir. Symlinks are resolved on both sides so a
// temp directory reached through a link still maps into the working tree.
func (rc RepoContext) RelPath(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(resolveSymlinks(rc.WorkingDir), resolveSymlinks(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// resolveSymlinks resolves path, or only its directory when the file does not exist yet.
func resolveSymlinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(dir, filepath.Base(path))
	}
	return path
}

// MergeInputs names the three files of a merge. CurrentPath is rewritten in place.
type MergeInputs struct {
	CurrentPath  string
	BasePath     string
	IncomingPath string
}

// MergeResult is the outcome of a merge that ran to completion.
// ExitCode is 0 for a clean merge, otherwise the number of conflicting regions.
type MergeResult struct {
	Clean    bool
	ExitCode int
}

func (r MergeResult) Conflicts() int {
	return r.ExitCode
}

func cleanResult() MergeResult {
	return MergeResult{Clean: true}
}

func conflictResult(count int) MergeResult {
	return MergeResult{Clean: false, ExitCode: count}
}

type Stage int

const (
	StageBase   Stage = 1
	StageOurs   Stage = 2
	StageTheirs Stage = 3
)

// IndexEntry is one slot of an unmerged index path.
type IndexEntry struct {
	Mode  string
	Hash  string
	Stage Stage
	Path  string
}

// String renders the entry in `git update-index --index-info` / `git ls-files -u` form.
func (e IndexEntry) String() string {
	return fmt.Sprintf("%s %s %d\t%s", e.Mode, e.Hash, e.Stage, filepath.ToSlash(e.Path))
}

// StagedConflict builds the three stage entries for path. A conflicted path always has
// exactly these three entries, never one or two.
func StagedConflict(path, baseHash, oursHash, theirsHash string) []IndexEntry {
	return []IndexEntry{
		{Mode: RegularFileMode, Hash: baseHash, Stage: StageBase, Path: path},
		{Mode: RegularFileMode, Hash: oursHash, Stage: StageOurs, Path: path},
		{Mode: RegularFileMode, Hash: theirsHash, Stage: StageTheirs, Path: path},
	}
}

// MergeStatus represents the outcome of applying one skill file.
type MergeStatus string

const (
	MergeStatusClean    MergeStatus = "CLEAN"
	MergeStatusConflict MergeStatus = "CONFLICT"
	MergeStatusResolved MergeStatus = "RESOLVED" // conflicted, then replayed from resolution memory
	MergeStatusCreated  MergeStatus = "CREATED"  // target did not exist, incoming written as is
)

// Conflict represents a specific conflict region in a file.
type Conflict struct {
	StartLine int
	EndLine   int
}

// FileOutcome reports what happened to one target file.
type FileOutcome struct {
	Path      string
	Status    MergeStatus
	Conflicts []Conflict
}

func (o FileOutcome) Unresolved() bool {
	return o.Status == MergeStatusConflict
}
