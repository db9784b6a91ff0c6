package merging

import (
	"context"
	"fmt"

	"github.com/skillmerge/skillmerge/internal/git"
)

// VersionControl is the adapter over the repository primitives a skill merge needs.
// Implementations report failures of the underlying invocation as *ExecutionError.
type VersionControl interface {
	// IsRepo reports whether dir lies inside a working tree.
	IsRepo(ctx context.Context, dir string) bool
	// ResolveWorkTree returns the absolute top level of the working tree containing dir.
	ResolveWorkTree(ctx context.Context, dir string) (string, error)
	// ResolveStateDir returns the absolute internal state directory of the repository containing dir.
	ResolveStateDir(ctx context.Context, dir string) (string, error)

	// ThreeWayMerge merges in place into in.CurrentPath. Conflicts are not errors.
	ThreeWayMerge(ctx context.Context, in MergeInputs) (MergeResult, error)

	// HashObject stores content in the object database and returns its identifier.
	HashObject(ctx context.Context, rc RepoContext, content []byte) (string, error)
	// StageUnmergedEntries replaces the index entries of every path named in entries.
	StageUnmergedEntries(ctx context.Context, rc RepoContext, entries []IndexEntry) error
	// UnmergedEntries lists every index entry with a non-zero stage.
	UnmergedEntries(ctx context.Context, rc RepoContext) ([]IndexEntry, error)
	// ResetPathEntries restores the index entries of path from HEAD, or the whole index when path is "".
	ResetPathEntries(ctx context.Context, rc RepoContext, path string) error
	// ReadHead returns the commit HEAD points to.
	ReadHead(ctx context.Context, rc RepoContext) (string, error)

	WriteSessionMarkers(ctx context.Context, rc RepoContext, head, message string) error
	ClearSessionMarkers(ctx context.Context, rc RepoContext) error
	SessionOpen(ctx context.Context, rc RepoContext) bool

	// RunResolutionMemory records the current conflicts and replays known resolutions (git rerere).
	RunResolutionMemory(ctx context.Context, rc RepoContext) error
	// EnableResolutionMemory turns rerere on in the repository's local config.
	EnableResolutionMemory(ctx context.Context, rc RepoContext) error
}

const (
	BackendExec   = "exec"
	BackendNative = "native"
)

// NewVersionControl returns the backend registered under name. Both backends use runner for
// the git invocations they make.
func NewVersionControl(name string, runner git.Runner) (VersionControl, error) {
	switch name {
	case BackendExec, "":
		return NewExecBackend(runner), nil
	case BackendNative:
		return NewNativeBackend(runner), nil
	default:
		return nil, fmt.Errorf("unknown version control backend %q", name)
	}
}
