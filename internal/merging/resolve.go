package merging

import (
	"context"

	"go.uber.org/zap"

	"github.com/skillmerge/skillmerge/internal/fs"
	"github.com/skillmerge/skillmerge/internal/log"
)

// TryAutoResolve runs git's resolution memory against the staged conflict and reports
// whether path is now free of conflict markers. Any failure yields false.
func TryAutoResolve(ctx context.Context, vcs VersionControl, rc RepoContext, path string) bool {
	if !rc.InRepo() {
		return false
	}

	l := log.From(ctx).With(zap.String("path", path))

	if err := vcs.RunResolutionMemory(ctx, rc); err != nil {
		l.Warn("resolution memory failed", zap.Error(err))
		return false
	}

	content, err := fs.NewFileSystem().ReadFile(rc.WorkPath(path))
	if err != nil {
		l.Warn("could not read file after resolution memory", zap.Error(err))
		return false
	}

	if HasConflictMarker(content) {
		return false
	}

	l.Success("conflict resolved from resolution memory")
	return true
}
