package merging

import (
	"context"

	"go.uber.org/zap"

	"github.com/skillmerge/skillmerge/internal/log"
)

// Cleanup ends the merge session: both markers are removed and the index entries of path
// are reset from HEAD. An empty path resets the whole index. Reset failures are logged and
// ignored since the path may never have been staged; only marker removal can fail.
// Outside a repository this is a no-op.
func Cleanup(ctx context.Context, vcs VersionControl, rc RepoContext, path string) error {
	if !rc.InRepo() {
		return nil
	}

	if err := vcs.ClearSessionMarkers(ctx, rc); err != nil {
		return err
	}

	if err := vcs.ResetPathEntries(ctx, rc, path); err != nil {
		log.From(ctx).Warn("could not reset index entries", zap.String("path", path), zap.Error(err))
	}

	return nil
}
