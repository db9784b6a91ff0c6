package merging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/skillmerge/skillmerge/internal/log"
)

// StageConflict makes path look like the result of a conflicted `git merge`: the base, ours
// and theirs contents are written as stage 1, 2 and 3 index entries and the MERGE_HEAD /
// MERGE_MSG session markers are created. A session left over from an interrupted run is
// torn down first. Outside a repository this is a no-op.
func StageConflict(ctx context.Context, vcs VersionControl, rc RepoContext, path string, base, ours, theirs []byte) error {
	if !rc.InRepo() {
		return nil
	}

	l := log.From(ctx).With(zap.String("path", path))

	if vcs.SessionOpen(ctx, rc) {
		l.Warn("found a stale merge session, cleaning up before staging")
		if err := Cleanup(ctx, vcs, rc, path); err != nil {
			return err
		}
	}

	head, err := vcs.ReadHead(ctx, rc)
	if err != nil {
		return err
	}

	hashes := make([]string, 0, 3)
	for _, content := range [][]byte{base, ours, theirs} {
		hash, err := vcs.HashObject(ctx, rc, content)
		if err != nil {
			return err
		}
		hashes = append(hashes, hash)
	}

	if err := vcs.StageUnmergedEntries(ctx, rc, StagedConflict(path, hashes[0], hashes[1], hashes[2])); err != nil {
		return err
	}

	if err := vcs.WriteSessionMarkers(ctx, rc, head, SessionMessage(path)); err != nil {
		return err
	}

	l.Info("staged conflict")
	return nil
}

// SessionMessage is the MERGE_MSG content (without trailing newline) for a staged path.
func SessionMessage(path string) string {
	return fmt.Sprintf("Skill merge: %s", path)
}
