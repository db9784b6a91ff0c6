package merging

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/skillmerge/skillmerge/internal/fs"
)

// sessionFiles manages the MERGE_HEAD / MERGE_MSG markers that tell git a merge is in
// progress. They are plain files in the state directory, shared by every backend.
type sessionFiles struct {
	fs *fs.FileSystem
}

func newSessionFiles() sessionFiles {
	return sessionFiles{fs: fs.NewFileSystem()}
}

func (s sessionFiles) WriteSessionMarkers(_ context.Context, rc RepoContext, head, message string) error {
	if err := s.fs.WriteFile(rc.StatePath(HeadMarkerName), []byte(head+"\n"), 0o644); err != nil {
		return executionError("write "+HeadMarkerName, err)
	}
	if err := s.fs.WriteFile(rc.StatePath(MessageMarkerName), []byte(message+"\n"), 0o644); err != nil {
		return executionError("write "+MessageMarkerName, err)
	}
	return nil
}

// ClearSessionMarkers removes both markers. A missing marker is not an error.
func (s sessionFiles) ClearSessionMarkers(_ context.Context, rc RepoContext) error {
	var result *multierror.Error
	for _, name := range []string{HeadMarkerName, MessageMarkerName} {
		if err := s.fs.RemoveIfExists(rc.StatePath(name)); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return executionError("clear merge session", err)
	}
	return nil
}

func (s sessionFiles) SessionOpen(_ context.Context, rc RepoContext) bool {
	return s.fs.Exists(rc.StatePath(HeadMarkerName))
}
