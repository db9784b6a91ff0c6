package merging

import (
	"context"
	"strings"

	"github.com/samber/lo"
)

// Status describes the merge state of a repository.
type Status struct {
	InRepo         bool     `json:"inRepo"`
	WorkingDir     string   `json:"workingDir,omitempty"`
	StateDir       string   `json:"stateDir,omitempty"`
	SessionOpen    bool     `json:"sessionOpen"`
	SessionMessage string   `json:"sessionMessage,omitempty"`
	UnmergedPaths  []string `json:"unmergedPaths,omitempty"`
}

// Inspect reports whether a merge session is open in the repository containing workingDir
// and which paths still have unmerged index entries.
func Inspect(ctx context.Context, vcs VersionControl, workingDir string) (Status, error) {
	rc := ResolveRepoContext(ctx, vcs, workingDir)
	if !rc.InRepo() {
		return Status{}, nil
	}

	status := Status{
		InRepo:      true,
		WorkingDir:  rc.WorkingDir,
		StateDir:    rc.StateDir,
		SessionOpen: vcs.SessionOpen(ctx, rc),
	}

	if status.SessionOpen {
		if msg, err := newSessionFiles().fs.ReadFile(rc.StatePath(MessageMarkerName)); err == nil {
			status.SessionMessage = strings.TrimSpace(string(msg))
		}
	}

	entries, err := vcs.UnmergedEntries(ctx, rc)
	if err != nil {
		return status, err
	}
	status.UnmergedPaths = lo.Uniq(lo.Map(entries, func(e IndexEntry, _ int) string { return e.Path }))

	return status, nil
}
