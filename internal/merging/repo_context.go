package merging

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/skillmerge/skillmerge/internal/log"
)

// ResolveRepoContext locates the repository containing workingDir. Outside a repository,
// or when the repository cannot be inspected, it returns the zero RepoContext.
func ResolveRepoContext(ctx context.Context, vcs VersionControl, workingDir string) RepoContext {
	dir, err := filepath.Abs(workingDir)
	if err != nil {
		dir = workingDir
	}

	if !vcs.IsRepo(ctx, dir) {
		return RepoContext{}
	}

	root, err := vcs.ResolveWorkTree(ctx, dir)
	if err != nil {
		log.From(ctx).Warn("could not resolve working tree, continuing without repository", zap.Error(err))
		return RepoContext{}
	}
	stateDir, err := vcs.ResolveStateDir(ctx, dir)
	if err != nil {
		log.From(ctx).Warn("could not resolve state directory, continuing without repository", zap.Error(err))
		return RepoContext{}
	}

	return RepoContext{WorkingDir: root, StateDir: stateDir}
}
