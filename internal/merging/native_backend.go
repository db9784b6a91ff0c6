package merging

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/skillmerge/skillmerge/internal/git"
)

// NativeBackend performs merges in process and edits the repository through go-git.
// Resolution memory has no library implementation, so rerere still runs the git binary.
type NativeBackend struct {
	sessionFiles
	runner git.Runner
	merger *TextMerger
}

var _ VersionControl = (*NativeBackend)(nil)

func NewNativeBackend(runner git.Runner) *NativeBackend {
	return &NativeBackend{
		sessionFiles: newSessionFiles(),
		runner:       runner,
		merger:       NewTextMerger(),
	}
}

func (b *NativeBackend) open(dir string) (*git.Repository, error) {
	repo, err := git.NewLocalRepository(dir)
	if err != nil {
		return nil, err
	}
	if repo.IsNil() || repo.Root() == "" {
		return nil, fmt.Errorf("%s is not inside a git working tree", dir)
	}
	return repo, nil
}

func (b *NativeBackend) IsRepo(_ context.Context, dir string) bool {
	_, err := b.open(dir)
	return err == nil
}

func (b *NativeBackend) ResolveWorkTree(_ context.Context, dir string) (string, error) {
	repo, err := b.open(dir)
	if err != nil {
		return "", executionError("open repository", err)
	}
	root, err := filepath.Abs(repo.Root())
	if err != nil {
		return "", executionError("resolve work tree", err)
	}
	return root, nil
}

func (b *NativeBackend) ResolveStateDir(_ context.Context, dir string) (string, error) {
	repo, err := b.open(dir)
	if err != nil {
		return "", executionError("open repository", err)
	}
	gitDir, err := repo.GitDir()
	if err != nil {
		return "", executionError("resolve state directory", err)
	}
	abs, err := filepath.Abs(gitDir)
	if err != nil {
		return "", executionError("resolve state directory", err)
	}
	return abs, nil
}

func (b *NativeBackend) ThreeWayMerge(ctx context.Context, in MergeInputs) (MergeResult, error) {
	if err := ctx.Err(); err != nil {
		return MergeResult{}, executionError("merge", err)
	}

	current, err := b.fs.ReadFile(in.CurrentPath)
	if err != nil {
		return MergeResult{}, executionError("merge", err)
	}
	base, err := b.fs.ReadFile(in.BasePath)
	if err != nil {
		return MergeResult{}, executionError("merge", err)
	}
	incoming, err := b.fs.ReadFile(in.IncomingPath)
	if err != nil {
		return MergeResult{}, executionError("merge", err)
	}

	merger := *b.merger
	merger.CurrentLabel = in.CurrentPath
	merger.IncomingLabel = in.IncomingPath

	res, err := merger.Merge(base, current, incoming)
	if err != nil {
		return MergeResult{}, executionError("merge", err)
	}

	mode := b.fs.Mode(in.CurrentPath, 0o644)
	if err := b.fs.WriteFile(in.CurrentPath, res.Content, mode); err != nil {
		return MergeResult{}, executionError("merge", err)
	}

	if res.Clean() {
		return cleanResult(), nil
	}
	return conflictResult(min(len(res.Conflicts), maxConflictExitCode)), nil
}

func (b *NativeBackend) HashObject(_ context.Context, rc RepoContext, content []byte) (string, error) {
	repo, err := b.open(rc.WorkingDir)
	if err != nil {
		return "", executionError("hash object", err)
	}
	hash, err := repo.WriteBlob(content)
	if err != nil {
		return "", executionError("hash object", err)
	}
	return hash, nil
}

func (b *NativeBackend) StageUnmergedEntries(_ context.Context, rc RepoContext, entries []IndexEntry) error {
	repo, err := b.open(rc.WorkingDir)
	if err != nil {
		return executionError("stage entries", err)
	}

	byPath := lo.GroupBy(entries, func(e IndexEntry) string { return e.Path })
	for _, path := range lo.Uniq(lo.Map(entries, func(e IndexEntry, _ int) string { return e.Path })) {
		indexPath, err := repo.IndexPath(rc.WorkingDir, path)
		if err != nil {
			return executionError("stage entries", err)
		}
		staged := lo.Map(byPath[path], func(e IndexEntry, _ int) git.IndexEntry {
			return git.IndexEntry{Mode: e.Mode, Hash: e.Hash, Stage: int(e.Stage), Path: indexPath}
		})
		if err := repo.SetUnmergedEntries(indexPath, staged); err != nil {
			return executionError("stage entries", err)
		}
	}
	return nil
}

func (b *NativeBackend) UnmergedEntries(_ context.Context, rc RepoContext) ([]IndexEntry, error) {
	repo, err := b.open(rc.WorkingDir)
	if err != nil {
		return nil, executionError("list unmerged entries", err)
	}
	entries, err := repo.UnmergedEntries()
	if err != nil {
		return nil, executionError("list unmerged entries", err)
	}
	return lo.Map(entries, func(e git.IndexEntry, _ int) IndexEntry {
		return IndexEntry{Mode: e.Mode, Hash: e.Hash, Stage: Stage(e.Stage), Path: e.Path}
	}), nil
}

func (b *NativeBackend) ResetPathEntries(_ context.Context, rc RepoContext, path string) error {
	repo, err := b.open(rc.WorkingDir)
	if err != nil {
		return executionError("reset", err)
	}
	if path == "" {
		if err := repo.ResetIndex(); err != nil {
			return executionError("reset", err)
		}
		return nil
	}

	indexPath, err := repo.IndexPath(rc.WorkingDir, path)
	if err != nil {
		return executionError("reset", err)
	}
	if err := repo.ResetPath(indexPath); err != nil {
		return executionError("reset", err)
	}
	return nil
}

func (b *NativeBackend) ReadHead(_ context.Context, rc RepoContext) (string, error) {
	repo, err := b.open(rc.WorkingDir)
	if err != nil {
		return "", executionError("read HEAD", err)
	}
	head, err := repo.HeadHash()
	if err != nil {
		return "", executionError("read HEAD", err)
	}
	if head == "" {
		return "", executionError("read HEAD", fmt.Errorf("HEAD does not point to a commit"))
	}
	return head, nil
}

func (b *NativeBackend) RunResolutionMemory(ctx context.Context, rc RepoContext) error {
	return runRerere(ctx, b.runner, rc)
}

func (b *NativeBackend) EnableResolutionMemory(_ context.Context, rc RepoContext) error {
	repo, err := b.open(rc.WorkingDir)
	if err != nil {
		return executionError("enable rerere", err)
	}
	if err := repo.SetLocalConfig("rerere", "enabled", "true"); err != nil {
		return executionError("enable rerere", err)
	}
	return nil
}
