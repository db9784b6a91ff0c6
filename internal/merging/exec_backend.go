package merging

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/skillmerge/skillmerge/internal/git"
)

// git merge-file exits with the number of conflicts, capped at 127. Anything above is an error.
const maxConflictExitCode = 127

const nullHash = "0000000000000000000000000000000000000000"

// ExecBackend drives every primitive through the native git binary.
type ExecBackend struct {
	sessionFiles
	runner git.Runner
}

var _ VersionControl = (*ExecBackend)(nil)

func NewExecBackend(runner git.Runner) *ExecBackend {
	return &ExecBackend{
		sessionFiles: newSessionFiles(),
		runner:       runner,
	}
}

func (b *ExecBackend) IsRepo(ctx context.Context, dir string) bool {
	out, err := b.runner.Run(ctx, dir, nil, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

func (b *ExecBackend) ResolveWorkTree(ctx context.Context, dir string) (string, error) {
	out, err := b.runner.Run(ctx, dir, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", executionError("rev-parse --show-toplevel", err)
	}
	return filepath.FromSlash(strings.TrimSpace(out)), nil
}

// ResolveStateDir resolves `git rev-parse --git-dir`, which is relative to dir unless git
// decides to print an absolute path.
func (b *ExecBackend) ResolveStateDir(ctx context.Context, dir string) (string, error) {
	out, err := b.runner.Run(ctx, dir, nil, "rev-parse", "--git-dir")
	if err != nil {
		return "", executionError("rev-parse --git-dir", err)
	}
	stateDir := filepath.FromSlash(strings.TrimSpace(out))
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(dir, stateDir)
	}
	abs, err := filepath.Abs(stateDir)
	if err != nil {
		return "", executionError("resolve state directory", err)
	}
	return abs, nil
}

func (b *ExecBackend) ThreeWayMerge(ctx context.Context, in MergeInputs) (MergeResult, error) {
	_, err := b.runner.Run(ctx, "", nil, "merge-file", in.CurrentPath, in.BasePath, in.IncomingPath)
	if err == nil {
		return cleanResult(), nil
	}

	code, ok := git.ExitCode(err)
	if ok && code > 0 && code <= maxConflictExitCode {
		return conflictResult(code), nil
	}
	return MergeResult{}, executionError("merge-file", err)
}

func (b *ExecBackend) HashObject(ctx context.Context, rc RepoContext, content []byte) (string, error) {
	out, err := b.runner.Run(ctx, rc.WorkingDir, bytes.NewReader(content), "hash-object", "-w", "--stdin")
	if err != nil {
		return "", executionError("hash-object", err)
	}
	return strings.TrimSpace(out), nil
}

// StageUnmergedEntries feeds `git update-index --index-info`. Each path is first removed
// with a mode 0 line, otherwise a stage 0 entry would survive next to the new stages.
func (b *ExecBackend) StageUnmergedEntries(ctx context.Context, rc RepoContext, entries []IndexEntry) error {
	var sb strings.Builder
	for _, path := range lo.Uniq(lo.Map(entries, func(e IndexEntry, _ int) string { return e.Path })) {
		fmt.Fprintf(&sb, "0 %s\t%s\n", nullHash, filepath.ToSlash(path))
	}
	for _, e := range entries {
		sb.WriteString(e.String())
		sb.WriteString("\n")
	}

	if _, err := b.runner.Run(ctx, rc.WorkingDir, strings.NewReader(sb.String()), "update-index", "--index-info"); err != nil {
		return executionError("update-index --index-info", err)
	}
	return nil
}

func (b *ExecBackend) UnmergedEntries(ctx context.Context, rc RepoContext) ([]IndexEntry, error) {
	out, err := b.runner.Run(ctx, rc.WorkingDir, nil, "ls-files", "-u", "--full-name")
	if err != nil {
		return nil, executionError("ls-files -u", err)
	}

	var entries []IndexEntry
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if line == "" {
			continue
		}
		entry, err := ParseIndexEntry(line)
		if err != nil {
			return nil, executionError("ls-files -u", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (b *ExecBackend) ResetPathEntries(ctx context.Context, rc RepoContext, path string) error {
	args := []string{"reset", "-q"}
	if path != "" {
		args = append(args, "--", path)
	}
	if _, err := b.runner.Run(ctx, rc.WorkingDir, nil, args...); err != nil {
		return executionError("reset", err)
	}
	return nil
}

func (b *ExecBackend) ReadHead(ctx context.Context, rc RepoContext) (string, error) {
	out, err := b.runner.Run(ctx, rc.WorkingDir, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", executionError("rev-parse HEAD", err)
	}
	return strings.TrimSpace(out), nil
}

func (b *ExecBackend) RunResolutionMemory(ctx context.Context, rc RepoContext) error {
	return runRerere(ctx, b.runner, rc)
}

func (b *ExecBackend) EnableResolutionMemory(ctx context.Context, rc RepoContext) error {
	if _, err := b.runner.Run(ctx, rc.WorkingDir, nil, "config", "rerere.enabled", "true"); err != nil {
		return executionError("config rerere.enabled", err)
	}
	return nil
}

func runRerere(ctx context.Context, runner git.Runner, rc RepoContext) error {
	if _, err := runner.Run(ctx, rc.WorkingDir, nil, "rerere"); err != nil {
		return executionError("rerere", err)
	}
	return nil
}

// ParseIndexEntry parses one "<mode> <hash> <stage>\t<path>" line.
func ParseIndexEntry(line string) (IndexEntry, error) {
	meta, path, ok := strings.Cut(line, "\t")
	if !ok {
		return IndexEntry{}, fmt.Errorf("malformed index entry %q", line)
	}
	fields := strings.Fields(meta)
	if len(fields) != 3 {
		return IndexEntry{}, fmt.Errorf("malformed index entry %q", line)
	}
	stage, err := strconv.Atoi(fields[2])
	if err != nil || stage < 0 || stage > 3 {
		return IndexEntry{}, fmt.Errorf("invalid stage in index entry %q", line)
	}
	return IndexEntry{
		Mode:  fields[0],
		Hash:  fields[1],
		Stage: Stage(stage),
		Path:  path,
	}, nil
}
