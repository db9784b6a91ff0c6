package merging

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skillmerge/skillmerge/internal/concurrency"
	"github.com/skillmerge/skillmerge/internal/env"
	"github.com/skillmerge/skillmerge/internal/fs"
	"github.com/skillmerge/skillmerge/internal/log"
)

const defaultMaxParallel = 10

// SkillFile names the three inputs of one skill file merge. Relative paths are resolved
// against the engine's working directory.
type SkillFile struct {
	Target   string `yaml:"target"`
	Base     string `yaml:"base"`
	Incoming string `yaml:"incoming"`
}

// Engine applies incoming skill files on top of locally edited copies. Merges run in
// parallel; staging, resolution memory and cleanup run one file at a time because they
// share the index and the session markers.
type Engine struct {
	vcs                    VersionControl
	workingDir             string
	fs                     *fs.FileSystem
	maxParallel            int
	enableResolutionMemory bool
	lockDisabled           bool
}

type EngineOption func(*Engine)

func WithMaxParallel(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxParallel = n
		}
	}
}

// WithResolutionMemory turns rerere on in the repository before staging conflicts.
func WithResolutionMemory(enabled bool) EngineOption {
	return func(e *Engine) {
		e.enableResolutionMemory = enabled
	}
}

func WithoutLock() EngineOption {
	return func(e *Engine) {
		e.lockDisabled = true
	}
}

func NewEngine(vcs VersionControl, workingDir string, opts ...EngineOption) *Engine {
	if abs, err := filepath.Abs(workingDir); err == nil {
		workingDir = abs
	}
	e := &Engine{
		vcs:          vcs,
		workingDir:   workingDir,
		fs:           fs.NewFileSystem(),
		maxParallel:  defaultMaxParallel,
		lockDisabled: env.IsConcurrencyLockDisabled(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pendingMerge carries the snapshot of a file taken before the merge rewrote it.
type pendingMerge struct {
	file    SkillFile
	target  string
	base    []byte
	ours    []byte
	theirs  []byte
	created bool
	result  MergeResult
}

// ApplySkillFile merges a single skill file. See ApplyBatch.
func (e *Engine) ApplySkillFile(ctx context.Context, file SkillFile) (FileOutcome, error) {
	outcomes, err := e.ApplyBatch(ctx, []SkillFile{file})
	if len(outcomes) == 0 {
		return FileOutcome{Path: file.Target}, err
	}
	return outcomes[0], err
}

// ApplyBatch merges every file, then stages each conflicted one so rerere can replay a
// recorded resolution, and tears the session down again. Files that stay conflicted keep
// their conflict markers on disk. If any merge fails to run, nothing is staged and every
// target is put back the way it was before the batch.
func (e *Engine) ApplyBatch(ctx context.Context, files []SkillFile) ([]FileOutcome, error) {
	if err := e.validate(files); err != nil {
		return nil, err
	}

	rc := ResolveRepoContext(ctx, e.vcs, e.workingDir)

	if rc.InRepo() && !e.lockDisabled {
		unlock, err := e.lock(ctx, rc)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	if rc.InRepo() && e.enableResolutionMemory {
		if err := e.vcs.EnableResolutionMemory(ctx, rc); err != nil {
			log.From(ctx).Warn("could not enable resolution memory", zap.Error(err))
		}
	}

	pending, err := e.mergeAll(ctx, files)
	if err != nil {
		if rollbackErr := e.rollback(ctx, pending); rollbackErr != nil {
			err = multierror.Append(err, rollbackErr)
		}
		return nil, err
	}

	var errs *multierror.Error
	outcomes := make([]FileOutcome, 0, len(pending))
	for _, p := range pending {
		outcome, err := e.settle(ctx, rc, p)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", p.file.Target, err))
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, errs.ErrorOrNil()
}

func (e *Engine) mergeAll(ctx context.Context, files []SkillFile) ([]*pendingMerge, error) {
	pending := make([]*pendingMerge, len(files))

	var mu sync.Mutex
	var errs *multierror.Error

	g := new(errgroup.Group)
	g.SetLimit(e.maxParallel)
	for i, file := range files {
		g.Go(func() error {
			p, err := e.merge(ctx, file)
			pending[i] = p
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", file.Target, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return pending, errs.ErrorOrNil()
}

func (e *Engine) merge(ctx context.Context, file SkillFile) (*pendingMerge, error) {
	p := &pendingMerge{file: file, target: e.abs(file.Target)}
	incoming := e.abs(file.Incoming)
	base := e.abs(file.Base)

	theirs, err := e.fs.ReadFile(incoming)
	if err != nil {
		return nil, fmt.Errorf("failed to read incoming file: %w", err)
	}
	p.theirs = theirs

	if !e.fs.Exists(p.target) {
		if err := e.fs.MkdirAll(filepath.Dir(p.target), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		if err := e.fs.WriteFile(p.target, theirs, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write new file: %w", err)
		}
		p.created = true
		return p, nil
	}

	// Snapshot both sides before the merge rewrites the target in place.
	if p.ours, err = e.fs.ReadFile(p.target); err != nil {
		return nil, fmt.Errorf("failed to read current file: %w", err)
	}
	if p.base, err = e.fs.ReadFile(base); err != nil {
		return nil, fmt.Errorf("failed to read base file: %w", err)
	}

	p.result, err = MergeFile(ctx, e.vcs, MergeInputs{
		CurrentPath:  p.target,
		BasePath:     base,
		IncomingPath: incoming,
	})
	if err != nil {
		// The target may already be rewritten; hand the snapshot back for rollback.
		return p, err
	}
	return p, nil
}

// rollback restores every target touched by an aborted batch: merged files get their
// snapshot back and created files are removed.
func (e *Engine) rollback(ctx context.Context, pending []*pendingMerge) error {
	var errs *multierror.Error
	for _, p := range pending {
		if p == nil {
			continue
		}
		if p.created {
			if err := e.fs.RemoveIfExists(p.target); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("failed to remove %s: %w", p.file.Target, err))
			}
			continue
		}
		mode := e.fs.Mode(p.target, 0o644)
		if err := e.fs.WriteFile(p.target, p.ours, mode); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to restore %s: %w", p.file.Target, err))
			continue
		}
		log.From(ctx).Warn("restored file after the batch was aborted", zap.String("path", p.file.Target))
	}
	return errs.ErrorOrNil()
}

func (e *Engine) settle(ctx context.Context, rc RepoContext, p *pendingMerge) (outcome FileOutcome, err error) {
	outcome = FileOutcome{Path: p.file.Target}
	switch {
	case p.created:
		outcome.Status = MergeStatusCreated
		return outcome, nil
	case p.result.Clean:
		outcome.Status = MergeStatusClean
		return outcome, nil
	}

	outcome.Status = MergeStatusConflict
	if merged, readErr := e.fs.ReadFile(p.target); readErr == nil {
		outcome.Conflicts = ParseConflictMarkers(merged)
	}

	if !rc.InRepo() {
		return outcome, nil
	}

	l := log.From(ctx).With(zap.String("path", p.file.Target))

	path, ok := rc.RelPath(p.target)
	if !ok {
		l.Warn("file is outside the repository, leaving conflict markers for manual resolution")
		return outcome, nil
	}

	defer func() {
		if cleanupErr := Cleanup(ctx, e.vcs, rc, path); cleanupErr != nil {
			err = multierror.Append(err, cleanupErr).ErrorOrNil()
		}
	}()

	if err := StageConflict(ctx, e.vcs, rc, path, p.base, p.ours, p.theirs); err != nil {
		return outcome, err
	}

	if TryAutoResolve(ctx, e.vcs, rc, path) {
		outcome.Status = MergeStatusResolved
		outcome.Conflicts = nil
	}

	return outcome, nil
}

func (e *Engine) lock(ctx context.Context, rc RepoContext) (func(), error) {
	mu, err := concurrency.New(rc.StatePath(lockFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to create repository lock: %w", err)
	}
	if err := mu.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire repository lock %s: %w", mu.Path(), err)
	}
	return func() {
		if err := mu.Unlock(); err != nil {
			log.From(ctx).Warn("failed to release repository lock", zap.Error(err))
		}
	}, nil
}

func (e *Engine) validate(files []SkillFile) error {
	var errs *multierror.Error
	for i, f := range files {
		if f.Target == "" || f.Base == "" || f.Incoming == "" {
			errs = multierror.Append(errs, fmt.Errorf("entry %d: target, base and incoming are required", i))
		}
	}
	targets := lo.Map(files, func(f SkillFile, _ int) string { return e.abs(f.Target) })
	for _, dup := range lo.FindDuplicates(targets) {
		errs = multierror.Append(errs, fmt.Errorf("%s is listed more than once", dup))
	}
	return errs.ErrorOrNil()
}

func (e *Engine) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.workingDir, path)
}
