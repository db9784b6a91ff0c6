package cmd

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/skillmerge/skillmerge/internal/charm/styles"
	"github.com/skillmerge/skillmerge/internal/config"
	"github.com/skillmerge/skillmerge/internal/git"
	"github.com/skillmerge/skillmerge/internal/log"
	"github.com/skillmerge/skillmerge/internal/merging"
)

var errUnresolvedConflicts = errors.New("unresolved conflicts remain, resolve the conflict markers and re-run")

func gitRunner() git.Runner {
	return git.Runner{
		Binary:  config.GetGitBinary(),
		Timeout: config.GetCommandTimeout(),
	}
}

func newVersionControl(ctx context.Context) (merging.VersionControl, error) {
	runner := gitRunner()
	checkGitVersion(ctx, runner)

	vcs, err := merging.NewVersionControl(config.GetBackend(), runner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create version control backend")
	}
	return vcs, nil
}

// checkGitVersion warns when the git binary is missing or too old. Merging still works
// without it on the native backend; only resolution memory is lost.
func checkGitVersion(ctx context.Context, runner git.Runner) {
	logger := log.From(ctx)

	v, err := runner.Version(ctx)
	if err != nil {
		logger.Warn("git is not available, repository integration is disabled", zap.Error(err))
		return
	}
	if err := git.CheckMinimumVersion(v); err != nil {
		logger.Warnf("%s, the exec backend may not stage conflicts correctly", err)
	}
}

func newEngine(vcs merging.VersionControl, maxParallel int) (*merging.Engine, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	if maxParallel <= 0 {
		maxParallel = config.GetMaxParallelMerges()
	}

	return merging.NewEngine(vcs, wd,
		merging.WithMaxParallel(maxParallel),
		merging.WithResolutionMemory(config.ResolutionMemoryEnabled()),
	), nil
}

// reportOutcomes prints one line per file and fails when any file is still conflicted.
func reportOutcomes(ctx context.Context, outcomes []merging.FileOutcome, asJSON bool) error {
	out := log.From(ctx).WithWriter(os.Stdout)

	if asJSON {
		log.PrintArray(log.With(ctx, out), outcomes, true, nil)
	} else {
		dimmed := out.WithStyle(styles.Dimmed)
		for _, o := range outcomes {
			switch o.Status {
			case merging.MergeStatusConflict:
				out.PrintfStyled(styles.Error, "%s\t%s (%d conflicting region(s))", o.Status, o.Path, len(o.Conflicts))
				for _, c := range o.Conflicts {
					dimmed.Printf("\tlines %d-%d", c.StartLine, c.EndLine)
				}
			case merging.MergeStatusResolved:
				out.PrintfStyled(styles.Success, "%s\t%s (replayed a recorded resolution)", o.Status, o.Path)
			default:
				out.PrintfStyled(styles.Info, "%s\t%s", o.Status, o.Path)
			}
		}
	}

	unresolved := 0
	for _, o := range outcomes {
		if o.Unresolved() {
			unresolved++
		}
	}
	if unresolved > 0 {
		return errors.Wrapf(errUnresolvedConflicts, "%d file(s)", unresolved)
	}
	return nil
}
