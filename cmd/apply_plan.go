package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillmerge/skillmerge/internal/merging"
	"github.com/skillmerge/skillmerge/internal/model"
	"github.com/skillmerge/skillmerge/internal/model/flag"
	"github.com/skillmerge/skillmerge/internal/utils"
)

type ApplyPlanFlags struct {
	Plan        string `json:"plan"`
	MaxParallel int    `json:"max-parallel"`
	JSON        bool   `json:"json"`
}

var applyPlanCmd = &model.ExecutableCommand[ApplyPlanFlags]{
	Usage: "apply-plan",
	Short: "Apply every skill file listed in a plan",
	Long: `Apply a batch of skill file updates described by a YAML plan:

  files:
    - target: skills/review/SKILL.md
      base: .skills/base/review/SKILL.md
      incoming: .skills/incoming/review/SKILL.md

Relative paths are resolved against the directory containing the plan. Merges run in parallel;
conflicts are staged and offered to git rerere one file at a time.`,
	PreRun: func(_ *cobra.Command, flags *ApplyPlanFlags) error {
		if !utils.HasYAMLExt(flags.Plan) {
			return errors.Errorf("plan %s must be a .yaml or .yml file", flags.Plan)
		}
		return nil
	},
	Run: applyPlanExec,
	Flags: []flag.Flag{
		flag.StringFlag{
			Name:                       "plan",
			Shorthand:                  "p",
			Description:                "path to the plan file",
			Required:                   true,
			AutocompleteFileExtensions: []string{"yaml", "yml"},
		},
		flag.IntFlag{
			Name:        "max-parallel",
			Description: "maximum number of merges to run at once (defaults to max_parallel_merges from the config)",
		},
		flag.BooleanFlag{
			Name:        "json",
			Description: "print the outcomes as JSON",
		},
	},
}

func applyPlanExec(ctx context.Context, flags ApplyPlanFlags) error {
	plan, err := merging.LoadPlan(utils.SanitizeFilePath(flags.Plan))
	if err != nil {
		return err
	}

	vcs, err := newVersionControl(ctx)
	if err != nil {
		return err
	}

	engine, err := newEngine(vcs, flags.MaxParallel)
	if err != nil {
		return err
	}

	outcomes, err := engine.ApplyBatch(ctx, plan.Files)
	if err != nil {
		if len(outcomes) > 0 {
			_ = reportOutcomes(ctx, outcomes, flags.JSON)
		}
		return errors.Wrap(err, "failed to apply plan")
	}

	return reportOutcomes(ctx, outcomes, flags.JSON)
}
