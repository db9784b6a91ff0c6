package cmd

import (
	"context"

	"github.com/skillmerge/skillmerge/internal/merging"
	"github.com/skillmerge/skillmerge/internal/model"
	"github.com/skillmerge/skillmerge/internal/model/flag"
	"github.com/skillmerge/skillmerge/internal/utils"
)

type ApplyFlags struct {
	Target   string `json:"target"`
	Base     string `json:"base"`
	Incoming string `json:"incoming"`
	JSON     bool   `json:"json"`
}

var applyCmd = &model.ExecutableCommand[ApplyFlags]{
	Usage: "apply",
	Short: "Apply a new version of a skill file on top of the local copy",
	Long: `Three-way merge the incoming version of a skill file into the local copy.

If the merge conflicts inside a git repository the conflict is staged so that git rerere can
replay a resolution recorded earlier. Otherwise the file is left with conflict markers and the
command exits with an error. A missing local copy is created from the incoming version.`,
	Run: applyExec,
	Flags: []flag.Flag{
		flag.StringFlag{
			Name:        "target",
			Shorthand:   "t",
			Description: "the locally edited skill file to update",
			Required:    true,
		},
		flag.StringFlag{
			Name:        "base",
			Shorthand:   "b",
			Description: "the version the local copy was originally installed from",
			Required:    true,
		},
		flag.StringFlag{
			Name:        "incoming",
			Shorthand:   "i",
			Description: "the new version of the skill file",
			Required:    true,
		},
		flag.BooleanFlag{
			Name:        "json",
			Description: "print the outcome as JSON",
		},
	},
}

func applyExec(ctx context.Context, flags ApplyFlags) error {
	vcs, err := newVersionControl(ctx)
	if err != nil {
		return err
	}

	engine, err := newEngine(vcs, 1)
	if err != nil {
		return err
	}

	outcome, err := engine.ApplySkillFile(ctx, merging.SkillFile{
		Target:   utils.SanitizeFilePath(flags.Target),
		Base:     utils.SanitizeFilePath(flags.Base),
		Incoming: utils.SanitizeFilePath(flags.Incoming),
	})
	if err != nil {
		return err
	}

	return reportOutcomes(ctx, []merging.FileOutcome{outcome}, flags.JSON)
}
