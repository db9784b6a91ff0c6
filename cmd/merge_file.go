package cmd

import (
	"context"

	"github.com/pkg/errors"

	"github.com/skillmerge/skillmerge/internal/merging"
	"github.com/skillmerge/skillmerge/internal/model"
	"github.com/skillmerge/skillmerge/internal/model/flag"
)

type MergeFileFlags struct {
	Current  string `json:"current"`
	Base     string `json:"base"`
	Incoming string `json:"incoming"`
}

var mergeFileCmd = &model.ExecutableCommand[MergeFileFlags]{
	Usage: "merge-file",
	Short: "Three-way merge a single file in place without touching the repository",
	Long: `Merge the changes between base and incoming into current, like git merge-file.
The current file is rewritten in place. Conflicting regions are marked and the command fails.`,
	Run: mergeFileExec,
	Flags: []flag.Flag{
		flag.StringFlag{
			Name:        "current",
			Description: "the file to merge into, rewritten in place",
			Required:    true,
		},
		flag.StringFlag{
			Name:        "base",
			Description: "the common ancestor",
			Required:    true,
		},
		flag.StringFlag{
			Name:        "incoming",
			Description: "the version to merge in",
			Required:    true,
		},
	},
}

func mergeFileExec(ctx context.Context, flags MergeFileFlags) error {
	vcs, err := newVersionControl(ctx)
	if err != nil {
		return err
	}

	res, err := merging.MergeFile(ctx, vcs, merging.MergeInputs{
		CurrentPath:  flags.Current,
		BasePath:     flags.Base,
		IncomingPath: flags.Incoming,
	})
	if err != nil {
		return err
	}

	if !res.Clean {
		return errors.Errorf("%s has %d conflicting region(s)", flags.Current, res.Conflicts())
	}
	return nil
}
