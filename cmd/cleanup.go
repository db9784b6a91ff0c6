package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/skillmerge/skillmerge/internal/charm/styles"
	"github.com/skillmerge/skillmerge/internal/log"
	"github.com/skillmerge/skillmerge/internal/merging"
	"github.com/skillmerge/skillmerge/internal/model"
	"github.com/skillmerge/skillmerge/internal/model/flag"
)

type CleanupFlags struct {
	Path string `json:"path"`
}

var cleanupCmd = &model.ExecutableCommand[CleanupFlags]{
	Usage: "cleanup",
	Short: "Tear down a merge session left behind by an interrupted run",
	Long: `Remove the MERGE_HEAD and MERGE_MSG markers and reset the index entries of the given path
from HEAD. Without --path the whole index is reset, which also unstages unrelated changes.`,
	Run: cleanupExec,
	Flags: []flag.Flag{
		flag.StringFlag{
			Name:        "path",
			Description: "the file whose index entries should be reset",
		},
	},
}

func cleanupExec(ctx context.Context, flags CleanupFlags) error {
	vcs, err := newVersionControl(ctx)
	if err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	rc := merging.ResolveRepoContext(ctx, vcs, wd)
	if !rc.InRepo() {
		log.From(ctx).Infof("%s is not inside a git repository, nothing to clean up", wd)
		return nil
	}

	path := flags.Path
	if path != "" {
		rel, ok := rc.RelPath(path)
		if !ok {
			return errors.Errorf("%s is outside the repository at %s", path, rc.WorkingDir)
		}
		path = rel
	}

	if err := merging.Cleanup(ctx, vcs, rc, path); err != nil {
		return err
	}

	if path == "" {
		fmt.Println(styles.RenderSuccessMessage("merge session cleared and index reset"))
	} else {
		fmt.Println(styles.RenderSuccessMessage(fmt.Sprintf("merge session cleared and %s reset", path)))
	}
	return nil
}
