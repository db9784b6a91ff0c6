package cmd

import (
	"context"
	"fmt"

	"github.com/skillmerge/skillmerge/internal/charm/styles"
	"github.com/skillmerge/skillmerge/internal/config"
	"github.com/skillmerge/skillmerge/internal/model"
	"github.com/skillmerge/skillmerge/internal/model/flag"
)

var configureCmd = &model.CommandGroup{
	Usage:    "configure",
	Short:    "Configure skillmerge.",
	Long:     "Persist settings to ~/.skillmerge/config.yaml. Every setting can also be overridden with a SKILLMERGE_ environment variable.",
	Commands: []model.Command{configureBackendCmd},
}

type ConfigureBackendFlags struct {
	Backend string `json:"backend"`
}

var configureBackendCmd = &model.ExecutableCommand[ConfigureBackendFlags]{
	Usage: "backend",
	Short: "Choose how repository operations are performed.",
	Long: `exec runs the git binary for every operation.
native merges in process and edits the index through go-git; git is still used for rerere.`,
	Run: configureBackendExec,
	Flags: []flag.Flag{
		flag.EnumFlag{
			Name:          "backend",
			Description:   "the version control backend",
			Required:      true,
			AllowedValues: config.Backends,
		},
	},
}

func configureBackendExec(_ context.Context, flags ConfigureBackendFlags) error {
	if err := config.SetBackend(flags.Backend); err != nil {
		return err
	}

	fmt.Println(styles.RenderSuccessMessage(fmt.Sprintf("backend set to %s", flags.Backend)))
	return nil
}
