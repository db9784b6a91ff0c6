package cmd

import (
	"context"
	"os"

	"github.com/skillmerge/skillmerge/internal/charm/styles"
	"github.com/skillmerge/skillmerge/internal/config"
	"github.com/skillmerge/skillmerge/internal/log"
	"github.com/skillmerge/skillmerge/internal/merging"
	"github.com/skillmerge/skillmerge/internal/model"
	"github.com/skillmerge/skillmerge/internal/model/flag"
)

type StatusFlags struct {
	JSON bool `json:"json"`
}

var statusCmd = &model.ExecutableCommand[StatusFlags]{
	Usage: "status",
	Short: "Show whether a merge session is open and which paths are still unmerged",
	Run:   statusExec,
	Flags: []flag.Flag{
		flag.BooleanFlag{
			Name:        "json",
			Description: "print the status as JSON",
		},
	},
}

type statusReport struct {
	Backend    string `json:"backend"`
	GitVersion string `json:"gitVersion,omitempty"`
	merging.Status
}

func statusExec(ctx context.Context, flags StatusFlags) error {
	vcs, err := newVersionControl(ctx)
	if err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	status, err := merging.Inspect(ctx, vcs, wd)
	if err != nil {
		return err
	}

	report := statusReport{Backend: config.GetBackend(), Status: status}
	if v, err := gitRunner().Version(ctx); err == nil {
		report.GitVersion = v.String()
	}

	out := log.With(ctx, log.From(ctx).WithWriter(os.Stdout))
	if flags.JSON {
		log.PrintValue(out, report, true, nil)
		return nil
	}

	l := log.From(out)
	l.Printf("Backend: %s", report.Backend)
	if report.GitVersion != "" {
		l.Printf("Git: %s", report.GitVersion)
	}
	log.PrintValue(out, status, false, map[string]string{
		"InRepo":         "In repository",
		"WorkingDir":     "Working tree",
		"StateDir":       "State directory",
		"SessionOpen":    "Merge session open",
		"SessionMessage": "Session message",
		"UnmergedPaths":  "Unmerged paths",
	})
	if status.SessionOpen {
		l.Println(styles.RenderWarningMessage("A merge session is open", "Run 'skillmerge cleanup' if no merge is in progress."))
	}
	return nil
}
