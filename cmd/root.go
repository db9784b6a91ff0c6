package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skillmerge/skillmerge/internal/charm/styles"
	"github.com/skillmerge/skillmerge/internal/config"
	"github.com/skillmerge/skillmerge/internal/log"
	"github.com/skillmerge/skillmerge/internal/model"
)

var rootCmd = &cobra.Command{
	Use:   "skillmerge",
	Short: "Apply updated skill files on top of locally edited copies",
	Long: `skillmerge three-way merges new versions of installed skill files into the copies you have edited.

Conflicting merges are staged the way git merge stages them, so git rerere can record how you
resolved a conflict and replay that resolution the next time the same conflict comes up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var (
	l        = log.New().WithLevel(log.LevelInfo)
	initOnce sync.Once
)

func init() {
	// We want our commands to be sorted in defined order, not alphabetically
	cobra.EnableCommandSorting = false
	if err := config.Load(); err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
}

func Init() {
	rootCmd.PersistentFlags().String("logLevel", config.GetLogLevel(), fmt.Sprintf("the log level (available options: [%s])", strings.Join(log.Levels, ", ")))

	addCommand(rootCmd, applyCmd)
	addCommand(rootCmd, applyPlanCmd)
	addCommand(rootCmd, mergeFileCmd)
	addCommand(rootCmd, cleanupCmd)
	addCommand(rootCmd, statusCmd)
	addCommand(rootCmd, configureCmd)
}

func addCommand(cmd *cobra.Command, command model.Command) {
	c, err := command.Init()
	if err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
	cmd.AddCommand(c)
}

func CmdForTest(version, artifactArch string) *cobra.Command {
	setupRootCmd(version, artifactArch)

	return rootCmd
}

func Execute(version, artifactArch string) {
	setupRootCmd(version, artifactArch)

	if err := rootCmd.Execute(); err != nil {
		l.Error("", zap.Error(err))
		l.WithInteractiveOnly().PrintfStyled(styles.DimmedItalic, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
		os.Exit(1)
	}
}

func setupRootCmd(version, artifactArch string) {
	initOnce.Do(func() {
		rootCmd.Version = version + "\n" + artifactArch
		rootCmd.SilenceErrors = true
		rootCmd.SilenceUsage = true
		rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
			return setLogLevel(cmd)
		}

		Init()
	})
}

func GetRootCommand() *cobra.Command {
	return rootCmd
}

func setLogLevel(cmd *cobra.Command) error {
	logLevel, err := cmd.Flags().GetString("logLevel")
	if err != nil {
		return err
	}
	if !slices.Contains(log.Levels, logLevel) {
		return fmt.Errorf("log level must be one of: %s", strings.Join(log.Levels, ", "))
	}

	l = l.WithLevel(log.Level(logLevel))
	ctx := log.With(cmd.Context(), l)
	cmd.SetContext(ctx)

	return nil
}
