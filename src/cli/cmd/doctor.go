package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/schulle4u/multideck-packager/src/build"
	"github.com/schulle4u/multideck-packager/src/output"
	"github.com/schulle4u/multideck-packager/src/step"
)

var docPlatform string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the project is ready to package",
	Long: `Check the virtual environment, declared dependencies, every hidden
import, gettext tools and optional inputs without installing or removing
anything.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&docPlatform, "platform", "", "check for this platform (windows, macos, linux)")

	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	c, err := build.NewConfiguration(cfg, build.Flags{Root: root, Platform: docPlatform}, logger)
	if err != nil {
		return err
	}

	color := output.UseColor()
	runner := step.NewExec(verbose, logger)
	// pip listings and import tracebacks are summarized by the checks.
	runner.Stdout = io.Discard
	runner.Stderr = io.Discard

	start := time.Now()
	checks, runErr := (&build.Doctor{Config: c, Runner: runner, Logger: logger}).Run(context.Background())

	status := output.StatusSuccess
	if runErr != nil {
		status = output.StatusFailed
	}
	sec := output.NewSection(os.Stdout, output.Header{Title: "Doctor", Status: status, Elapsed: time.Since(start)}, color)
	for _, ch := range checks {
		output.RowStatus(sec, ch.Name, ch.Detail, ch.Status, color)
		if ch.Hint != "" && ch.Status != output.StatusSuccess {
			sec.Row("%-14s %s", "", output.Dimmed(ch.Hint, color))
		}
	}
	sec.Close()
	return runErr
}
