package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/schulle4u/multideck-packager/src/build"
	"github.com/schulle4u/multideck-packager/src/output"
	"github.com/schulle4u/multideck-packager/src/step"
)

var (
	bDebug    bool
	bOneFile  bool
	bClean    bool
	bPlatform string
	bMode     string
	bDryRun   bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Package MultiDeck into a distributable",
	Long: `Package MultiDeck with PyInstaller.

Runs, strictly in order: platform detection, virtual environment check,
dependency synchronization, cleanup of build/ and the previous artifact,
PyInstaller, resource assembly and the build report. The first failing
step stops the run.

Folder builds (default) produce dist/MultiDeck/, or dist/MultiDeck.app on
macOS. --onefile (or --mode onefile) produces a single executable in dist/.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&bDebug, "debug", false, "show a console window in the produced executable")
	buildCmd.Flags().BoolVar(&bOneFile, "onefile", false, "build a single self-extracting executable")
	buildCmd.Flags().BoolVar(&bClean, "clean", false, "also remove the whole output directory and clean.extra")
	buildCmd.Flags().StringVar(&bMode, "mode", "", "packaging mode (folder, onefile)")
	buildCmd.Flags().StringVar(&bPlatform, "platform", "", "override the detected platform (windows, macos, linux)")
	buildCmd.Flags().BoolVar(&bDryRun, "dry-run", false, "show the invocation without changing anything")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	color := output.UseColor()
	w := os.Stdout

	c, err := build.NewConfiguration(cfg, build.Flags{
		Root:     root,
		Platform: bPlatform,
		OneFile:  bOneFile,
		Mode:     bMode,
		Debug:    bDebug,
		Clean:    bClean,
	}, logger)
	if err != nil {
		return err
	}

	output.ContextBlock(w, []output.KV{
		{Key: "app", Value: c.AppName},
		{Key: "version", Value: c.Version},
		{Key: "platform", Value: string(c.Platform)},
		{Key: "mode", Value: string(c.Mode)},
	})

	p := &build.Pipeline{
		Config: c,
		Runner: step.NewExec(verbose, logger),
		Logger: logger,
		Out:    w,
		Color:  color,
		DryRun: bDryRun,
	}
	_, err = p.Run(ctx)
	return err
}
