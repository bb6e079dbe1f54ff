package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/schulle4u/multideck-packager/src/config"
	"github.com/schulle4u/multideck-packager/src/output"
)

var (
	cfgFile string
	rootDir string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mdpack",
	Short: "Package MultiDeck Audio Player",
	Long:  "mdpack builds self-contained MultiDeck distributables with PyInstaller on Windows, macOS and Linux.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = output.NewLogger(os.Stderr, verbose)

		// Skip config loading for commands that don't need it.
		if cmd.Name() == "version" {
			return nil
		}

		root, err := projectRoot()
		if err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path = filepath.Join(root, ".mdpack.yml")
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		warnings, err := config.Validate(cfg)
		for _, w := range warnings {
			logger.Warn("config", "issue", w)
		}
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <root>/.mdpack.yml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "project root (default: working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// projectRoot resolves --root to an absolute path.
func projectRoot() (string, error) {
	if rootDir != "" {
		return filepath.Abs(rootDir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return wd, nil
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
