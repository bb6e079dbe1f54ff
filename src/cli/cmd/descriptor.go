package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/schulle4u/multideck-packager/src/build"
	"github.com/schulle4u/multideck-packager/src/freeze"
	"github.com/schulle4u/multideck-packager/src/platform"
)

var (
	dPlatform string
	dOutput   string
	dCheck    string
	dDebug    bool
)

var descriptorCmd = &cobra.Command{
	Use:   "descriptor",
	Short: "Render the PyInstaller .spec descriptor",
	Long: `Render the folder-mode PyInstaller descriptor from .mdpack.yml.

The descriptor is generated from the same declarations mdpack passes
inline to onefile builds. Use --check to verify a hand-maintained .spec
still matches them.`,
	RunE: runDescriptor,
}

func init() {
	descriptorCmd.Flags().StringVar(&dPlatform, "platform", "", "render for this platform (windows, macos, linux)")
	descriptorCmd.Flags().StringVarP(&dOutput, "output", "o", "", "write to file instead of stdout")
	descriptorCmd.Flags().StringVar(&dCheck, "check", "", "fail if FILE differs from the rendered descriptor")
	descriptorCmd.Flags().BoolVar(&dDebug, "debug", false, "render with a console window")

	rootCmd.AddCommand(descriptorCmd)
}

func runDescriptor(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	c, err := build.NewConfiguration(cfg, build.Flags{Root: root, Platform: dPlatform, Debug: dDebug}, logger)
	if err != nil {
		return err
	}
	o := c.FreezeOptions()
	o.Mode = platform.Folder
	// ROOT inside the descriptor is relative to the file's own location.
	for _, target := range []string{dCheck, dOutput} {
		if target != "" {
			if o.Descriptor, err = filepath.Abs(target); err != nil {
				return err
			}
			break
		}
	}

	var buf bytes.Buffer
	if err := freeze.RenderDescriptor(&buf, o, c.Manifest); err != nil {
		return fmt.Errorf("rendering descriptor: %w", err)
	}

	switch {
	case dCheck != "":
		current, err := os.ReadFile(dCheck)
		if err != nil {
			return fmt.Errorf("reading %s: %w", dCheck, err)
		}
		if !bytes.Equal(current, buf.Bytes()) {
			return fmt.Errorf("%s has drifted from .mdpack.yml; regenerate it with: mdpack descriptor -o %s", dCheck, dCheck)
		}
		fmt.Fprintf(os.Stdout, "%s is up to date\n", dCheck)
		return nil
	case dOutput != "":
		if err := os.WriteFile(dOutput, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dOutput, err)
		}
		return nil
	default:
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
}
