package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/schulle4u/multideck-packager/src/i18n"
	"github.com/schulle4u/multideck-packager/src/output"
	"github.com/schulle4u/multideck-packager/src/platform"
	"github.com/schulle4u/multideck-packager/src/step"
)

var trJobs int

var translationsCmd = &cobra.Command{
	Use:   "translations",
	Short: "Manage the gettext catalogs",
}

var translationsCompileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile every .po catalog to .mo with msgfmt",
	RunE:  runTranslationsCompile,
}

var translationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalogs and their language tags",
	RunE:  runTranslationsList,
}

func init() {
	translationsCompileCmd.Flags().IntVarP(&trJobs, "jobs", "j", 0, "concurrent msgfmt processes (default: translations.jobs)")

	translationsCmd.AddCommand(translationsCompileCmd)
	translationsCmd.AddCommand(translationsListCmd)
	rootCmd.AddCommand(translationsCmd)
}

func localeDir() (string, error) {
	root, err := projectRoot()
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(cfg.Translations.Dir) {
		return cfg.Translations.Dir, nil
	}
	return filepath.Join(root, cfg.Translations.Dir), nil
}

func runTranslationsCompile(cmd *cobra.Command, args []string) error {
	dir, err := localeDir()
	if err != nil {
		return err
	}
	catalogs, err := i18n.Discover(dir)
	if err != nil {
		return err
	}
	if len(catalogs) == 0 {
		return fmt.Errorf("no .po files found in %s", dir)
	}

	jobs := cfg.Translations.Jobs
	if trJobs > 0 {
		jobs = trJobs
	}
	host, _ := platform.Detect(runtime.GOOS)
	runner := step.NewExec(verbose, logger)

	color := output.UseColor()
	start := time.Now()
	results, err := (&i18n.Compiler{
		Runner:   runner,
		Platform: host,
		Jobs:     jobs,
		Logger:   logger,
	}).Compile(context.Background(), catalogs)

	status := output.StatusSuccess
	if err != nil {
		status = output.StatusFailed
	}
	sec := output.NewSection(os.Stdout, output.Header{Title: "Translations", Status: status, Elapsed: time.Since(start)}, color)
	if len(results) == 0 && err != nil {
		output.Failure(sec, err, color)
		sec.Close()
		return err
	}
	compiled := 0
	for _, r := range results {
		status, detail := output.StatusSuccess, relTo(dir, r.Catalog.MO)
		if r.Err != nil {
			status, detail = output.StatusFailed, r.Err.Error()
		} else {
			compiled++
		}
		output.RowStatus(sec, r.Catalog.Lang, detail, status, color)
	}
	sec.Separator()
	sec.Row("%d/%d compiled", compiled, len(results))
	sec.Close()
	return err
}

func runTranslationsList(cmd *cobra.Command, args []string) error {
	dir, err := localeDir()
	if err != nil {
		return err
	}
	catalogs, err := i18n.Discover(dir)
	if err != nil {
		return err
	}
	for _, c := range catalogs {
		compiled := "missing"
		if _, statErr := os.Stat(c.MO); statErr == nil {
			compiled = "compiled"
		}
		fmt.Printf("%-10s %-10s %-9s %s\n", c.Lang, c.Tag.String(), compiled, relTo(dir, c.PO))
	}
	return nil
}

func relTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
