package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/schulle4u/multideck-packager/src/audit"
	"github.com/schulle4u/multideck-packager/src/output"
)

var auditMaxSize int64

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the files that get bundled into the artifact",
	Long: `Inspect every resource entry and packager data tree before it ships:
leaked credentials (gitleaks default rule set), merge conflict markers,
invisible or direction-changing characters, and filenames that collide on
case-insensitive filesystems.

Fails when any critical finding is reported. Warnings are listed only.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().Int64Var(&auditMaxSize, "max-size", audit.DefaultMaxFileSize, "skip files larger than this many bytes")

	rootCmd.AddCommand(auditCmd)
}

// auditSources lists the bundled inputs without duplicates, in config order.
func auditSources() []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, e := range cfg.Resources.Entries {
		add(e.Source)
	}
	for _, d := range cfg.Packager.Data {
		add(d.Source)
	}
	return out
}

func runAudit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	scanner := audit.NewScanner(root)
	scanner.MaxFileSize = auditMaxSize

	color := output.UseColor()
	start := time.Now()
	findings, scanned, err := scanner.Scan(context.Background(), auditSources())
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	critical := audit.Critical(findings)
	status := output.StatusSuccess
	if critical > 0 {
		status = output.StatusFailed
	}

	sec := output.NewSection(os.Stdout, output.Header{Title: "Audit", Status: status, Elapsed: time.Since(start)}, color)
	rows := make([]output.Finding, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, output.Finding{
			File:     f.File,
			Line:     f.Line,
			Check:    f.Check,
			Severity: f.Severity.String(),
			Message:  f.Message,
		})
	}
	output.SectionFindings(sec, rows, color)
	if len(rows) > 0 {
		sec.Separator()
	}
	output.RowStatus(sec, "scanned", fmt.Sprintf("%d files, %d findings, %d critical", scanned, len(rows), critical), status, color)
	sec.Close()

	if critical > 0 {
		return fmt.Errorf("audit: %d critical findings in bundled files", critical)
	}
	return nil
}
