package output

import (
	"fmt"
	"strings"
)

// ArtifactReport describes the finished artifact.
type ArtifactReport struct {
	Path       string
	Layout     string // "flat" or "bundle"
	Executable string
	Size       string // human-readable; empty when measurement failed
	Entries    int    // files and directories inside a folder artifact
	Locales    []string
	Resources  int // ancillary resources copied
}

// SectionArtifact renders the build report rows.
func SectionArtifact(sec *Section, r ArtifactReport, color bool) {
	sec.Row("%-14s %s", "artifact", colorize(r.Path, colorBold, color))
	sec.Row("%-14s %s", "layout", r.Layout)
	if r.Executable != "" {
		sec.Row("%-14s %s", "executable", r.Executable)
	}
	if r.Size != "" {
		sec.Row("%-14s %s", "size", r.Size)
	} else {
		sec.Row("%-14s %s", "size", Dimmed("unknown", color))
	}
	if r.Entries > 0 {
		sec.Row("%-14s %d", "entries", r.Entries)
	}
	if len(r.Locales) > 0 {
		sec.Row("%-14s %s", "locales", strings.Join(r.Locales, ", "))
	}
	sec.Row("%-14s %d", "resources", r.Resources)
}

// Finding is one audit hit.
type Finding struct {
	File     string
	Line     int
	Check    string
	Severity string // "critical", "warning" or "info"
	Message  string
}

// SectionFindings renders findings inside a section, one row each, in the
// order given.
func SectionFindings(sec *Section, findings []Finding, color bool) {
	for _, f := range findings {
		loc := f.File
		if f.Line > 0 {
			loc = fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		sec.Row("%s  %s  %s  %s",
			colorize(loc, colorBold, color),
			severityLabel(f.Severity, color),
			colorize(f.Check, colorCyan, color),
			f.Message)
	}
}

func severityLabel(s string, color bool) string {
	switch s {
	case "critical":
		return colorize(s, colorRed, color)
	case "warning":
		return colorize(s, colorYellow, color)
	}
	return s
}
