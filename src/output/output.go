// Package output renders mdpack's terminal output: framed step sections,
// status icons, the artifact report and the leveled logger.
package output

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schulle4u/multideck-packager/src/step"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
	colorHeader = "\033[2;36m" // dim cyan
)

// Step statuses understood by StatusIcon.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}

// NewLogger returns a text logger on w; verbose lowers the level to debug.
// Timestamps are dropped because every line already sits under a timed
// section.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RowStatus writes a row with label, detail, and a status icon.
func RowStatus(sec *Section, label, detail, status string, color bool) {
	icon := StatusIcon(status, color)
	if detail != "" {
		sec.Row("%-14s %s %s", label, detail, icon)
	} else {
		sec.Row("%-14s %s", label, icon)
	}
}

// Warn writes a highlighted warning row.
func Warn(sec *Section, color bool, format string, args ...any) {
	sec.Row("%s%s", colorize("warning: ", colorYellow, color), fmt.Sprintf(format, args...))
}

// Failure writes a failed step's diagnostic. Classified errors render their
// kind, cause and remediation hint on separate rows.
func Failure(sec *Section, err error, color bool) {
	prefix := colorize("error: ", colorRed, color)
	var se *step.Error
	if !errors.As(err, &se) {
		sec.Row("%s%v", prefix, err)
		return
	}
	sec.Row("%s%s: %v", prefix, se.Kind, se.Err)
	if se.Hint != "" {
		sec.Row("hint:  %s", se.Hint)
	}
}

func colorize(text, code string, color bool) string {
	if !color {
		return text
	}
	return code + text + colorReset
}
