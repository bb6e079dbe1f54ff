package output

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// frameWidth is the number of rule characters after the frame corner.
const frameWidth = 61

// Header is the title line of a Section.
type Header struct {
	Title   string
	Status  string        // StatusSuccess, StatusFailed or StatusSkipped; "" shows no icon
	Elapsed time.Duration // 0 hides the timer
}

// Section is one framed block of output: a header naming the step and its
// outcome, indented rows, and a closing rule.
type Section struct {
	w io.Writer
}

// NewSection writes h and returns the section for its rows.
func NewSection(w io.Writer, h Header, color bool) *Section {
	fmt.Fprintf(w, "\n    %s\n", h.render(color))
	return &Section{w: w}
}

// Row writes one line inside the frame.
func (s *Section) Row(format string, args ...any) {
	fmt.Fprintf(s.w, "    │ %s\n", fmt.Sprintf(format, args...))
}

// Separator writes a divider inside the frame.
func (s *Section) Separator() { s.rule("├") }

// Close writes the closing rule.
func (s *Section) Close() { s.rule("└") }

func (s *Section) rule(corner string) {
	fmt.Fprintf(s.w, "    %s%s\n", corner, strings.Repeat("─", frameWidth))
}

// render lays the header out as
//
//	── ✓ Title ───────────────────────── 1.5s ──
//
// padded to the frame width. Widths are counted in runes, before color.
func (h Header) render(color bool) string {
	left := "── "
	if h.Status != "" {
		left += StatusIcon(h.Status, false) + " "
	}
	left += h.Title + " "
	right := "──"
	if h.Elapsed > 0 {
		right = " " + formatElapsed(h.Elapsed) + " ──"
	}

	fill := max(frameWidth+1-utf8.RuneCountInString(left)-utf8.RuneCountInString(right), 1)
	line := strings.Repeat("─", fill)
	if !color || h.Status == "" {
		return colorize(left+line+right, colorHeader, color)
	}
	return colorize("── ", colorHeader, true) + StatusIcon(h.Status, true) +
		colorize(" "+h.Title+" "+line+right, colorHeader, true)
}

// StatusIcon returns the icon for a step status, colored when color is set.
func StatusIcon(status string, color bool) string {
	icon, code := "⊘", colorYellow
	switch status {
	case StatusSuccess:
		icon, code = "✓", colorGreen
	case StatusFailed:
		icon, code = "✗", colorRed
	}
	return colorize(icon, code, color)
}

// Dimmed returns text in gray when color is set.
func Dimmed(text string, color bool) string {
	return colorize(text, colorGray, color)
}

// KV is one entry of the run context.
type KV struct {
	Key   string
	Value string
}

// ContextBlock prints the run context two entries per line, each column
// as wide as its widest cell.
func ContextBlock(w io.Writer, kv []KV) {
	if len(kv) == 0 {
		return
	}
	var widths [4]int
	for i, e := range kv {
		col := (i % 2) * 2
		widths[col] = max(widths[col], utf8.RuneCountInString(e.Key))
		widths[col+1] = max(widths[col+1], utf8.RuneCountInString(e.Value))
	}

	fmt.Fprintln(w)
	for i := 0; i < len(kv); i += 2 {
		line := fmt.Sprintf("%-*s  %-*s", widths[0], kv[i].Key, widths[1], kv[i].Value)
		if i+1 < len(kv) {
			line += fmt.Sprintf("    %-*s  %s", widths[2], kv[i+1].Key, kv[i+1].Value)
		}
		fmt.Fprintf(w, "    %s\n", strings.TrimRight(line, " "))
	}
}

// formatElapsed renders d with the coarsest unit that keeps one decimal.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d / time.Minute)
	return fmt.Sprintf("%dm%.1fs", mins, (d - time.Duration(mins)*time.Minute).Seconds())
}

// SummaryRow writes one step's line of the closing summary.
func SummaryRow(w io.Writer, name, status, detail string, color bool) {
	fmt.Fprintf(w, "    │ %-14s%s  %s\n", name, StatusIcon(status, color), detail)
}

// SummaryTotal writes the final total line.
func SummaryTotal(w io.Writer, elapsed time.Duration, status string, color bool) {
	fmt.Fprintf(w, "    │ %-14s%38s   %s\n", "total", formatElapsed(elapsed), StatusIcon(status, color))
}
