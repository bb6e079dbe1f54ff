package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schulle4u/multideck-packager/src/step"
)

func TestSectionFrame(t *testing.T) {
	var buf bytes.Buffer
	sec := NewSection(&buf, Header{Title: "Package", Status: StatusSuccess, Elapsed: 1500 * time.Millisecond}, false)
	sec.Row("hello %s", "world")
	sec.Close()

	out := buf.String()
	assert.Contains(t, out, "── ✓ Package ")
	assert.Contains(t, out, " 1.5s ──")
	assert.Contains(t, out, "    │ hello world\n")
	assert.Contains(t, out, "    └"+strings.Repeat("─", frameWidth))
}

func TestHeaderShowsStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{StatusSuccess, "── ✓ Clean "},
		{StatusFailed, "── ✗ Clean "},
		{StatusSkipped, "── ⊘ Clean "},
		{"", "── Clean "},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			NewSection(&buf, Header{Title: "Clean", Status: tt.status}, false)
			line := strings.TrimSpace(buf.String())
			assert.True(t, strings.HasPrefix(line, tt.want), line)
			assert.Equal(t, frameWidth+1, utf8.RuneCountInString(line), "header spans the frame")
		})
	}
}

func TestHeaderColorKeepsIconColor(t *testing.T) {
	var buf bytes.Buffer
	NewSection(&buf, Header{Title: "Package", Status: StatusFailed}, true)
	assert.Contains(t, buf.String(), colorRed+"✗"+colorReset)
	assert.Contains(t, buf.String(), colorHeader+" Package ")
}

func TestContextBlockAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	ContextBlock(&buf, []KV{
		{Key: "app", Value: "MultiDeck"},
		{Key: "version", Value: "0.2.2"},
		{Key: "platform", Value: "linux"},
		{Key: "mode", Value: "onefile"},
		{Key: "host", Value: "x"},
	})
	lines := strings.Split(strings.Trim(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "    app       MultiDeck    version  0.2.2", lines[0])
	assert.Equal(t, "    platform  linux        mode     onefile", lines[1])
	assert.Equal(t, "    host      x", lines[2])
}

func TestStatusIconPlain(t *testing.T) {
	assert.Equal(t, "✓", StatusIcon(StatusSuccess, false))
	assert.Equal(t, "✗", StatusIcon(StatusFailed, false))
	assert.Equal(t, "⊘", StatusIcon(StatusSkipped, false))
	assert.Equal(t, "\033[32m✓\033[0m", StatusIcon(StatusSuccess, true))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "<1ms", formatElapsed(time.Microsecond))
	assert.Equal(t, "250ms", formatElapsed(250*time.Millisecond))
	assert.Equal(t, "2.0s", formatElapsed(2*time.Second))
	assert.Equal(t, "1m5.0s", formatElapsed(65*time.Second))
}

func TestFailureRendersHint(t *testing.T) {
	var buf bytes.Buffer
	sec := NewSection(&buf, Header{Title: "Environment", Status: StatusFailed}, false)
	Failure(sec, &step.Error{
		Step: "environment",
		Kind: step.EnvironmentMissing,
		Hint: "create it with: python3 -m venv venv",
		Err:  errors.New("venv/bin/activate not found"),
	}, false)

	out := buf.String()
	assert.Contains(t, out, "error: EnvironmentMissing: venv/bin/activate not found")
	assert.Contains(t, out, "hint:  create it with: python3 -m venv venv")
}

func TestFailurePlainError(t *testing.T) {
	var buf bytes.Buffer
	Failure(NewSection(&buf, Header{Title: "x"}, false), errors.New("boom"), false)
	assert.Contains(t, buf.String(), "error: boom")
}

func TestSectionArtifact(t *testing.T) {
	var buf bytes.Buffer
	SectionArtifact(NewSection(&buf, Header{Title: "Report"}, false), ArtifactReport{
		Path:    "dist/MultiDeck",
		Layout:  "flat",
		Size:    "48.2 MB",
		Entries: 112,
		Locales: []string{"de", "en"},
	}, false)

	out := buf.String()
	assert.Contains(t, out, "dist/MultiDeck")
	assert.Regexp(t, `entries\s+112`, out)
	assert.Contains(t, out, "48.2 MB")
	assert.Contains(t, out, "de, en")
	assert.NotContains(t, out, "executable")
}

func TestSectionArtifactUnknownSize(t *testing.T) {
	var buf bytes.Buffer
	SectionArtifact(NewSection(&buf, Header{Title: "Report"}, false), ArtifactReport{Path: "p", Layout: "bundle"}, false)
	assert.Contains(t, buf.String(), "unknown")
	assert.NotContains(t, buf.String(), "entries")
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	NewLogger(&buf, true).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), "msg=shown k=v")
	assert.NotContains(t, buf.String(), "time=")
}

func TestSectionFindings(t *testing.T) {
	var buf bytes.Buffer
	sec := NewSection(&buf, Header{Title: "Audit"}, false)
	SectionFindings(sec, []Finding{
		{File: "config.example.ini", Line: 3, Check: "secrets", Severity: "critical", Message: "GitHub Personal Access Token (github-pat)"},
		{File: "docs/readme.md", Check: "conflicts", Severity: "warning", Message: "case-insensitive filename collision with docs/README.md"},
	}, false)

	out := buf.String()
	assert.Contains(t, out, "config.example.ini:3  critical  secrets  GitHub Personal Access Token")
	assert.Contains(t, out, "docs/readme.md  warning  conflicts")
	assert.NotContains(t, out, "readme.md:0")
}
