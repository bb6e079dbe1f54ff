package audit

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Check inspects one file. Implementations must be safe for concurrent use.
type Check interface {
	Name() string
	Check(f File) ([]Finding, error)
}

// DefaultChecks returns every check the audit runs.
func DefaultChecks() []Check {
	return []Check{&secretsCheck{}, conflictsCheck{}, unicodeCheck{}}
}

// ---------------------------------------------------------------------------
// secrets
// ---------------------------------------------------------------------------

type secretsCheck struct {
	pool sync.Pool // *detect.Detector
}

func (c *secretsCheck) Name() string { return "secrets" }

func (c *secretsCheck) detector() (*detect.Detector, error) {
	if d, ok := c.pool.Get().(*detect.Detector); ok {
		return d, nil
	}
	return detect.NewDetectorDefaultConfig()
}

func (c *secretsCheck) Check(f File) ([]Finding, error) {
	d, err := c.detector()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks rules: %w", err)
	}
	defer c.pool.Put(d)

	hits := d.DetectBytes(f.Data)
	out := make([]Finding, 0, len(hits))
	for _, h := range hits {
		out = append(out, Finding{
			File:     f.Path,
			Line:     h.StartLine + 1, // gitleaks is 0-indexed
			Check:    c.Name(),
			Severity: SeverityCritical,
			Message:  h.Description + " (" + h.RuleID + ")",
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// conflicts
// ---------------------------------------------------------------------------

// conflictsCheck finds merge leftovers, typically in a .po file after two
// translators edited the same catalog. msgfmt rejects such a file.
type conflictsCheck struct{}

func (conflictsCheck) Name() string { return "conflicts" }

func (c conflictsCheck) Check(f File) ([]Finding, error) {
	var out []Finding
	open := false
	for i, line := range bytes.Split(f.Data, []byte("\n")) {
		trimmed := strings.TrimSpace(string(line))
		var marker string
		switch {
		case strings.HasPrefix(trimmed, "<<<<<<<"):
			marker, open = "<<<<<<<", true
		case strings.HasPrefix(trimmed, ">>>>>>>"):
			marker, open = ">>>>>>>", false
		case open && trimmed == "=======":
			// A bare ======= is also a Markdown heading underline.
			marker = "======="
		}
		if marker != "" {
			out = append(out, Finding{
				File:     f.Path,
				Line:     i + 1,
				Check:    c.Name(),
				Severity: SeverityCritical,
				Message:  "merge conflict marker: " + marker,
			})
		}
	}
	return out, nil
}

// Collisions reports paths that differ only by case. They overwrite each
// other once the artifact lands on a case-insensitive filesystem (Windows,
// default macOS).
func Collisions(paths []string) []Finding {
	seen := make(map[string]string, len(paths))
	var out []Finding
	for _, p := range paths {
		lower := strings.ToLower(path.Clean(p))
		if original, ok := seen[lower]; ok && original != p {
			out = append(out, Finding{
				File:     p,
				Check:    "conflicts",
				Severity: SeverityWarning,
				Message:  "case-insensitive filename collision with " + original,
			})
			continue
		}
		seen[lower] = p
	}
	return out
}

// ---------------------------------------------------------------------------
// unicode
// ---------------------------------------------------------------------------

// unicodeCheck flags invisible or direction-changing characters. Catalogs
// for right-to-left and Indic languages use embeddings and joiners
// legitimately, so only overrides, tag characters and control characters
// are critical.
type unicodeCheck struct{}

func (unicodeCheck) Name() string { return "unicode" }

func (c unicodeCheck) Check(f File) ([]Finding, error) {
	var out []Finding
	for i, line := range bytes.Split(f.Data, []byte("\n")) {
		lineNum := i + 1
		if !utf8.Valid(line) {
			out = append(out, Finding{
				File:     f.Path,
				Line:     lineNum,
				Check:    c.Name(),
				Severity: SeverityCritical,
				Message:  "invalid UTF-8 encoding",
			})
			continue
		}

		col := 0
		for j := 0; j < len(line); {
			r, size := utf8.DecodeRune(line[j:])
			col++
			leadingBOM := r == '\uFEFF' && i == 0 && j == 0
			if msg, sev := classifyRune(r); msg != "" && !leadingBOM {
				out = append(out, Finding{
					File:     f.Path,
					Line:     lineNum,
					Column:   col,
					Check:    c.Name(),
					Severity: sev,
					Message:  fmt.Sprintf("%s (U+%04X)", msg, r),
				})
			}
			j += size
		}
	}
	return out, nil
}

func classifyRune(r rune) (string, Severity) {
	switch r {
	case '\u202D':
		return "bidi override: left-to-right override", SeverityCritical
	case '\u202E':
		return "bidi override: right-to-left override", SeverityCritical
	case '\u202A':
		return "bidi embedding: left-to-right", SeverityWarning
	case '\u202B':
		return "bidi embedding: right-to-left", SeverityWarning
	case '\u202C':
		return "bidi pop directional formatting", SeverityWarning
	case '\u2066', '\u2067', '\u2068':
		return "bidi isolate", SeverityWarning
	case '\u2069':
		return "bidi pop directional isolate", SeverityWarning
	case '\u200B':
		return "zero-width space", SeverityWarning
	case '\uFEFF':
		return "zero-width no-break space (unexpected BOM)", SeverityWarning
	case '\u2060':
		return "word joiner (invisible)", SeverityWarning
	case '\u2061', '\u2062', '\u2063', '\u2064':
		return "invisible math operator", SeverityWarning
	case '\u180E':
		return "mongolian vowel separator (invisible whitespace)", SeverityWarning
	}

	// Control characters except \t \n \r.
	if r != '\t' && r != '\n' && r != '\r' && unicode.IsControl(r) && r < 0x80 {
		return "ASCII control character", SeverityCritical
	}

	if r >= 0xE0001 && r <= 0xE007F {
		return "tag character (invisible)", SeverityCritical
	}
	return "", SeverityInfo
}
