package audit

import "fmt"

// Severity indicates how serious a finding is.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Finding is one audit result.
type Finding struct {
	File     string // slash path relative to the project root
	Line     int    // 1-based, 0 for whole-file findings
	Column   int
	Check    string
	Severity Severity
	Message  string
}

// File is what each check inspects. Data is the whole content of a
// regular, non-binary file.
type File struct {
	Path string // slash path relative to the project root
	Data []byte
}

// Critical counts findings at SeverityCritical.
func Critical(findings []Finding) int {
	n := 0
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			n++
		}
	}
	return n
}
