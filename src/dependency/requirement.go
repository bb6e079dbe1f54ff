package dependency

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Requirement is a declared Python distribution with an optional lower bound.
type Requirement struct {
	Name       string
	MinVersion string
}

func (r Requirement) String() string {
	if r.MinVersion == "" {
		return r.Name
	}
	return r.Name + ">=" + r.MinVersion
}

// Key is the PEP 503 normalized name used for lookups.
func (r Requirement) Key() string { return Normalize(r.Name) }

// Spec is the ordered dependency set of a release. The packaging tool is an
// implicit first-class dependency and always comes first.
type Spec struct {
	Tool         Requirement
	Requirements []Requirement
	Source       string // file the requirements were read from, "" if none
}

// All returns the tool followed by every declared requirement, without
// duplicating the tool if the manifest lists it too.
func (s Spec) All() []Requirement {
	out := make([]Requirement, 0, len(s.Requirements)+1)
	if s.Tool.Name != "" {
		out = append(out, s.Tool)
	}
	for _, r := range s.Requirements {
		if s.Tool.Name != "" && r.Key() == s.Tool.Key() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Names returns the requirement names in order.
func (s Spec) Names() []string {
	all := s.All()
	names := make([]string, len(all))
	for i, r := range all {
		names[i] = r.Name
	}
	return names
}

var normalizeRe = regexp.MustCompile(`[-_.]+`)

// Normalize applies PEP 503 name normalization: "wxPython" → "wxpython",
// "Py_Installer" → "py-installer".
func Normalize(name string) string {
	return normalizeRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// LoadSpec reads the dependency manifest below root. requirements.txt style
// manifests are preferred; when manifest is absent, pyproject.toml
// [project].dependencies is used. No manifest at all yields a spec holding
// only the tool.
func LoadSpec(root, manifest string, tool Requirement) (Spec, error) {
	spec := Spec{Tool: tool}

	path := manifest
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			reqs, err := ParseRequirements(f)
			if err != nil {
				return spec, fmt.Errorf("reading %s: %w", manifest, err)
			}
			spec.Requirements = reqs
			spec.Source = path
			return spec, nil
		case !errors.Is(err, fs.ErrNotExist):
			return spec, err
		}
	}

	pyproject := filepath.Join(root, "pyproject.toml")
	data, err := os.ReadFile(pyproject)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return spec, nil
		}
		return spec, err
	}
	reqs, err := parsePyproject(data)
	if err != nil {
		return spec, fmt.Errorf("reading pyproject.toml: %w", err)
	}
	spec.Requirements = reqs
	spec.Source = pyproject
	return spec, nil
}

// ParseRequirements handles requirements.txt format. Options (-r, -e,
// --index-url) and comments are ignored.
func ParseRequirements(r io.Reader) ([]Requirement, error) {
	var reqs []Requirement
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if req, ok := ParseRequirement(scanner.Text()); ok {
			reqs = append(reqs, req)
		}
	}
	return reqs, scanner.Err()
}

// ParseRequirement parses one PEP 508 line such as
// `numpy>=1.24.0,<3 ; python_version >= "3.10"`.
func ParseRequirement(line string) (Requirement, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
		return Requirement{}, false
	}
	if idx := strings.Index(line, " #"); idx >= 0 {
		line = line[:idx]
	}
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	name, clauses := splitPipSpec(line)
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Requirement{}, false
	}

	req := Requirement{Name: name}
	for _, c := range clauses {
		op, version := clauseOp(c)
		switch op {
		case "===", "==", "~=", ">=", ">":
			req.MinVersion = strings.TrimSuffix(version, ".*")
		}
		if req.MinVersion != "" {
			break
		}
	}
	return req, true
}

// pipOps is ordered so longer operators match first.
var pipOps = []string{"===", "==", "~=", "!=", ">=", "<=", ">", "<"}

// splitPipSpec splits "package!=1.25,>=1.24" into "package" and its
// comma-separated version clauses.
func splitPipSpec(spec string) (string, []string) {
	idx := strings.IndexAny(spec, "=~!<>")
	if idx < 0 {
		return spec, nil
	}
	var clauses []string
	for _, c := range strings.Split(spec[idx:], ",") {
		if c = strings.TrimSpace(c); c != "" {
			clauses = append(clauses, c)
		}
	}
	return strings.TrimSpace(spec[:idx]), clauses
}

// clauseOp splits ">=1.24" into (">=", "1.24").
func clauseOp(clause string) (string, string) {
	for _, op := range pipOps {
		if strings.HasPrefix(clause, op) {
			return op, strings.TrimSpace(clause[len(op):])
		}
	}
	return "", clause
}

func parsePyproject(data []byte) ([]Requirement, error) {
	var pp struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
	}
	if err := toml.Unmarshal(data, &pp); err != nil {
		return nil, err
	}
	var reqs []Requirement
	for _, line := range pp.Project.Dependencies {
		if req, ok := ParseRequirement(line); ok {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}
