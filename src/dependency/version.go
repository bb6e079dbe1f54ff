package dependency

import (
	"regexp"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

// releaseRe captures the leading release segment of a PEP 440 version:
// "4.2.2.post1" → "4.2.2", "2.1.0rc1" → "2.1.0", "1.24" → "1.24".
var releaseRe = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)`)

// parseLoose maps a PEP 440 version onto semver, keeping at most three
// release segments. Returns nil when no release segment is present.
func parseLoose(v string) *masterminds.Version {
	m := releaseRe.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return nil
	}
	parts := strings.Split(m[1], ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	sv, err := masterminds.NewVersion(strings.Join(parts, "."))
	if err != nil {
		return nil
	}
	return sv
}

// Satisfies reports whether installed meets the lower bound min. An empty
// bound is always met. Versions that cannot be read are treated as met so an
// exotic local build never triggers a reinstall loop.
func Satisfies(installed, min string) bool {
	if min == "" {
		return true
	}
	want := parseLoose(min)
	have := parseLoose(installed)
	if want == nil || have == nil {
		return true
	}
	return !have.LessThan(want)
}
