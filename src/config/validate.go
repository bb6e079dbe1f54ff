package config

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	appNameRe  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]*$`)
	bundleIDRe = regexp.MustCompile(`^[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)+$`)
	moduleRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	// ── App ───────────────────────────────────────────────────────────────

	if cfg.App.Name == "" {
		errs = append(errs, "app.name: is required")
	} else if !appNameRe.MatchString(cfg.App.Name) {
		errs = append(errs, fmt.Sprintf("app.name: %q must not contain path separators or leading punctuation", cfg.App.Name))
	}
	if cfg.App.EntryPoint == "" {
		errs = append(errs, "app.entry_point: is required")
	} else if !strings.HasSuffix(cfg.App.EntryPoint, ".py") {
		errs = append(errs, fmt.Sprintf("app.entry_point: %q is not a Python script", cfg.App.EntryPoint))
	}
	if cfg.App.BundleID != "" && !bundleIDRe.MatchString(cfg.App.BundleID) {
		errs = append(errs, fmt.Sprintf("app.bundle_id: %q is not a reverse-DNS identifier", cfg.App.BundleID))
	}
	if cfg.App.Version != "" {
		if _, verr := semver.NewVersion(cfg.App.Version); verr != nil {
			warnings = append(warnings, fmt.Sprintf("app.version: %q is not semantic; macOS may reject it as CFBundleShortVersionString", cfg.App.Version))
		}
	}

	// ── Paths ─────────────────────────────────────────────────────────────

	for _, p := range []struct{ key, val string }{
		{"paths.build", cfg.Paths.Build},
		{"paths.dist", cfg.Paths.Dist},
		{"paths.venv", cfg.Paths.Venv},
	} {
		if p.val == "" {
			errs = append(errs, fmt.Sprintf("%s: is required", p.key))
			continue
		}
		if c := filepath.Clean(p.val); c == "." || c == ".." || c == string(filepath.Separator) {
			errs = append(errs, fmt.Sprintf("%s: %q would remove the project itself", p.key, p.val))
		}
	}
	if cfg.Paths.Build != "" && filepath.Clean(cfg.Paths.Build) == filepath.Clean(cfg.Paths.Dist) {
		errs = append(errs, "paths: build and dist must differ")
	}
	if d := cfg.Paths.Descriptor; d != "" {
		for _, p := range []struct{ key, val string }{
			{"paths.build", cfg.Paths.Build},
			{"paths.dist", cfg.Paths.Dist},
		} {
			if p.val != "" && within(p.val, d) {
				errs = append(errs, fmt.Sprintf("paths.descriptor: %q lies inside %s (%q), which is removed before every build", d, p.key, p.val))
			}
		}
	}
	if cfg.Paths.Requirements == "" {
		warnings = append(warnings, "paths.requirements: empty, falling back to pyproject.toml")
	}

	// ── Packager ──────────────────────────────────────────────────────────

	if cfg.Packager.Tool == "" {
		errs = append(errs, "packager.tool: is required")
	}
	if cfg.Packager.MinVersion != "" {
		if _, verr := semver.NewVersion(cfg.Packager.MinVersion); verr != nil {
			errs = append(errs, fmt.Sprintf("packager.min_version: %q: %v", cfg.Packager.MinVersion, verr))
		}
	}
	for i, d := range cfg.Packager.Data {
		dpath := fmt.Sprintf("packager.data[%d]", i)
		if d.Source == "" || d.Dest == "" {
			errs = append(errs, fmt.Sprintf("%s: source and dest are required", dpath))
		}
		if escapes(d.Dest) {
			errs = append(errs, fmt.Sprintf("%s: dest %q must stay inside the bundle", dpath, d.Dest))
		}
	}
	errs = append(errs, checkModules("packager.hidden_imports", cfg.Packager.HiddenImports, &warnings)...)
	errs = append(errs, checkModules("packager.excludes", cfg.Packager.Excludes, &warnings)...)
	errs = append(errs, checkModules("packager.collect_binaries", cfg.Packager.CollectBinaries, &warnings)...)

	excluded := make(map[string]bool, len(cfg.Packager.Excludes))
	for _, e := range cfg.Packager.Excludes {
		excluded[e] = true
	}
	for _, h := range cfg.Packager.HiddenImports {
		if excluded[h] {
			errs = append(errs, fmt.Sprintf("packager: %q is both a hidden import and excluded", h))
		}
	}

	// ── macOS ─────────────────────────────────────────────────────────────

	for i, dt := range cfg.MacOS.DocumentTypes {
		dpath := fmt.Sprintf("macos.document_types[%d]", i)
		if dt.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: name is required", dpath))
		}
		if len(dt.Extensions) == 0 {
			errs = append(errs, fmt.Sprintf("%s: at least one extension is required", dpath))
		}
		for _, ext := range dt.Extensions {
			if strings.HasPrefix(ext, ".") {
				warnings = append(warnings, fmt.Sprintf("%s: extension %q is written without the leading dot in Info.plist", dpath, ext))
			}
		}
		switch dt.Role {
		case "", "Editor", "Viewer", "Shell", "None":
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown role %q (supported: Editor, Viewer, Shell, None)", dpath, dt.Role))
		}
	}
	for key := range cfg.MacOS.Usage {
		if !strings.HasPrefix(key, "NS") || !strings.HasSuffix(key, "UsageDescription") {
			warnings = append(warnings, fmt.Sprintf("macos.usage: %q is not an NS*UsageDescription key", key))
		}
	}

	// ── Resources ─────────────────────────────────────────────────────────

	dests := make(map[string]bool)
	for i, e := range cfg.Resources.Entries {
		rpath := fmt.Sprintf("resources.entries[%d]", i)
		if e.Source == "" || e.Dest == "" {
			errs = append(errs, fmt.Sprintf("%s: source and dest are required", rpath))
			continue
		}
		if escapes(e.Dest) {
			errs = append(errs, fmt.Sprintf("%s: dest %q must stay inside the artifact", rpath, e.Dest))
		}
		if dests[path.Clean(e.Dest)] {
			errs = append(errs, fmt.Sprintf("%s: duplicate dest %q", rpath, e.Dest))
		}
		dests[path.Clean(e.Dest)] = true
	}

	// ── Translations ──────────────────────────────────────────────────────

	if cfg.Translations.Jobs < 1 {
		errs = append(errs, fmt.Sprintf("translations.jobs: must be at least 1, got %d", cfg.Translations.Jobs))
	}

	for i, p := range cfg.Clean.Extra {
		if c := filepath.Clean(p); c == "." || c == ".." || filepath.IsAbs(c) {
			errs = append(errs, fmt.Sprintf("clean.extra[%d]: %q must be a relative path inside the project", i, p))
		}
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return warnings, nil
}

// checkModules validates dotted Python module names and warns on duplicates.
func checkModules(key string, mods []string, warnings *[]string) []string {
	var errs []string
	seen := make(map[string]bool, len(mods))
	for _, m := range mods {
		if !moduleRe.MatchString(m) {
			errs = append(errs, fmt.Sprintf("%s: %q is not a module name", key, m))
		}
		if seen[m] {
			*warnings = append(*warnings, fmt.Sprintf("%s: %q listed twice", key, m))
		}
		seen[m] = true
	}
	return errs
}

// within reports whether p is dir or lies below it. Both are project
// relative or both absolute.
func within(dir, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// escapes reports whether a slash-separated destination leaves its root.
func escapes(dest string) bool {
	c := path.Clean(filepath.ToSlash(dest))
	return path.IsAbs(c) || c == ".." || strings.HasPrefix(c, "../")
}
