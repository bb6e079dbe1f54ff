// Package build runs the packaging pipeline: platform detection,
// environment validation, dependency synchronization, cleanup, PyInstaller
// invocation, resource assembly and the build report, strictly in that
// order.
package build

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/schulle4u/multideck-packager/src/bundle"
	"github.com/schulle4u/multideck-packager/src/config"
	"github.com/schulle4u/multideck-packager/src/dependency"
	"github.com/schulle4u/multideck-packager/src/freeze"
	"github.com/schulle4u/multideck-packager/src/gitver"
	"github.com/schulle4u/multideck-packager/src/platform"
)

// Flags are the per-invocation overrides from the command line.
type Flags struct {
	Root     string // project root; "" uses the working directory
	Platform string // platform override; "" detects the host
	OneFile  bool
	Mode     string // "folder" or "onefile"; "" defers to OneFile
	Debug    bool // console window in the produced executable
	Clean    bool // also remove the whole output root and clean.extra
}

// Configuration is the resolved, read-only description of one run. It is
// built once by NewConfiguration and passed by value to every step.
type Configuration struct {
	Platform platform.Platform
	Defaults platform.Defaults
	Mode     platform.Mode
	Windowed bool
	Debug    bool
	Force    bool

	AppName     string
	DisplayName string
	Version     string
	VersionInfo gitver.VersionInfo
	BundleID    string
	Icon        string // absolute, "" when absent
	VersionFile string // absolute, Windows only, "" when absent

	Root         string // absolute project root
	OutputRoot   string // dist
	BuildRoot    string // build (PyInstaller workpath)
	Venv         string // as configured, relative to Root
	Requirements string // as configured, relative to Root
	Descriptor   string // hand-maintained .spec, "" renders one per run

	Tool       dependency.Requirement
	Manifest   freeze.Manifest
	Bundle     freeze.BundleInfo
	Resources  bundle.Manifest
	CleanExtra []string

	// DetectedUnknown is set when the host platform was not recognized and
	// the generic flat layout is in use.
	DetectedUnknown bool
}

// NewConfiguration resolves cfg and flags against the host. An unknown host
// platform never fails: it degrades to the generic POSIX layout and a
// warning is logged.
func NewConfiguration(cfg *config.Config, flags Flags, logger *slog.Logger) (Configuration, error) {
	return newConfiguration(cfg, flags, runtime.GOOS, logger)
}

func newConfiguration(cfg *config.Config, flags Flags, goos string, logger *slog.Logger) (Configuration, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	root := flags.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Configuration{}, fmt.Errorf("getting working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return Configuration{}, fmt.Errorf("resolving project root: %w", err)
	}

	var p platform.Platform
	var defaults platform.Defaults
	if flags.Platform != "" {
		p, err = platform.Parse(flags.Platform)
		if err != nil {
			return Configuration{}, err
		}
		defaults = platform.For(p)
	} else {
		p, defaults = platform.Detect(goos)
	}
	if p == platform.Unknown {
		logger.Warn("unrecognized platform, using generic flat layout without icon", "goos", goos)
	}

	mode, err := platform.ParseMode(flags.Mode)
	if err != nil {
		return Configuration{}, err
	}
	if flags.OneFile {
		if mode != platform.OneFile && flags.Mode != "" {
			return Configuration{}, fmt.Errorf("--onefile conflicts with --mode %s", flags.Mode)
		}
		mode = platform.OneFile
	}

	c := Configuration{
		Platform:        p,
		Defaults:        defaults,
		Mode:            mode,
		Windowed:        !flags.Debug,
		Debug:           flags.Debug,
		Force:           flags.Clean,
		AppName:         cfg.App.Name,
		DisplayName:     cfg.App.Display(),
		VersionInfo:     gitver.Resolve(root, cfg.App.Version, logger),
		BundleID:        cfg.App.BundleID,
		Root:            root,
		OutputRoot:      abs(root, cfg.Paths.Dist),
		BuildRoot:       abs(root, cfg.Paths.Build),
		Venv:            cfg.Paths.Venv,
		Requirements:    cfg.Paths.Requirements,
		Tool:            cfg.Packager.ToolRequirement(),
		Manifest:        cfg.Packager.Manifest(cfg.App.EntryPoint).Present(root),
		Bundle:          cfg.MacOS.BundleInfo(cfg.App.Display()),
		Resources:       cfg.Resources.Manifest(),
		DetectedUnknown: p == platform.Unknown,
	}
	c.Version = c.VersionInfo.Version
	if cfg.Paths.Descriptor != "" {
		c.Descriptor = abs(root, cfg.Paths.Descriptor)
	}
	for _, extra := range cfg.Clean.Extra {
		c.CleanExtra = append(c.CleanExtra, abs(root, extra))
	}

	if defaults.IconExt != "" && cfg.Paths.Icon != "" {
		if icon := abs(root, cfg.Paths.Icon+defaults.IconExt); exists(icon) {
			c.Icon = icon
		} else {
			logger.Debug("no icon for platform", "path", icon)
		}
	}
	if p == platform.Windows && cfg.Paths.VersionFile != "" {
		if vf := abs(root, cfg.Paths.VersionFile); exists(vf) {
			c.VersionFile = vf
		}
	}
	return c, nil
}

// Layout is the artifact layout: a bundle only for macOS folder builds.
func (c Configuration) Layout() platform.Layout {
	return platform.LayoutFor(c.Platform, c.Mode)
}

// ArtifactPath is where the produced artifact lives: dist/<App>.app for a
// bundle, dist/<App> for a flat folder, the executable itself in onefile
// mode.
func (c Configuration) ArtifactPath() string {
	switch {
	case c.Mode == platform.OneFile:
		return filepath.Join(c.OutputRoot, c.AppName+c.Defaults.ExeSuffix)
	case c.Layout() == platform.Bundle:
		return filepath.Join(c.OutputRoot, c.AppName+".app")
	default:
		return filepath.Join(c.OutputRoot, c.AppName)
	}
}

// OutputDir is the directory ancillary resources are assembled into before
// the bundle layout is applied: the artifact folder, or the output root in
// onefile mode.
func (c Configuration) OutputDir() string {
	if c.Mode == platform.OneFile {
		return c.OutputRoot
	}
	return c.ArtifactPath()
}

// Executable is the launchable program inside the artifact.
func (c Configuration) Executable() string {
	switch {
	case c.Mode == platform.OneFile:
		return c.ArtifactPath()
	case c.Layout() == platform.Bundle:
		return filepath.Join(c.ArtifactPath(), "Contents", "MacOS", c.AppName)
	default:
		return filepath.Join(c.ArtifactPath(), c.AppName+c.Defaults.ExeSuffix)
	}
}

// AssemblyTarget tells the bundle assembler where resources go.
func (c Configuration) AssemblyTarget() bundle.Target {
	return bundle.Target{Platform: c.Platform, Mode: c.Mode, Artifact: c.OutputDir()}
}

// ResourceRoot is where copied resources end up.
func (c Configuration) ResourceRoot() string {
	return c.AssemblyTarget().DestinationRoot()
}

// CleanTargets lists what the cleaner removes, in order. The build root and
// the previous artifact are always removed; onefile builds drop the whole
// output root since resources sit next to the executable there. With
// --clean the output root and clean.extra go too. A target holding the
// hand-maintained descriptor is never removed.
func (c Configuration) CleanTargets() []string {
	targets := []string{c.BuildRoot}
	switch {
	case c.Mode == platform.OneFile:
		targets = append(targets, c.OutputRoot)
	default:
		targets = append(targets, filepath.Join(c.OutputRoot, c.AppName))
		if c.Platform == platform.MacOS {
			targets = append(targets, filepath.Join(c.OutputRoot, c.AppName+".app"))
		}
		if c.Force {
			targets = append(targets, c.OutputRoot)
		}
	}
	if c.Force {
		targets = append(targets, c.CleanExtra...)
	}
	return dedupe(c.sparingDescriptor(targets))
}

func (c Configuration) sparingDescriptor(targets []string) []string {
	if c.Descriptor == "" {
		return targets
	}
	out := targets[:0]
	for _, t := range targets {
		if rel, err := filepath.Rel(t, c.Descriptor); err == nil && (rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// DescriptorPath is the .spec handed to PyInstaller in folder mode.
func (c Configuration) DescriptorPath() string {
	if c.Descriptor != "" {
		return c.Descriptor
	}
	return filepath.Join(c.BuildRoot, c.AppName+".spec")
}

// FreezeOptions converts the configuration for the freeze package.
func (c Configuration) FreezeOptions() freeze.Options {
	return freeze.Options{
		Root:        c.Root,
		Platform:    c.Platform,
		Mode:        c.Mode,
		Console:     c.Debug,
		AppName:     c.AppName,
		Version:     c.Version,
		BundleID:    c.BundleID,
		Icon:        c.Icon,
		VersionFile: c.VersionFile,
		DistPath:    c.OutputRoot,
		WorkPath:    c.BuildRoot,
		Descriptor:  c.DescriptorPath(),
		Bundle:      c.Bundle,
	}
}

// DependencySpec loads the declared requirements with the packaging tool
// first.
func (c Configuration) DependencySpec() (dependency.Spec, error) {
	return dependency.LoadSpec(c.Root, c.Requirements, c.Tool)
}

func abs(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
