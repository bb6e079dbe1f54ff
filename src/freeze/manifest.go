// Package freeze drives PyInstaller. A single Manifest describes what goes
// into the frozen application; Args renders it as an inline argument list
// for onefile builds and RenderDescriptor renders it as a .spec file for
// folder builds, so the two can never disagree.
package freeze

import (
	"os"
	"path/filepath"

	"github.com/schulle4u/multideck-packager/src/platform"
)

// DataTree is a file or directory bundled next to the frozen code.
type DataTree struct {
	Source string `yaml:"source"` // relative to the project root
	Dest   string `yaml:"dest"`   // relative to the bundle's data root
}

// Manifest is the canonical resource and import set.
type Manifest struct {
	EntryPoint      string     // relative script path, e.g. src/main.py
	SearchPaths     []string   // extra import roots, relative
	Data            []DataTree // translation and documentation trees
	HiddenImports   []string   // modules static analysis misses
	Excludes        []string   // standard modules left out
	CollectBinaries []string   // packages whose shared libraries are collected
}

// Present returns a copy of m that keeps only the data trees whose source
// exists below root. Missing trees are optional by contract.
func (m Manifest) Present(root string) Manifest {
	out := m
	out.Data = nil
	for _, d := range m.Data {
		if _, err := os.Stat(filepath.Join(root, d.Source)); err == nil {
			out.Data = append(out.Data, d)
		}
	}
	return out
}

// DocumentType is a file association registered in the macOS bundle.
type DocumentType struct {
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"extensions"`
	Role       string   `yaml:"role"`
}

// BundleInfo is the macOS bundle metadata.
type BundleInfo struct {
	DisplayName      string
	MinSystemVersion string
	Usage            map[string]string // Info.plist usage-description keys
	DocumentTypes    []DocumentType
}

// Options are the per-run PyInstaller settings derived from the build
// configuration. All paths are absolute.
type Options struct {
	Root        string
	Platform    platform.Platform
	Mode        platform.Mode
	Console     bool // show a console window (debug builds)
	AppName     string
	Version     string
	BundleID    string
	Icon        string // "" omits the icon
	VersionFile string // Windows version resource, "" omits it
	DistPath    string
	WorkPath    string
	Descriptor  string // .spec path used in folder mode
	Bundle      BundleInfo
}

// ArgvEmulation reports whether macOS drag-and-drop emulation is engaged:
// only for folder builds on macOS.
func (o Options) ArgvEmulation() bool {
	return o.Platform == platform.MacOS && o.Mode == platform.Folder && platform.For(o.Platform).ArgvEmulation
}

// UsesVersionFile reports whether the version resource is attached.
func (o Options) UsesVersionFile() bool {
	return o.Platform == platform.Windows && o.VersionFile != ""
}

// abs resolves a project-relative path.
func (o Options) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(o.Root, rel)
}
