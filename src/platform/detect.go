// Package platform resolves the host OS family and the packaging defaults
// that follow from it.
package platform

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Platform is a target OS family.
type Platform string

const (
	Windows Platform = "windows"
	MacOS   Platform = "macos"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Mode is the PyInstaller packaging strategy.
type Mode string

const (
	Folder  Mode = "folder"  // executable plus library tree
	OneFile Mode = "onefile" // single self-extracting executable
)

// Layout is the on-disk shape of the produced artifact.
type Layout string

const (
	Flat   Layout = "flat"   // plain output folder
	Bundle Layout = "bundle" // <App>.app/Contents/...
)

// Defaults are the per-platform packaging conventions.
type Defaults struct {
	Layout        Layout // folder-mode layout
	IconExt       string // "" when the platform takes no icon
	ArgvEmulation bool   // macOS drag-and-drop emulation
	DataSep       string // SRC<sep>DEST separator for --add-data
	ExeSuffix     string
	VenvBin       string // venv script dir
	Activate      string // activation marker inside VenvBin
	Python        string // interpreter inside VenvBin
}

var posixDefaults = Defaults{
	Layout:   Flat,
	DataSep:  ":",
	VenvBin:  "bin",
	Activate: "activate",
	Python:   "python",
}

// defaultsFor maps each known platform to its conventions.
var defaultsFor = map[Platform]Defaults{
	Windows: {
		Layout:    Flat,
		IconExt:   ".ico",
		DataSep:   ";",
		ExeSuffix: ".exe",
		VenvBin:   "Scripts",
		Activate:  "activate.bat",
		Python:    "python.exe",
	},
	MacOS: {
		Layout:        Bundle,
		IconExt:       ".icns",
		ArgvEmulation: true,
		DataSep:       ":",
		VenvBin:       "bin",
		Activate:      "activate",
		Python:        "python",
	},
	Linux: {
		Layout:   Flat,
		IconExt:  ".png",
		DataSep:  ":",
		VenvBin:  "bin",
		Activate: "activate",
		Python:   "python",
	},
}

// goosNames maps runtime.GOOS values onto platforms.
var goosNames = map[string]Platform{
	"windows": Windows,
	"darwin":  MacOS,
	"linux":   Linux,
}

// Detect resolves a runtime.GOOS value. Unrecognized systems return Unknown
// with generic POSIX defaults; callers warn but never abort.
func Detect(goos string) (Platform, Defaults) {
	p, ok := goosNames[goos]
	if !ok {
		return Unknown, posixDefaults
	}
	return p, defaultsFor[p]
}

// For returns the defaults of an already-resolved platform.
func For(p Platform) Defaults {
	if d, ok := defaultsFor[p]; ok {
		return d
	}
	return posixDefaults
}

// Parse accepts the names used by the --platform override.
func Parse(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows", "win", "win32":
		return Windows, nil
	case "macos", "darwin", "mac", "osx":
		return MacOS, nil
	case "linux":
		return Linux, nil
	case "unknown":
		return Unknown, nil
	}
	return "", fmt.Errorf("unknown platform %q (supported: windows, macos, linux)", name)
}

// ParseMode accepts "folder" or "onefile".
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "folder", "onedir", "":
		return Folder, nil
	case "onefile":
		return OneFile, nil
	}
	return "", fmt.Errorf("unknown mode %q (supported: folder, onefile)", name)
}

// LayoutFor returns the artifact layout: a nested bundle only for macOS in
// folder mode, a flat folder for everything else.
func LayoutFor(p Platform, m Mode) Layout {
	if p == MacOS && m == Folder {
		return Bundle
	}
	return Flat
}

// ActivationMarker is the venv-relative path whose presence proves the
// isolated environment exists.
func (d Defaults) ActivationMarker(venvDir string) string {
	return filepath.Join(venvDir, d.VenvBin, d.Activate)
}

// PythonPath is the interpreter inside the environment.
func (d Defaults) PythonPath(venvDir string) string {
	return filepath.Join(venvDir, d.VenvBin, d.Python)
}
