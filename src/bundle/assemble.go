// Package bundle copies ancillary resources (license, example config,
// translations, documentation) into the produced artifact.
package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schulle4u/multideck-packager/src/platform"
	"github.com/schulle4u/multideck-packager/src/step"
)

// Entry is one resource to copy.
type Entry struct {
	Source   string `yaml:"source"`   // relative to the project root
	Dest     string `yaml:"dest"`     // relative to the destination root
	Required bool   `yaml:"required"` // fail instead of skipping when absent
}

// Manifest is the ordered resource list.
type Manifest []Entry

// DefaultManifest is the MultiDeck resource set. The top-level readme is
// relocated into docs/.
func DefaultManifest() Manifest {
	return Manifest{
		{Source: "LICENSE", Dest: "LICENSE"},
		{Source: "config.example.ini", Dest: "config.example.ini"},
		{Source: "locale", Dest: "locale"},
		{Source: "docs", Dest: "docs"},
		{Source: "README.md", Dest: "docs/README.md"},
	}
}

// Target describes where resources land.
type Target struct {
	Platform platform.Platform
	Mode     platform.Mode
	Artifact string // artifact root: output folder or <App>.app
}

// DestinationRoot resolves the directory resources are copied into:
// <App>.app/Contents/Resources for a macOS bundle, the flat output folder
// otherwise.
func (t Target) DestinationRoot() string {
	if platform.LayoutFor(t.Platform, t.Mode) == platform.Bundle {
		return filepath.Join(t.Artifact, "Contents", "Resources")
	}
	return t.Artifact
}

// Assemble copies every entry of m whose source exists below root into the
// destination root. Absent optional sources are skipped silently; absent
// required ones fail with step.ResourceMissing. It returns the destinations
// written, in manifest order.
func Assemble(t Target, m Manifest, root string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dest := t.DestinationRoot()
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dest, err)
	}

	var copied []string
	for _, e := range m {
		src := e.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(root, src)
		}

		info, err := os.Stat(src)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return copied, fmt.Errorf("reading %s: %w", e.Source, err)
			}
			if e.Required {
				return copied, &step.Error{
					Step: "assemble",
					Kind: step.ResourceMissing,
					Hint: "restore " + e.Source + " or mark it optional in .mdpack.yml",
					Err:  fmt.Errorf("required resource %s not found", e.Source),
				}
			}
			logger.Debug("optional resource absent, skipping", "source", e.Source)
			continue
		}

		to := filepath.Join(dest, filepath.FromSlash(e.Dest))
		if info.IsDir() {
			err = copyTree(src, to)
		} else {
			err = copyFile(src, to, info.Mode().Perm())
		}
		if err != nil {
			return copied, fmt.Errorf("copying %s: %w", e.Source, err)
		}
		logger.Debug("copied resource", "source", e.Source, "dest", to)
		copied = append(copied, to)
	}
	return copied, nil
}
