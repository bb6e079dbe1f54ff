package config

import (
	"github.com/schulle4u/multideck-packager/src/dependency"
	"github.com/schulle4u/multideck-packager/src/freeze"
)

// PackagerConfig declares what PyInstaller freezes. It is the single source
// for both the onefile argument list and the folder-mode descriptor.
type PackagerConfig struct {
	Tool            string            `yaml:"tool"`        // pip name of the freezing tool
	MinVersion      string            `yaml:"min_version"` // lowest accepted tool version
	SearchPaths     []string          `yaml:"search_paths"`
	Data            []freeze.DataTree `yaml:"data"`
	HiddenImports   []string          `yaml:"hidden_imports"`
	Excludes        []string          `yaml:"excludes"`
	CollectBinaries []string          `yaml:"collect_binaries"`
}

// DefaultPackagerConfig returns the MultiDeck freeze set: the wx GUI, the
// audio I/O stack and the application's own packages under src/.
func DefaultPackagerConfig() PackagerConfig {
	return PackagerConfig{
		Tool:        "pyinstaller",
		MinVersion:  "6.0",
		SearchPaths: []string{"src"},
		Data: []freeze.DataTree{
			{Source: "locale", Dest: "locale"},
			{Source: "docs", Dest: "docs"},
		},
		HiddenImports: []string{
			"wx",
			"wx.adv",
			"sounddevice",
			"soundfile",
			"numpy",
			"audio.audio_engine",
			"audio.deck",
			"audio.effects",
			"audio.mixer",
			"audio.recorder",
			"audio.stream_handler",
			"config.config_manager",
			"config.defaults",
			"gui.deck_panel",
			"gui.dialogs",
			"gui.main_frame",
			"gui.theme_manager",
			"utils.helpers",
			"utils.i18n",
			"utils.logger",
		},
		Excludes:        []string{"tkinter", "unittest", "pydoc", "test"},
		CollectBinaries: []string{"sounddevice", "soundfile"},
	}
}

// ToolRequirement is the packaging tool as an implicit dependency.
func (p PackagerConfig) ToolRequirement() dependency.Requirement {
	return dependency.Requirement{Name: p.Tool, MinVersion: p.MinVersion}
}

// Manifest builds the canonical freeze manifest for entry.
func (p PackagerConfig) Manifest(entry string) freeze.Manifest {
	return freeze.Manifest{
		EntryPoint:      entry,
		SearchPaths:     append([]string(nil), p.SearchPaths...),
		Data:            append([]freeze.DataTree(nil), p.Data...),
		HiddenImports:   append([]string(nil), p.HiddenImports...),
		Excludes:        append([]string(nil), p.Excludes...),
		CollectBinaries: append([]string(nil), p.CollectBinaries...),
	}
}
