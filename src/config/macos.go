package config

import "github.com/schulle4u/multideck-packager/src/freeze"

// MacOSConfig is the bundle metadata written into Info.plist.
type MacOSConfig struct {
	MinSystemVersion string                `yaml:"min_system_version"`
	Usage            map[string]string     `yaml:"usage"` // NS*UsageDescription keys
	DocumentTypes    []freeze.DocumentType `yaml:"document_types"`
}

// DefaultMacOSConfig registers microphone access for the recorder and the
// .mdap project file type.
func DefaultMacOSConfig() MacOSConfig {
	return MacOSConfig{
		MinSystemVersion: "10.13",
		Usage: map[string]string{
			"NSMicrophoneUsageDescription": "MultiDeck needs microphone access to record audio.",
		},
		DocumentTypes: []freeze.DocumentType{
			{Name: "MultiDeck Project", Extensions: []string{"mdap"}, Role: "Editor"},
		},
	}
}

// BundleInfo converts the section for the descriptor renderer.
func (m MacOSConfig) BundleInfo(displayName string) freeze.BundleInfo {
	return freeze.BundleInfo{
		DisplayName:      displayName,
		MinSystemVersion: m.MinSystemVersion,
		Usage:            m.Usage,
		DocumentTypes:    m.DocumentTypes,
	}
}
