package config

import "github.com/schulle4u/multideck-packager/src/bundle"

// ResourcesConfig lists the ancillary files copied into the artifact.
type ResourcesConfig struct {
	Entries []bundle.Entry `yaml:"entries"`
}

// DefaultResourcesConfig returns the bundle defaults.
func DefaultResourcesConfig() ResourcesConfig {
	return ResourcesConfig{Entries: bundle.DefaultManifest()}
}

// Manifest returns the entries as a bundle manifest.
func (r ResourcesConfig) Manifest() bundle.Manifest {
	return append(bundle.Manifest(nil), r.Entries...)
}

// TranslationsConfig controls `mdpack translations`.
type TranslationsConfig struct {
	Dir  string `yaml:"dir"`  // gettext tree root, <dir>/<lang>/LC_MESSAGES/*.po
	Jobs int    `yaml:"jobs"` // concurrent msgfmt processes
}

// DefaultTranslationsConfig returns the MultiDeck gettext layout.
func DefaultTranslationsConfig() TranslationsConfig {
	return TranslationsConfig{Dir: "locale", Jobs: 4}
}
