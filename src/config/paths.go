package config

// PathsConfig holds project-relative locations.
type PathsConfig struct {
	Build        string `yaml:"build"`        // PyInstaller work directory
	Dist         string `yaml:"dist"`         // output root
	Venv         string `yaml:"venv"`         // isolated runtime environment
	Requirements string `yaml:"requirements"` // dependency manifest
	Icon         string `yaml:"icon"`         // icon path without extension; the platform picks .ico/.icns/.png
	VersionFile  string `yaml:"version_file"` // Windows version resource
	Descriptor   string `yaml:"descriptor"`   // hand-maintained .spec; empty renders one per run
}

// DefaultPathsConfig returns the conventional MultiDeck layout.
func DefaultPathsConfig() PathsConfig {
	return PathsConfig{
		Build:        "build",
		Dist:         "dist",
		Venv:         "venv",
		Requirements: "requirements.txt",
		Icon:         "assets/icon",
		VersionFile:  "version_info.txt",
	}
}

// CleanConfig lists extra paths removed by `mdpack build --clean`.
type CleanConfig struct {
	Extra []string `yaml:"extra"`
}
