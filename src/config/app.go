package config

// AppConfig identifies the application being packaged.
type AppConfig struct {
	Name        string `yaml:"name"`         // executable and bundle name
	DisplayName string `yaml:"display_name"` // macOS CFBundleDisplayName (default: name)
	Version     string `yaml:"version"`      // empty derives the version from git tags
	BundleID    string `yaml:"bundle_id"`    // reverse-DNS identifier
	EntryPoint  string `yaml:"entry_point"`  // script frozen by PyInstaller
}

// DefaultAppConfig returns the MultiDeck identity.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Name:        "MultiDeck",
		DisplayName: "MultiDeck Audio Player",
		BundleID:    "de.schulle4u.multideck",
		EntryPoint:  "src/main.py",
	}
}

// Display returns the display name, falling back to the app name.
func (a AppConfig) Display() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Name
}
