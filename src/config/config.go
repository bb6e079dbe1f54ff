package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".mdpack.yml"

// Config is the top-level mdpack project configuration.
type Config struct {
	App          AppConfig          `yaml:"app"`
	Paths        PathsConfig        `yaml:"paths"`
	Packager     PackagerConfig     `yaml:"packager"`
	MacOS        MacOSConfig        `yaml:"macos"`
	Resources    ResourcesConfig    `yaml:"resources"`
	Translations TranslationsConfig `yaml:"translations"`
	Clean        CleanConfig        `yaml:"clean"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns sensible defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected so a
// typo never silently falls back to a default.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if len(data) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in MultiDeck configuration.
func Default() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		App:          DefaultAppConfig(),
		Paths:        DefaultPathsConfig(),
		Packager:     DefaultPackagerConfig(),
		MacOS:        DefaultMacOSConfig(),
		Resources:    DefaultResourcesConfig(),
		Translations: DefaultTranslationsConfig(),
		Clean:        CleanConfig{Extra: []string{}},
	}
}
