package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schulle4u/multideck-packager/src/bundle"
)

func cfgEntry(src, dest string) bundle.Entry {
	return bundle.Entry{Source: src, Dest: dest}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "MultiDeck", cfg.App.Name)
	assert.Equal(t, "venv", cfg.Paths.Venv)
	assert.Equal(t, "pyinstaller", cfg.Packager.Tool)
	assert.Len(t, cfg.Resources.Entries, 5)
}

func TestDefaultsAreValid(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mdpack.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: DeckLite
  version: 1.2.3
packager:
  hidden_imports: [wx, numpy]
resources:
  entries:
    - source: LICENSE
      dest: LICENSE
      required: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DeckLite", cfg.App.Name)
	assert.Equal(t, "1.2.3", cfg.App.Version)
	assert.Equal(t, "src/main.py", cfg.App.EntryPoint, "untouched keys keep defaults")
	assert.Equal(t, []string{"wx", "numpy"}, cfg.Packager.HiddenImports)
	require.Len(t, cfg.Resources.Entries, 1)
	assert.True(t, cfg.Resources.Entries[0].Required)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("app:\n  nmae: typo\n"))
	assert.Error(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse([]byte("# nothing\n"))
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.Paths.Dist)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.App.Name = ""
	cfg.App.EntryPoint = "main.rb"
	cfg.Paths.Dist = "."
	cfg.Packager.MinVersion = "six"
	cfg.Packager.HiddenImports = append(cfg.Packager.HiddenImports, "tkinter")
	cfg.Resources.Entries = append(cfg.Resources.Entries, cfgEntry("x", "../outside"))
	cfg.Translations.Jobs = 0

	_, err := Validate(cfg)
	require.Error(t, err)
	for _, want := range []string{
		"app.name: is required",
		"app.entry_point",
		"paths.dist",
		"packager.min_version",
		`"tkinter" is both a hidden import and excluded`,
		"must stay inside the artifact",
		"translations.jobs",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg := Default()
	cfg.App.Version = "v-next"
	cfg.Packager.HiddenImports = append(cfg.Packager.HiddenImports, "wx")
	cfg.MacOS.DocumentTypes[0].Extensions = []string{".mdap"}

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	assert.Len(t, warnings, 3)
}

func TestValidateBuildDistMustDiffer(t *testing.T) {
	cfg := Default()
	cfg.Paths.Build = "out"
	cfg.Paths.Dist = "out/"
	_, err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build and dist must differ")
}

func TestManifestIsACopy(t *testing.T) {
	p := DefaultPackagerConfig()
	m := p.Manifest("src/main.py")
	m.HiddenImports[0] = "changed"
	assert.Equal(t, "wx", p.HiddenImports[0])
	assert.Equal(t, "src/main.py", m.EntryPoint)
	assert.Equal(t, "pyinstaller>=6.0", p.ToolRequirement().String())
}

func TestValidateDescriptorOutsideCleanedDirs(t *testing.T) {
	tests := []struct {
		descriptor string
		wantErr    string
	}{
		{"MultiDeck.spec", ""},
		{"packaging/MultiDeck.spec", ""},
		{"builder/MultiDeck.spec", ""},
		{"build/MultiDeck.spec", "inside paths.build"},
		{"./build/sub/MultiDeck.spec", "inside paths.build"},
		{"dist/MultiDeck.spec", "inside paths.dist"},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			cfg := Default()
			cfg.Paths.Descriptor = tt.descriptor
			_, err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
