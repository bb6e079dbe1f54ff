package build

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schulle4u/multideck-packager/src/config"
	"github.com/schulle4u/multideck-packager/src/platform"
)

func TestArtifactPaths(t *testing.T) {
	root := t.TempDir()
	dist := filepath.Join(root, "dist")

	tests := []struct {
		platform   string
		onefile    bool
		layout     platform.Layout
		artifact   string
		executable string
		resources  string
	}{
		{"linux", false, platform.Flat, "MultiDeck", "MultiDeck/MultiDeck", "MultiDeck"},
		{"windows", false, platform.Flat, "MultiDeck", "MultiDeck/MultiDeck.exe", "MultiDeck"},
		{"macos", false, platform.Bundle, "MultiDeck.app", "MultiDeck.app/Contents/MacOS/MultiDeck", "MultiDeck.app/Contents/Resources"},
		{"linux", true, platform.Flat, "MultiDeck", "MultiDeck", "."},
		{"windows", true, platform.Flat, "MultiDeck.exe", "MultiDeck.exe", "."},
		{"macos", true, platform.Flat, "MultiDeck", "MultiDeck", "."},
		{"unknown", false, platform.Flat, "MultiDeck", "MultiDeck/MultiDeck", "MultiDeck"},
	}
	for _, tt := range tests {
		name := tt.platform
		if tt.onefile {
			name += "/onefile"
		}
		t.Run(name, func(t *testing.T) {
			c, err := newConfiguration(config.Default(), Flags{Root: root, Platform: tt.platform, OneFile: tt.onefile}, "linux", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.layout, c.Layout())
			assert.Equal(t, filepath.Join(dist, filepath.FromSlash(tt.artifact)), c.ArtifactPath())
			assert.Equal(t, filepath.Join(dist, filepath.FromSlash(tt.executable)), c.Executable())
			assert.Equal(t, filepath.Join(dist, filepath.FromSlash(tt.resources)), c.ResourceRoot())
		})
	}
}

func TestUnknownHostDegrades(t *testing.T) {
	c, err := newConfiguration(config.Default(), Flags{Root: t.TempDir()}, "plan9", nil)
	require.NoError(t, err)
	assert.Equal(t, platform.Unknown, c.Platform)
	assert.True(t, c.DetectedUnknown)
	assert.Equal(t, platform.Flat, c.Layout())
	assert.Empty(t, c.Icon)
}

func TestInvalidPlatformOverride(t *testing.T) {
	_, err := newConfiguration(config.Default(), Flags{Root: t.TempDir(), Platform: "beos"}, "linux", nil)
	assert.ErrorContains(t, err, "unknown platform")
}

func TestModeFlag(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		mode    string
		onefile bool
		want    platform.Mode
		err     string
	}{
		{"", false, platform.Folder, ""},
		{"", true, platform.OneFile, ""},
		{"onefile", false, platform.OneFile, ""},
		{"onedir", false, platform.Folder, ""},
		{"onefile", true, platform.OneFile, ""},
		{"folder", true, "", "--onefile conflicts with --mode folder"},
		{"zip", false, "", "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			c, err := newConfiguration(config.Default(), Flags{Root: root, Platform: "linux", Mode: tt.mode, OneFile: tt.onefile}, "linux", nil)
			if tt.err != "" {
				assert.ErrorContains(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Mode)
		})
	}
}

func TestIconAndVersionFileResolution(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "assets", "icon.ico"), "ico")
	write(t, filepath.Join(root, "assets", "icon.png"), "png")
	write(t, filepath.Join(root, "version_info.txt"), "VSVersionInfo()")

	win, err := newConfiguration(config.Default(), Flags{Root: root, Platform: "windows"}, "linux", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "assets", "icon.ico"), win.Icon)
	assert.Equal(t, filepath.Join(root, "version_info.txt"), win.VersionFile)

	lin, err := newConfiguration(config.Default(), Flags{Root: root, Platform: "linux"}, "linux", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "assets", "icon.png"), lin.Icon)
	assert.Empty(t, lin.VersionFile, "version resource is Windows only")

	mac, err := newConfiguration(config.Default(), Flags{Root: root, Platform: "macos"}, "linux", nil)
	require.NoError(t, err)
	assert.Empty(t, mac.Icon, "no .icns present")
}

func TestWindowedFollowsDebug(t *testing.T) {
	c, err := newConfiguration(config.Default(), Flags{Root: t.TempDir(), Debug: true}, "linux", nil)
	require.NoError(t, err)
	assert.False(t, c.Windowed)
	assert.True(t, c.FreezeOptions().Console)
}

func TestCleanTargets(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Clean.Extra = []string{"__pycache__"}

	mac, err := newConfiguration(cfg, Flags{Root: root, Platform: "macos"}, "linux", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "build"),
		filepath.Join(root, "dist", "MultiDeck"),
		filepath.Join(root, "dist", "MultiDeck.app"),
	}, mac.CleanTargets())

	forced, err := newConfiguration(cfg, Flags{Root: root, Platform: "linux", Clean: true}, "linux", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "build"),
		filepath.Join(root, "dist", "MultiDeck"),
		filepath.Join(root, "dist"),
		filepath.Join(root, "__pycache__"),
	}, forced.CleanTargets())
}

// The cleaner always removes the previous artifact and never reaches
// outside the project.
func TestCleanTargetsCoverArtifact(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	root := t.TempDir()
	platforms := []string{"windows", "macos", "linux", "unknown"}

	properties.Property("previous artifact is always cleaned", prop.ForAll(
		func(pi int, onefile, force bool) bool {
			c, err := newConfiguration(config.Default(), Flags{Root: root, Platform: platforms[pi], OneFile: onefile, Clean: force}, "linux", nil)
			if err != nil {
				return false
			}
			covered := false
			for _, target := range c.CleanTargets() {
				rel, err := filepath.Rel(root, target)
				if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
					return false
				}
				if target == c.ArtifactPath() || strings.HasPrefix(c.ArtifactPath(), target+string(filepath.Separator)) {
					covered = true
				}
			}
			return covered
		},
		gen.IntRange(0, len(platforms)-1),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestCleanTargetsSpareDescriptor(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Descriptor = "build/MultiDeck.spec"

	c, err := newConfiguration(cfg, Flags{Root: root, Platform: "linux", Clean: true}, "linux", nil)
	require.NoError(t, err)
	for _, target := range c.CleanTargets() {
		assert.NotEqual(t, filepath.Join(root, "build"), target)
		assert.NotEqual(t, filepath.Join(root, "build", "MultiDeck.spec"), target)
	}
	assert.Contains(t, c.CleanTargets(), filepath.Join(root, "dist", "MultiDeck"))
}
