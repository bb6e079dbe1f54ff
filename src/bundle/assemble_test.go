package bundle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schulle4u/multideck-packager/src/platform"
	"github.com/schulle4u/multideck-packager/src/step"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedProject(t *testing.T, root string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "LICENSE"), "MIT")
	writeFile(t, filepath.Join(root, "config.example.ini"), "[general]\n")
	writeFile(t, filepath.Join(root, "locale", "de", "LC_MESSAGES", "multideck.mo"), "mo")
	writeFile(t, filepath.Join(root, "docs", "manual.md"), "# Manual")
	writeFile(t, filepath.Join(root, "README.md"), "# MultiDeck")
}

func TestDestinationRoot(t *testing.T) {
	art := filepath.Join("dist", "MultiDeck.app")
	assert.Equal(t, filepath.Join(art, "Contents", "Resources"),
		Target{Platform: platform.MacOS, Mode: platform.Folder, Artifact: art}.DestinationRoot())

	flat := filepath.Join("dist", "MultiDeck")
	for _, p := range []platform.Platform{platform.Windows, platform.Linux, platform.Unknown} {
		assert.Equal(t, flat, Target{Platform: p, Mode: platform.Folder, Artifact: flat}.DestinationRoot())
	}
	assert.Equal(t, "dist", Target{Platform: platform.MacOS, Mode: platform.OneFile, Artifact: "dist"}.DestinationRoot())
}

func TestAssembleLinuxFolder(t *testing.T) {
	root := t.TempDir()
	seedProject(t, root)
	artifact := filepath.Join(root, "dist", "MultiDeck")

	copied, err := Assemble(Target{Platform: platform.Linux, Mode: platform.Folder, Artifact: artifact}, DefaultManifest(), root, nil)
	require.NoError(t, err)
	assert.Len(t, copied, 5)

	assert.FileExists(t, filepath.Join(artifact, "LICENSE"))
	assert.FileExists(t, filepath.Join(artifact, "config.example.ini"))
	assert.FileExists(t, filepath.Join(artifact, "locale", "de", "LC_MESSAGES", "multideck.mo"))
	assert.FileExists(t, filepath.Join(artifact, "docs", "manual.md"))
	assert.FileExists(t, filepath.Join(artifact, "docs", "README.md"))
	assert.NoFileExists(t, filepath.Join(artifact, "README.md"), "readme is relocated, not copied flat")
}

func TestAssembleMacBundle(t *testing.T) {
	root := t.TempDir()
	seedProject(t, root)
	artifact := filepath.Join(root, "dist", "MultiDeck.app")

	copied, err := Assemble(Target{Platform: platform.MacOS, Mode: platform.Folder, Artifact: artifact}, DefaultManifest(), root, nil)
	require.NoError(t, err)

	resources := filepath.Join(artifact, "Contents", "Resources")
	assert.DirExists(t, resources)
	for _, c := range copied {
		assert.True(t, strings.HasPrefix(c, resources+string(filepath.Separator)), c)
	}
}

func TestAssembleRequiredMissing(t *testing.T) {
	root := t.TempDir()
	m := Manifest{{Source: "LICENSE", Dest: "LICENSE", Required: true}}

	_, err := Assemble(Target{Platform: platform.Linux, Mode: platform.Folder, Artifact: filepath.Join(root, "out")}, m, root, nil)
	assert.True(t, step.Is(err, step.ResourceMissing))
}

func TestAssembleOverwritesOnRerun(t *testing.T) {
	root := t.TempDir()
	seedProject(t, root)
	target := Target{Platform: platform.Windows, Mode: platform.Folder, Artifact: filepath.Join(root, "dist", "MultiDeck")}

	_, err := Assemble(target, DefaultManifest(), root, nil)
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "LICENSE"), "MIT v2")
	_, err = Assemble(target, DefaultManifest(), root, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(target.Artifact, "LICENSE"))
	require.NoError(t, err)
	assert.Equal(t, "MIT v2", string(data))
}

// Every optional resource appears at its destination exactly when its
// source exists, on every platform and mode.
func TestSoftCopyLaw(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(42)
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	platforms := []platform.Platform{platform.Windows, platform.MacOS, platform.Linux, platform.Unknown}
	modes := []platform.Mode{platform.Folder, platform.OneFile}
	m := Manifest{
		{Source: "LICENSE", Dest: "LICENSE"},
		{Source: "config.example.ini", Dest: "config.example.ini"},
		{Source: "locale", Dest: "locale"},
		{Source: "docs", Dest: "docs"},
		{Source: "README.md", Dest: "readme/README.md"},
	}
	isTree := map[string]bool{"locale": true, "docs": true}

	properties.Property("destination present iff source present", prop.ForAll(
		func(present []bool, pi, mi int) bool {
			root := t.TempDir()
			for i, e := range m {
				if !present[i] {
					continue
				}
				if isTree[e.Source] {
					writeFile(t, filepath.Join(root, e.Source, "nested", "file.txt"), "x")
				} else {
					writeFile(t, filepath.Join(root, e.Source), "x")
				}
			}

			target := Target{Platform: platforms[pi], Mode: modes[mi], Artifact: filepath.Join(root, "dist", "MultiDeck")}
			copied, err := Assemble(target, m, root, nil)
			if err != nil {
				return false
			}
			want := 0
			for i, e := range m {
				_, err := os.Stat(filepath.Join(target.DestinationRoot(), filepath.FromSlash(e.Dest)))
				if (err == nil) != present[i] {
					return false
				}
				if present[i] {
					want++
				}
			}
			return len(copied) == want
		},
		gen.SliceOfN(5, gen.Bool()),
		gen.IntRange(0, len(platforms)-1),
		gen.IntRange(0, len(modes)-1),
	))

	properties.TestingRun(t)
}
