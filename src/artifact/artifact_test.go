package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schulle4u/multideck-packager/src/step"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestCleanRemovesPresentAndSkipsAbsent(t *testing.T) {
	root := t.TempDir()
	build := filepath.Join(root, "build")
	dist := filepath.Join(root, "dist", "MultiDeck")
	writeFile(t, filepath.Join(build, "MultiDeck", "warn.txt"), 10)

	removals, err := Clean([]string{build, dist}, nil)
	require.NoError(t, err)
	require.Len(t, removals, 2)

	assert.True(t, removals[0].Removed)
	assert.NoDirExists(t, build)

	assert.False(t, removals[1].Removed)
	assert.Equal(t, step.CleanupSkipped, removals[1].Kind)
}

func TestCleanIsIdempotent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "dist")
	writeFile(t, filepath.Join(target, "a"), 1)

	_, err := Clean([]string{target}, nil)
	require.NoError(t, err)
	removals, err := Clean([]string{target}, nil)
	require.NoError(t, err)
	assert.Equal(t, step.CleanupSkipped, removals[0].Kind)
}

func TestMeasure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "MultiDeck"), 1000)
	writeFile(t, filepath.Join(root, "_internal", "lib.so"), 2048)
	writeFile(t, filepath.Join(root, "locale", "de", "LC_MESSAGES", "multideck.mo"), 24)

	n, err := Measure(root)
	require.NoError(t, err)
	assert.Equal(t, int64(3072), n)

	n, err = Measure(filepath.Join(root, "MultiDeck"))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)

	_, err = Measure(filepath.Join(root, "absent"))
	assert.Error(t, err)
}

func TestTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "docs", "README.md"), 1)
	writeFile(t, filepath.Join(root, "LICENSE"), 1)

	paths, err := Tree(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"LICENSE", "docs", "docs/README.md"}, paths)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "42.0 MB", FormatBytes(42<<20))
	assert.Equal(t, "1.2 GB", FormatBytes(1288490189))
}
