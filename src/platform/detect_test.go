package platform

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		goos     string
		want     Platform
		iconExt  string
		argvEmul bool
	}{
		{"windows", Windows, ".ico", false},
		{"darwin", MacOS, ".icns", true},
		{"linux", Linux, ".png", false},
		{"plan9", Unknown, "", false},
		{"freebsd", Unknown, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			p, d := Detect(tt.goos)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.iconExt, d.IconExt)
			assert.Equal(t, tt.argvEmul, d.ArgvEmulation)
		})
	}
}

func TestUnknownDegradesToFlat(t *testing.T) {
	_, d := Detect("aix")
	assert.Equal(t, Flat, d.Layout)
	assert.Equal(t, ":", d.DataSep)
	assert.Equal(t, filepath.Join("venv", "bin", "activate"), d.ActivationMarker("venv"))
}

func TestLayoutFor(t *testing.T) {
	for _, p := range []Platform{Windows, MacOS, Linux, Unknown} {
		for _, m := range []Mode{Folder, OneFile} {
			want := Flat
			if p == MacOS && m == Folder {
				want = Bundle
			}
			assert.Equal(t, want, LayoutFor(p, m), "%s/%s", p, m)
		}
	}
}

func TestWindowsEnvironmentPaths(t *testing.T) {
	d := For(Windows)
	assert.Equal(t, filepath.Join("venv", "Scripts", "activate.bat"), d.ActivationMarker("venv"))
	assert.Equal(t, filepath.Join("venv", "Scripts", "python.exe"), d.PythonPath("venv"))
	assert.Equal(t, ";", d.DataSep)
}

func TestParse(t *testing.T) {
	p, err := Parse("Darwin")
	require.NoError(t, err)
	assert.Equal(t, MacOS, p)

	p, err = Parse("win")
	require.NoError(t, err)
	assert.Equal(t, Windows, p)

	_, err = Parse("beos")
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Folder, m)

	m, err = ParseMode("onefile")
	require.NoError(t, err)
	assert.Equal(t, OneFile, m)

	_, err = ParseMode("zip")
	assert.Error(t, err)
}
