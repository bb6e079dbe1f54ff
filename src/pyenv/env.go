// Package pyenv validates and activates the project-local Python virtual
// environment. Activation is a scoped handle: nothing is written to the
// process environment, commands receive Environ() explicitly.
package pyenv

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schulle4u/multideck-packager/src/platform"
	"github.com/schulle4u/multideck-packager/src/step"
)

// Env is an activated virtual environment.
type Env struct {
	Dir      string // absolute venv directory
	binDir   string
	python   string
	logger   *slog.Logger
	released bool
}

// Activate checks the activation marker below root/venvDir and returns a
// handle. A missing marker fails with step.EnvironmentMissing and a hint on
// how to create the environment.
func Activate(root, venvDir string, p platform.Platform, logger *slog.Logger) (*Env, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := platform.For(p)

	dir := venvDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	marker := d.ActivationMarker(dir)

	if _, err := os.Stat(marker); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &step.Error{
				Step: "environment",
				Kind: step.EnvironmentMissing,
				Hint: CreateHint(venvDir, p),
				Err:  fmt.Errorf("virtual environment not found at %s", dir),
			}
		}
		return nil, &step.Error{Step: "environment", Kind: step.EnvironmentMissing, Err: err}
	}

	env := &Env{
		Dir:    dir,
		binDir: filepath.Join(dir, d.VenvBin),
		python: d.PythonPath(dir),
		logger: logger,
	}
	logger.Debug("environment activated", "dir", dir)
	return env, nil
}

// CreateHint tells the operator how to create the environment on p.
func CreateHint(venvDir string, p platform.Platform) string {
	d := platform.For(p)
	pip := filepath.Join(venvDir, d.VenvBin, "pip")
	if p == platform.Windows {
		return fmt.Sprintf("create it with: python -m venv %s && %s install -r requirements.txt", venvDir, pip)
	}
	return fmt.Sprintf("create it with: python3 -m venv %s && %s install -r requirements.txt", venvDir, pip)
}

// Python returns the environment's interpreter.
func (e *Env) Python() string { return e.python }

// BinDir returns the environment's script directory.
func (e *Env) BinDir() string { return e.binDir }

// Released reports whether Release has been called.
func (e *Env) Released() bool { return e.released }

// Environ derives a command environment from base: VIRTUAL_ENV points at
// the venv, its script dir leads PATH, and PYTHONHOME is dropped. After
// Release the base is returned unchanged.
func (e *Env) Environ(base []string) []string {
	if e.released {
		return base
	}
	out := make([]string, 0, len(base)+2)
	path := ""
	for _, kv := range base {
		key, val, _ := strings.Cut(kv, "=")
		switch strings.ToUpper(key) {
		case "PYTHONHOME", "VIRTUAL_ENV":
			continue
		case "PATH":
			path = val
			continue
		}
		out = append(out, kv)
	}
	if path != "" {
		path = e.binDir + string(os.PathListSeparator) + path
	} else {
		path = e.binDir
	}
	out = append(out, "VIRTUAL_ENV="+e.Dir, "PATH="+path)
	return out
}

// Release ends the activation. Safe to call more than once.
func (e *Env) Release() {
	if e == nil || e.released {
		return
	}
	e.released = true
	e.logger.Debug("environment released", "dir", e.Dir)
}
