package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/schulle4u/multideck-packager/src/dependency"
	"github.com/schulle4u/multideck-packager/src/i18n"
	"github.com/schulle4u/multideck-packager/src/platform"
	"github.com/schulle4u/multideck-packager/src/pyenv"
	"github.com/schulle4u/multideck-packager/src/step"
)

// Check is one doctor finding.
type Check struct {
	Name   string
	Status string // "success", "failed" or "skipped" (advisory)
	Detail string
	Hint   string
}

// Doctor inspects a project without changing it: the environment, the
// declared dependencies, every hidden import and the optional inputs.
type Doctor struct {
	Config Configuration
	Runner step.Runner
	Logger *slog.Logger

	// LookPath locates external tools; nil uses exec.LookPath.
	LookPath func(string) (string, error)
}

// Run performs every check. The error is non-nil when any check failed.
func (d *Doctor) Run(ctx context.Context) ([]Check, error) {
	c := d.Config
	var checks []Check

	env, err := pyenv.Activate(c.Root, c.Venv, c.Platform, d.logger())
	if err != nil {
		checks = append(checks, Check{Name: "environment", Status: "failed", Detail: err.Error(), Hint: pyenv.CreateHint(c.Venv, c.Platform)})
	} else {
		defer env.Release()
		checks = append(checks, Check{Name: "environment", Status: "success", Detail: c.Venv})
		checks = append(checks, d.dependencies(ctx, env)...)
		checks = append(checks, d.imports(ctx, env)...)
	}

	checks = append(checks, d.tools()...)
	checks = append(checks, d.inputs()...)

	for _, ch := range checks {
		if ch.Status == "failed" {
			return checks, errors.New("doctor found problems")
		}
	}
	return checks, nil
}

func (d *Doctor) dependencies(ctx context.Context, env *pyenv.Env) []Check {
	c := d.Config
	spec, err := c.DependencySpec()
	if err != nil {
		return []Check{{Name: "dependencies", Status: "failed", Detail: err.Error()}}
	}
	sync := &dependency.Synchronizer{Runner: d.Runner, Env: env, Root: c.Root, Logger: d.logger()}
	installed, err := sync.Installed(ctx)
	if err != nil {
		return []Check{{Name: "dependencies", Status: "failed", Detail: err.Error()}}
	}
	missing := dependency.Missing(spec.All(), installed)
	if len(missing) == 0 {
		return []Check{{Name: "dependencies", Status: "success", Detail: fmt.Sprintf("%d satisfied", len(spec.All()))}}
	}
	names := make([]string, len(missing))
	for i, r := range missing {
		names[i] = r.String()
	}
	return []Check{{
		Name:   "dependencies",
		Status: "failed",
		Detail: "missing " + strings.Join(names, ", "),
		Hint:   "run mdpack build, or: " + env.Python() + " -m pip install -r " + c.Requirements,
	}}
}

// imports smoke-tests every hidden import inside the environment with the
// configured search paths on sys.path.
func (d *Doctor) imports(ctx context.Context, env *pyenv.Env) []Check {
	c := d.Config
	var failed []string
	for _, mod := range c.Manifest.HiddenImports {
		var stderr bytes.Buffer
		cmd := step.Command{
			Name:   env.Python(),
			Args:   []string{"-c", importCheck(c.Manifest.SearchPaths, mod)},
			Dir:    c.Root,
			Env:    env.Environ(os.Environ()),
			Stderr: &stderr,
		}
		if err := d.Runner.Run(ctx, cmd); err != nil {
			d.logger().Debug("import failed", "module", mod, "stderr", strings.TrimSpace(stderr.String()))
			failed = append(failed, mod)
		}
	}
	if len(failed) > 0 {
		return []Check{{
			Name:   "imports",
			Status: "failed",
			Detail: "cannot import " + strings.Join(failed, ", "),
			Hint:   "install the missing packages or drop them from packager.hidden_imports",
		}}
	}
	return []Check{{Name: "imports", Status: "success", Detail: fmt.Sprintf("%d hidden import(s)", len(c.Manifest.HiddenImports))}}
}

func importCheck(searchPaths []string, mod string) string {
	quoted := make([]string, len(searchPaths))
	for i, p := range searchPaths {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return fmt.Sprintf("import sys; sys.path[:0] = [%s]; import %s", strings.Join(quoted, ", "), mod)
}

func (d *Doctor) tools() []Check {
	lookPath := d.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath("msgfmt"); err != nil {
		return []Check{{Name: "msgfmt", Status: "skipped", Detail: "not found, translations cannot be compiled", Hint: i18n.MsgfmtHint(d.Config.Platform)}}
	}
	return []Check{{Name: "msgfmt", Status: "success", Detail: "found"}}
}

func (d *Doctor) inputs() []Check {
	c := d.Config
	var checks []Check

	entry := abs(c.Root, c.Manifest.EntryPoint)
	if exists(entry) {
		checks = append(checks, Check{Name: "entry point", Status: "success", Detail: c.Manifest.EntryPoint})
	} else {
		checks = append(checks, Check{Name: "entry point", Status: "failed", Detail: c.Manifest.EntryPoint + " not found"})
	}

	if c.Defaults.IconExt != "" {
		if c.Icon != "" {
			checks = append(checks, Check{Name: "icon", Status: "success", Detail: c.Icon})
		} else {
			checks = append(checks, Check{Name: "icon", Status: "skipped", Detail: "no " + c.Defaults.IconExt + " icon, the default is used"})
		}
	}
	if c.Platform == platform.Windows {
		if c.VersionFile != "" {
			checks = append(checks, Check{Name: "version file", Status: "success", Detail: c.VersionFile})
		} else {
			checks = append(checks, Check{Name: "version file", Status: "skipped", Detail: "absent, no version resource attached"})
		}
	}
	if c.Descriptor != "" && !exists(c.Descriptor) {
		checks = append(checks, Check{Name: "descriptor", Status: "failed", Detail: c.Descriptor + " not found", Hint: "generate it with: mdpack descriptor -o " + c.Descriptor})
	}
	return checks
}

func (d *Doctor) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}
