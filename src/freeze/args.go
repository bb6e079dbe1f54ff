package freeze

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schulle4u/multideck-packager/src/platform"
	"github.com/schulle4u/multideck-packager/src/pyenv"
	"github.com/schulle4u/multideck-packager/src/step"
)

// Args builds the ordered PyInstaller argument list. Folder builds pass only
// the descriptor, which carries every declaration; onefile builds encode the
// same declarations inline.
func Args(o Options, m Manifest) []string {
	args := []string{"--clean", "--noconfirm", "--distpath", o.DistPath, "--workpath", o.WorkPath}

	if o.Mode != platform.OneFile {
		return append(args, o.Descriptor)
	}

	args = append(args, "--onefile", "--name", o.AppName, "--specpath", o.WorkPath)

	if o.Console {
		args = append(args, "--console")
	} else {
		args = append(args, "--windowed")
	}

	if o.Icon != "" {
		args = append(args, "--icon", o.Icon)
	}

	if o.UsesVersionFile() {
		args = append(args, "--version-file", o.VersionFile)
	}

	if o.ArgvEmulation() {
		args = append(args, "--argv-emulation")
	}

	if o.Platform == platform.MacOS && o.BundleID != "" {
		args = append(args, "--osx-bundle-identifier", o.BundleID)
	}

	for _, p := range m.SearchPaths {
		args = append(args, "--paths", o.abs(p))
	}

	sep := platform.For(o.Platform).DataSep
	for _, d := range m.Data {
		args = append(args, "--add-data", o.abs(d.Source)+sep+d.Dest)
	}

	for _, h := range m.HiddenImports {
		args = append(args, "--hidden-import", h)
	}

	for _, c := range m.CollectBinaries {
		args = append(args, "--collect-binaries", c)
	}

	for _, e := range m.Excludes {
		args = append(args, "--exclude-module", e)
	}

	return append(args, o.abs(m.EntryPoint))
}

// Command wraps Args into an invocation of PyInstaller through the
// environment's interpreter. The version reaches the descriptor through
// VersionEnv.
func Command(env *pyenv.Env, o Options, m Manifest) step.Command {
	environ := env.Environ(os.Environ())
	if o.Version != "" {
		environ = append(environ, VersionEnv+"="+o.Version)
	}
	return step.Command{
		Name: env.Python(),
		Args: append([]string{"-m", "PyInstaller"}, Args(o, m)...),
		Dir:  o.Root,
		Env:  environ,
	}
}

// Invoke runs PyInstaller synchronously. A nonzero exit fails with
// step.PackagingFailed.
func Invoke(ctx context.Context, r step.Runner, env *pyenv.Env, o Options, m Manifest) error {
	if env != nil && env.Released() {
		return &step.Error{
			Step: "package",
			Kind: step.EnvironmentMissing,
			Err:  fmt.Errorf("environment %s was released before packaging", env.Dir),
		}
	}
	err := r.Run(ctx, Command(env, o, m))
	return step.Check(step.PackagingFailed, "package", err,
		"inspect "+filepath.Join(o.WorkPath, o.AppName, "warn-"+o.AppName+".txt")+" and rerun with --debug")
}
