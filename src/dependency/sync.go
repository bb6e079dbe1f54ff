package dependency

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schulle4u/multideck-packager/src/pyenv"
	"github.com/schulle4u/multideck-packager/src/step"
)

const stepName = "dependencies"

// Synchronizer makes the activated environment satisfy a Spec using pip.
type Synchronizer struct {
	Runner step.Runner
	Env    *pyenv.Env
	Root   string
	Logger *slog.Logger
}

// Report is the outcome of a Sync run.
type Report struct {
	Verified  []Requirement // satisfied before any install
	Installed []Requirement // missing or too old, installed by this run
	Tool      string        // installed packaging tool version, if known
}

// pipPackage matches one entry of `pip list --format=json`.
type pipPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Sync installs the packaging tool when missing, then synchronizes the
// declared requirements from manifest. An environment that already
// satisfies spec only gets verified: no install command runs.
func (s *Synchronizer) Sync(ctx context.Context, spec Spec, manifest string) (*Report, error) {
	report := &Report{}

	installed, err := s.Installed(ctx)
	if err != nil {
		return report, err
	}

	if spec.Tool.Name != "" {
		if v, ok := installed[spec.Tool.Key()]; ok && Satisfies(v, spec.Tool.MinVersion) {
			report.Verified = append(report.Verified, spec.Tool)
			report.Tool = v
		} else {
			s.logger().Info("installing packaging tool", "requirement", spec.Tool.String())
			if err := s.pip(ctx, "install", spec.Tool.String()); err != nil {
				return report, step.Check(step.DependencyInstallFailed, stepName, err,
					fmt.Sprintf("install it manually with: %s -m pip install %q", s.Env.Python(), spec.Tool.String()))
			}
			report.Installed = append(report.Installed, spec.Tool)
		}
	}

	declared := spec.All()
	if spec.Tool.Name != "" {
		declared = declared[1:]
	}
	missing := Missing(declared, installed)
	for _, r := range declared {
		if !contains(missing, r) {
			report.Verified = append(report.Verified, r)
		}
	}
	if len(missing) == 0 {
		return report, nil
	}

	path := manifest
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.Root, path)
	}
	if path != "" && fileExists(path) {
		s.logger().Info("synchronizing requirements", "manifest", manifest, "missing", len(missing))
		err = s.pip(ctx, "install", "-r", path)
	} else {
		args := []string{"install"}
		for _, r := range missing {
			args = append(args, r.String())
		}
		s.logger().Info("installing requirements", "missing", len(missing))
		err = s.pip(ctx, args...)
	}
	if err != nil {
		return report, step.Check(step.DependencyInstallFailed, stepName, err,
			"check network access and the versions pinned in "+manifest)
	}
	report.Installed = append(report.Installed, missing...)
	return report, nil
}

// Installed lists the distributions present in the environment, keyed by
// normalized name.
func (s *Synchronizer) Installed(ctx context.Context) (map[string]string, error) {
	var out bytes.Buffer
	cmd := s.command("list", "--format=json", "--disable-pip-version-check")
	cmd.Stdout = &out
	if err := s.Runner.Run(ctx, cmd); err != nil {
		return nil, step.Check(step.DependencyInstallFailed, stepName, err,
			"pip is not usable inside the environment; recreate it")
	}

	var pkgs []pipPackage
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &pkgs); err != nil {
		return nil, &step.Error{Step: stepName, Kind: step.DependencyInstallFailed, Err: fmt.Errorf("parsing pip list output: %w", err)}
	}

	installed := make(map[string]string, len(pkgs))
	for _, p := range pkgs {
		installed[Normalize(p.Name)] = p.Version
	}
	return installed, nil
}

// Missing returns the requirements that installed does not satisfy.
func Missing(reqs []Requirement, installed map[string]string) []Requirement {
	var missing []Requirement
	for _, r := range reqs {
		v, ok := installed[r.Key()]
		if !ok || !Satisfies(v, r.MinVersion) {
			missing = append(missing, r)
		}
	}
	return missing
}

func (s *Synchronizer) pip(ctx context.Context, args ...string) error {
	return s.Runner.Run(ctx, s.command(args...))
}

func (s *Synchronizer) command(args ...string) step.Command {
	return step.Command{
		Name: s.Env.Python(),
		Args: append([]string{"-m", "pip"}, args...),
		Dir:  s.Root,
		Env:  s.Env.Environ(os.Environ()),
	}
}

func (s *Synchronizer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func contains(reqs []Requirement, r Requirement) bool {
	for _, x := range reqs {
		if x.Key() == r.Key() {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
