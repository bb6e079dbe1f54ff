package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schulle4u/multideck-packager/src/artifact"
	"github.com/schulle4u/multideck-packager/src/bundle"
	"github.com/schulle4u/multideck-packager/src/dependency"
	"github.com/schulle4u/multideck-packager/src/freeze"
	"github.com/schulle4u/multideck-packager/src/i18n"
	"github.com/schulle4u/multideck-packager/src/output"
	"github.com/schulle4u/multideck-packager/src/platform"
	"github.com/schulle4u/multideck-packager/src/pyenv"
	"github.com/schulle4u/multideck-packager/src/step"
)

// Pipeline executes the packaging steps for one Configuration.
type Pipeline struct {
	Config Configuration
	Runner step.Runner
	Logger *slog.Logger
	Out    io.Writer // framed progress output; nil discards
	Color  bool
	DryRun bool // validate and print the invocation without touching the filesystem
}

// Result captures the outcome of a full pipeline run.
type Result struct {
	Steps    []StepResult
	Artifact *Artifact // nil unless the report step ran
	Duration time.Duration
}

// StepResult captures the outcome of a single step.
type StepResult struct {
	Name     string
	Status   string // output.StatusSuccess, StatusFailed or StatusSkipped
	Detail   string
	Duration time.Duration
	Err      error
}

// Artifact is the terminal output of a successful run.
type Artifact struct {
	Path       string
	Layout     platform.Layout
	Executable string
	SizeBytes  int64 // -1 when measurement failed
	Entries    int   // paths below a folder artifact, 0 for a single file
	Resources  []string
	Locales    []string
}

// state is what earlier steps hand to later ones.
type state struct {
	env      *pyenv.Env
	copied   []string
	artifact *Artifact
}

// stepFunc performs one step, adding rows to its section, and returns a
// one-line summary.
type stepFunc func(ctx context.Context, st *state, sec *rows) (string, error)

type stepDef struct {
	name  string
	title string
	run   stepFunc
}

// rows buffers section content until the step's elapsed time is known.
type rows struct {
	color bool
	fns   []func(*output.Section)
}

func (r *rows) add(format string, args ...any) {
	r.fns = append(r.fns, func(s *output.Section) { s.Row(format, args...) })
}

func (r *rows) kv(key, value string) {
	r.add("%-14s %s", key, value)
}

func (r *rows) warn(format string, args ...any) {
	color := r.color
	r.fns = append(r.fns, func(s *output.Section) { output.Warn(s, color, format, args...) })
}

// Steps lists the step names in execution order.
func (p *Pipeline) Steps() []string {
	defs := p.steps()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.name
	}
	return names
}

func (p *Pipeline) steps() []stepDef {
	if p.DryRun {
		return []stepDef{
			{"detect", "Detect", p.detect},
			{"environment", "Environment", p.environment},
			{"plan", "Plan", p.plan},
		}
	}
	return []stepDef{
		{"detect", "Detect", p.detect},
		{"environment", "Environment", p.environment},
		{"dependencies", "Dependencies", p.dependencies},
		{"clean", "Clean", p.clean},
		{"package", "Package", p.pack},
		{"assemble", "Assemble", p.assemble},
		{"report", "Report", p.report},
	}
}

// Run executes every step in order. The first failing step short-circuits
// the rest, which are recorded as skipped. The environment activation is
// released on every path.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}
	st := &state{}
	defer func() { st.env.Release() }()

	var runErr error
	for _, s := range p.steps() {
		if runErr != nil {
			res.Steps = append(res.Steps, StepResult{Name: s.name, Status: output.StatusSkipped, Detail: "not run"})
			continue
		}
		sr := p.runStep(ctx, s, st)
		res.Steps = append(res.Steps, sr)
		runErr = sr.Err
	}

	res.Artifact = st.artifact
	res.Duration = time.Since(start)
	p.summary(res)
	return res, runErr
}

func (p *Pipeline) runStep(ctx context.Context, s stepDef, st *state) StepResult {
	w := p.out()
	output.SectionStart(w, "mdpack_"+s.name, s.title)
	defer output.SectionEnd(w, "mdpack_"+s.name)

	p.logger().Debug("step started", "step", s.name)
	start := time.Now()
	r := &rows{color: p.Color}
	detail, err := s.run(ctx, st, r)
	elapsed := time.Since(start)

	if k, ok := step.KindOf(err); ok && !k.Fatal() {
		r.warn("%v", err)
		p.logger().Info("step finished with a notice", "step", s.name, "kind", k)
		if detail == "" {
			detail = string(k)
		}
		err = nil
	}

	sr := StepResult{Name: s.name, Status: output.StatusSuccess, Detail: detail, Duration: elapsed, Err: err}
	if err != nil {
		sr.Status = output.StatusFailed
		if sr.Detail == "" {
			sr.Detail = failureDetail(err)
		}
	}

	sec := output.NewSection(w, output.Header{Title: s.title, Status: sr.Status, Elapsed: elapsed}, p.Color)
	for _, fn := range r.fns {
		fn(sec)
	}
	if err != nil {
		output.Failure(sec, err, p.Color)
		p.logger().Debug("step failed", "step", s.name, "error", err)
	}
	sec.Close()
	return sr
}

func (p *Pipeline) summary(res *Result) {
	w := p.out()
	status := output.StatusSuccess
	for _, s := range res.Steps {
		if s.Status == output.StatusFailed {
			status = output.StatusFailed
		}
	}
	sec := output.NewSection(w, output.Header{Title: "Summary", Status: status}, p.Color)
	for _, s := range res.Steps {
		output.SummaryRow(w, s.Name, s.Status, s.Detail, p.Color)
	}
	sec.Separator()
	output.SummaryTotal(w, res.Duration, status, p.Color)
	sec.Close()
}

// ── Steps ────────────────────────────────────────────────────────────────

func (p *Pipeline) detect(_ context.Context, _ *state, r *rows) (string, error) {
	c := p.Config
	if c.DetectedUnknown {
		r.warn("unrecognized platform, using the generic flat layout without an icon")
	}
	r.kv("platform", string(c.Platform))
	r.kv("mode", string(c.Mode))
	r.kv("layout", string(c.Layout()))
	v := c.VersionInfo
	r.kv("version", fmt.Sprintf("%s (%s)", c.Version, v.Kind()))
	if v.Base != "" && v.Base != c.Version {
		r.kv("base", v.Base)
	}
	if v.Tag != "" {
		r.kv("git tag", v.Tag)
	}
	if v.SHA != "" {
		r.kv("commit", v.SHA)
	}
	r.kv("artifact", p.rel(c.ArtifactPath()))
	r.kv("icon", orNone(p.rel(c.Icon)))
	if c.Platform == platform.Windows {
		r.kv("version file", orNone(p.rel(c.VersionFile)))
	}
	if c.Debug {
		r.kv("console", "on (debug)")
	}
	return fmt.Sprintf("%s, %s → %s", c.Platform, c.Mode, c.Layout()), nil
}

func (p *Pipeline) environment(_ context.Context, st *state, r *rows) (string, error) {
	c := p.Config
	env, err := pyenv.Activate(c.Root, c.Venv, c.Platform, p.logger())
	if err != nil {
		return "", err
	}
	st.env = env
	r.kv("venv", p.rel(env.Dir))
	r.kv("python", p.rel(env.Python()))
	return c.Venv, nil
}

func (p *Pipeline) dependencies(ctx context.Context, st *state, r *rows) (string, error) {
	c := p.Config
	spec, err := c.DependencySpec()
	if err != nil {
		return "", &step.Error{
			Step: "dependencies",
			Kind: step.DependencyInstallFailed,
			Hint: "fix the syntax of " + c.Requirements,
			Err:  err,
		}
	}
	if spec.Source != "" {
		r.kv("manifest", p.rel(spec.Source))
	} else {
		r.warn("no requirements.txt or pyproject.toml, only %s is checked", spec.Tool.Name)
	}

	sync := &dependency.Synchronizer{Runner: p.Runner, Env: st.env, Root: c.Root, Logger: p.logger()}
	report, err := sync.Sync(ctx, spec, c.Requirements)
	if err != nil {
		return "", err
	}
	if report.Tool != "" {
		r.kv("tool", spec.Tool.Name+" "+report.Tool)
	}
	r.kv("verified", fmt.Sprintf("%d", len(report.Verified)))
	for _, req := range report.Installed {
		r.kv("installed", req.String())
	}
	return fmt.Sprintf("%d verified, %d installed", len(report.Verified), len(report.Installed)), nil
}

func (p *Pipeline) clean(_ context.Context, _ *state, r *rows) (string, error) {
	removals, err := artifact.Clean(p.Config.CleanTargets(), p.logger())
	removed, absent := 0, 0
	for _, rm := range removals {
		if rm.Removed {
			removed++
			r.kv("removed", p.rel(rm.Path))
		} else {
			absent++
			r.add("%-14s %s", "absent", output.Dimmed(p.rel(rm.Path), p.Color))
		}
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d removed, %d absent", removed, absent), nil
}

func (p *Pipeline) pack(ctx context.Context, st *state, r *rows) (string, error) {
	c := p.Config
	o := c.FreezeOptions()
	m := c.Manifest

	if c.Mode == platform.Folder {
		if err := p.prepareDescriptor(o, m, r); err != nil {
			return "", err
		}
		r.kv("descriptor", p.rel(o.Descriptor))
	}
	r.kv("data", fmt.Sprintf("%d tree(s)", len(m.Data)))
	r.kv("hidden", fmt.Sprintf("%d import(s)", len(m.HiddenImports)))
	if o.ArgvEmulation() {
		r.kv("argv emulation", "on")
	}

	if err := freeze.Invoke(ctx, p.Runner, st.env, o, m); err != nil {
		return "", err
	}
	if !exists(c.ArtifactPath()) {
		return "", &step.Error{
			Step: "package",
			Kind: step.PackagingFailed,
			Hint: "check the PyInstaller output above; the expected artifact was not produced",
			Err:  fmt.Errorf("%s not found after packaging", p.rel(c.ArtifactPath())),
		}
	}
	r.kv("artifact", p.rel(c.ArtifactPath()))
	return string(c.Mode), nil
}

// prepareDescriptor renders the folder-mode descriptor from the canonical
// manifest, or checks a hand-maintained one for drift.
func (p *Pipeline) prepareDescriptor(o freeze.Options, m freeze.Manifest, r *rows) error {
	if p.Config.Descriptor == "" {
		if err := freeze.WriteDescriptor(o, m); err != nil {
			return &step.Error{Step: "package", Kind: step.PackagingFailed, Err: err}
		}
		return nil
	}

	current, err := os.ReadFile(o.Descriptor)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &step.Error{
				Step: "package",
				Kind: step.ResourceMissing,
				Hint: "generate it with: mdpack descriptor -o " + p.rel(o.Descriptor),
				Err:  fmt.Errorf("descriptor %s not found", p.rel(o.Descriptor)),
			}
		}
		return &step.Error{Step: "package", Kind: step.PackagingFailed, Err: err}
	}
	var want bytes.Buffer
	if err := freeze.RenderDescriptor(&want, o, m); err != nil {
		return &step.Error{Step: "package", Kind: step.PackagingFailed, Err: err}
	}
	if !bytes.Equal(current, want.Bytes()) {
		r.warn("%s differs from the onefile declarations; see mdpack descriptor --check", p.rel(o.Descriptor))
		p.logger().Warn("descriptor drift", "path", o.Descriptor)
	}
	return nil
}

func (p *Pipeline) assemble(_ context.Context, st *state, r *rows) (string, error) {
	c := p.Config
	target := c.AssemblyTarget()
	copied, err := bundle.Assemble(target, c.Resources, c.Root, p.logger())
	st.copied = copied
	r.kv("destination", p.rel(target.DestinationRoot()))
	for _, dst := range copied {
		r.kv("copied", p.rel(dst))
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d resource(s)", len(copied)), nil
}

// report measures the artifact. It never fails the run.
func (p *Pipeline) report(_ context.Context, st *state, r *rows) (string, error) {
	c := p.Config
	a := &Artifact{
		Path:       c.ArtifactPath(),
		Layout:     c.Layout(),
		Executable: c.Executable(),
		Resources:  st.copied,
		Locales:    i18n.Languages(filepath.Join(c.ResourceRoot(), "locale")),
	}
	size, err := artifact.Measure(a.Path)
	if err != nil {
		p.logger().Warn("measuring artifact failed", "path", a.Path, "error", err)
		a.SizeBytes = -1
	} else {
		a.SizeBytes = size
	}
	if entries, err := artifact.Tree(a.Path); err != nil {
		p.logger().Warn("listing artifact failed", "path", a.Path, "error", err)
	} else {
		a.Entries = len(entries)
	}
	st.artifact = a

	rep := output.ArtifactReport{
		Path:      p.rel(a.Path),
		Layout:    string(a.Layout),
		Locales:   a.Locales,
		Resources: len(a.Resources),
		Entries:   a.Entries,
	}
	if a.Executable != a.Path {
		rep.Executable = p.rel(a.Executable)
	}
	if a.SizeBytes >= 0 {
		rep.Size = artifact.FormatBytes(a.SizeBytes)
	}
	r.fns = append(r.fns, func(s *output.Section) { output.SectionArtifact(s, rep, r.color) })

	if rep.Size == "" {
		return p.rel(a.Path), nil
	}
	return fmt.Sprintf("%s, %s", p.rel(a.Path), rep.Size), nil
}

// plan prints what a real run would do. Nothing is written or removed.
func (p *Pipeline) plan(_ context.Context, st *state, r *rows) (string, error) {
	c := p.Config
	o := c.FreezeOptions()

	spec, err := c.DependencySpec()
	if err != nil {
		r.warn("reading dependencies: %v", err)
	} else {
		r.kv("requires", strings.Join(spec.Names(), ", "))
	}
	for _, t := range c.CleanTargets() {
		r.kv("would remove", p.rel(t))
	}
	if c.Mode == platform.Folder {
		verb := "would render"
		if c.Descriptor != "" {
			verb = "would use"
		}
		r.kv(verb, p.rel(o.Descriptor))
	}
	r.kv("command", freeze.Command(st.env, o, c.Manifest).String())
	r.kv("resources", p.rel(c.ResourceRoot()))
	return "dry run", nil
}

// ── helpers ──────────────────────────────────────────────────────────────

func (p *Pipeline) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// rel shortens paths below the project root for display.
func (p *Pipeline) rel(path string) string {
	if path == "" {
		return ""
	}
	if r, err := filepath.Rel(p.Config.Root, path); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return path
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func failureDetail(err error) string {
	if k, ok := step.KindOf(err); ok {
		return string(k)
	}
	return "error"
}
