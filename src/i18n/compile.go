package i18n

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/schulle4u/multideck-packager/src/platform"
	"github.com/schulle4u/multideck-packager/src/step"
)

// Result is the outcome of compiling one catalog.
type Result struct {
	Catalog Catalog
	Err     error
}

// Compiler runs msgfmt over catalogs with bounded concurrency.
type Compiler struct {
	Runner   step.Runner
	Platform platform.Platform
	Jobs     int
	Logger   *slog.Logger

	// LookPath locates msgfmt; nil uses exec.LookPath.
	LookPath func(string) (string, error)
}

// MsgfmtHint tells the operator how to install gettext on p.
func MsgfmtHint(p platform.Platform) string {
	switch p {
	case platform.Windows:
		return "install gettext from https://mlocati.github.io/articles/gettext-iconv-windows.html"
	case platform.MacOS:
		return "install gettext with: brew install gettext"
	default:
		return "install gettext with your package manager, e.g. sudo apt-get install gettext"
	}
}

// Compile compiles every catalog, continuing past individual failures.
// Results keep the input order. The error joins every failure.
func (c *Compiler) Compile(ctx context.Context, catalogs []Catalog) ([]Result, error) {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	msgfmt, err := lookPath("msgfmt")
	if err != nil {
		return nil, &step.Error{
			Step: "translations",
			Kind: step.EnvironmentMissing,
			Hint: MsgfmtHint(c.Platform),
			Err:  errors.New("msgfmt not found"),
		}
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	jobs := c.Jobs
	if jobs < 1 {
		jobs = 1
	}

	results := make([]Result, len(catalogs))
	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, cat := range catalogs {
		g.Go(func() error {
			cmd := step.Command{Name: msgfmt, Args: []string{"-o", cat.MO, cat.PO}}
			err := step.Check(step.PackagingFailed, "translations", c.Runner.Run(gctx, cmd), "")
			results[i] = Result{Catalog: cat, Err: err}
			if err != nil {
				logger.Warn("compiling catalog failed", "po", cat.PO, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", cat.PO, err))
				mu.Unlock()
				return nil
			}
			logger.Debug("compiled catalog", "po", cat.PO, "mo", cat.MO)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}
