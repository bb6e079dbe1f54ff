// Package artifact removes stale build output and measures what a build
// produced.
package artifact

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/schulle4u/multideck-packager/src/step"
)

// Removal records what Clean did with one path.
type Removal struct {
	Path    string
	Removed bool      // false means the path was absent
	Kind    step.Kind // step.CleanupSkipped when nothing was there
}

// Clean recursively deletes each path that exists. Absent paths are
// recorded as step.CleanupSkipped and never fail; a path that exists but
// cannot be removed fails with step.CleanupFailed.
func Clean(paths []string, logger *slog.Logger) ([]Removal, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	removals := make([]Removal, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Lstat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Info("nothing to clean", "path", p, "kind", step.CleanupSkipped)
				removals = append(removals, Removal{Path: p, Kind: step.CleanupSkipped})
				continue
			}
			return removals, &step.Error{Step: "clean", Kind: step.CleanupFailed, Err: err}
		}

		if err := os.RemoveAll(p); err != nil {
			return removals, &step.Error{
				Step: "clean",
				Kind: step.CleanupFailed,
				Hint: "close programs holding files in " + p + " and rerun",
				Err:  err,
			}
		}
		logger.Debug("removed", "path", p)
		removals = append(removals, Removal{Path: p, Removed: true})
	}
	return removals, nil
}
