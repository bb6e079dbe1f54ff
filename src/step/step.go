// Package step holds the failure contract shared by every pipeline step:
// a small error taxonomy and the one wrapper applied to every external call.
package step

import (
	"errors"
	"fmt"
)

// Kind classifies a step failure.
type Kind string

const (
	// EnvironmentMissing means the isolated Python environment is absent.
	EnvironmentMissing Kind = "EnvironmentMissing"
	// DependencyInstallFailed means pip returned nonzero.
	DependencyInstallFailed Kind = "DependencyInstallFailed"
	// PackagingFailed means PyInstaller returned nonzero.
	PackagingFailed Kind = "PackagingFailed"
	// CleanupSkipped is informational: there was nothing to remove.
	CleanupSkipped Kind = "CleanupSkipped"
	// CleanupFailed means a stale directory exists but could not be removed.
	CleanupFailed Kind = "CleanupFailed"
	// ResourceMissing means a resource marked required has no source.
	ResourceMissing Kind = "ResourceMissing"
)

// Fatal reports whether a failure of this kind aborts the pipeline.
func (k Kind) Fatal() bool {
	return k != CleanupSkipped
}

// Error is a classified step failure.
type Error struct {
	Step string // pipeline step that failed, e.g. "package"
	Kind Kind
	Hint string // remediation shown to the operator, may be empty
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Step, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Check is the uniform contract for external invocations: a nil err passes
// through, anything else fails the named step with kind. Errors that are
// already classified keep their original kind.
func Check(kind Kind, name string, err error, hint string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Step: name, Kind: kind, Hint: hint, Err: err}
}

// KindOf extracts the Kind of a classified error.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// Is reports whether err is a step failure of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
