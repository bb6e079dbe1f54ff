package step

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Command is a single external tool invocation.
type Command struct {
	Name   string   // executable path or name resolved via PATH
	Args   []string // arguments, in order
	Dir    string   // working directory, empty for the current one
	Env    []string // full environment, nil inherits the process environment
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs and dry runs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\"'") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Runner executes commands synchronously. A nonzero exit status is reported
// as *ExitError.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExitError reports a command that ran but exited nonzero.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// Exec runs commands through os/exec.
type Exec struct {
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
}

// NewExec creates an Exec runner with default output writers.
func NewExec(verbose bool, logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exec{
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  logger,
	}
}

// Run executes c and waits for it to finish.
func (x *Exec) Run(ctx context.Context, c Command) error {
	if x.Verbose {
		fmt.Fprintf(x.Stderr, "exec: %s\n", c)
	}

	//nolint:gosec // G204: commands are assembled from project config, not user input
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}
	cmd.Stdout = x.Stdout
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	cmd.Stderr = x.Stderr
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}

	start := time.Now()
	err := cmd.Run()
	name := filepath.Base(c.Name)
	x.Logger.Debug("command finished", "cmd", name, "duration", time.Since(start), "error", err)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: name, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("running %s: %w", name, err)
}
