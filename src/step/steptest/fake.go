// Package steptest provides a scripted step.Runner for tests.
package steptest

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"sync"

	"github.com/schulle4u/multideck-packager/src/step"
)

// Matcher selects commands.
type Matcher func(step.Command) bool

// Action is what a matched command does instead of running.
type Action func(step.Command) error

type rule struct {
	match Matcher
	do    Action
}

// Fake records every command and answers from rules. The first matching
// rule wins; unmatched commands succeed.
type Fake struct {
	mu    sync.Mutex
	calls []step.Command
	rules []rule
}

// On adds a rule.
func (f *Fake) On(match Matcher, do Action) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{match: match, do: do})
	return f
}

// Run implements step.Runner.
func (f *Fake) Run(_ context.Context, cmd step.Command) error {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	rules := slices.Clone(f.rules)
	f.mu.Unlock()

	for _, r := range rules {
		if r.match(cmd) {
			return r.do(cmd)
		}
	}
	return nil
}

// Calls returns a copy of the recorded commands.
func (f *Fake) Calls() []step.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Count returns how many recorded commands match.
func (f *Fake) Count(match Matcher) int {
	n := 0
	for _, c := range f.Calls() {
		if match(c) {
			n++
		}
	}
	return n
}

// Args matches commands whose arguments contain parts as a contiguous run.
func Args(parts ...string) Matcher {
	return func(c step.Command) bool {
		if len(parts) == 0 {
			return true
		}
		for i := 0; i+len(parts) <= len(c.Args); i++ {
			if slices.Equal(c.Args[i:i+len(parts)], parts) {
				return true
			}
		}
		return false
	}
}

// Program matches on the base name of the executable.
func Program(name string) Matcher {
	return func(c step.Command) bool { return filepath.Base(c.Name) == name }
}

// Any matches every command.
func Any() Matcher { return func(step.Command) bool { return true } }

// Exit fails the command with the given status.
func Exit(code int) Action {
	return func(c step.Command) error {
		return &step.ExitError{Command: filepath.Base(c.Name), Code: code}
	}
}

// Stdout writes s to the command's stdout and succeeds.
func Stdout(s string) Action {
	return func(c step.Command) error {
		if c.Stdout != nil {
			_, err := io.WriteString(c.Stdout, s)
			return err
		}
		return nil
	}
}

// Do runs fn and succeeds unless fn fails.
func Do(fn func(step.Command) error) Action { return fn }
