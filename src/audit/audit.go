// Package audit inspects the resources about to be shipped inside the
// artifact: leaked credentials, merge leftovers, invisible characters and
// filenames that collide on case-insensitive filesystems.
package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxFileSize skips files larger than this (compiled catalogs and
// media are binary anyway).
const DefaultMaxFileSize = 2 << 20

// Scanner runs checks over the files below a set of sources.
type Scanner struct {
	Root        string
	MaxFileSize int64
	Checks      []Check
}

// NewScanner creates a scanner for sources below root with every check
// enabled.
func NewScanner(root string) *Scanner {
	return &Scanner{Root: root, MaxFileSize: DefaultMaxFileSize, Checks: DefaultChecks()}
}

// Scan inspects every regular text file below the given sources (files or
// directories, relative to Root). Absent sources are skipped. Findings are
// sorted by file, line and column. The count is the number of files found.
func (s *Scanner) Scan(ctx context.Context, sources []string) ([]Finding, int, error) {
	files, err := s.collect(sources)
	if err != nil {
		return nil, 0, err
	}

	rels := make([]string, len(files))
	for i, f := range files {
		rels[i] = s.rel(f)
	}
	findings := Collisions(rels)

	sem := semaphore.NewWeighted(int64(runtime.NumCPU()))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i, f := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(abs, rel string) {
			defer wg.Done()
			defer sem.Release(1)

			got, err := s.scanFile(abs, rel)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			findings = append(findings, got...)
		}(f, rels[i])
	}
	wg.Wait()

	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return findings, len(files), errors.Join(errs...)
}

func (s *Scanner) rel(abs string) string {
	rel, err := filepath.Rel(s.Root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (s *Scanner) collect(sources []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, src := range sources {
		abs := src
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(s.Root, src)
		}
		if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() && !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", src, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// scanFile runs every check and keeps going past a failing one.
func (s *Scanner) scanFile(abs, rel string) ([]Finding, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if s.MaxFileSize > 0 && info.Size() > s.MaxFileSize {
		return nil, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, nil
	}

	f := File{Path: rel, Data: data}
	var (
		out  []Finding
		errs []error
	)
	for _, c := range s.Checks {
		got, err := c.Check(f)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %s: %w", c.Name(), rel, err))
			continue
		}
		out = append(out, got...)
	}
	return out, errors.Join(errs...)
}
