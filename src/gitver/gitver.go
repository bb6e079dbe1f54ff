// Package gitver derives the application version from git tags when the
// project configuration does not pin one.
package gitver

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Fallback is used when no version can be derived.
const Fallback = "0.0.0"

// VersionInfo holds resolved version metadata from git.
type VersionInfo struct {
	Version      string // full version: "1.2.3", "1.2.3-alpha.1", "1.2.3-dev+abc1234"
	Base         string // major.minor.patch: "1.2.3"
	Prerelease   string // "alpha.1", "rc.1", or "" for stable
	Tag          string // tag the version was read from, "" when untagged
	SHA          string // short HEAD hash
	IsRelease    bool   // HEAD is exactly at the tag
	IsPrerelease bool
}

// DetectVersion resolves version info from the nearest semver tag reachable
// from HEAD. Among several tags on the same commit the highest wins. Off a
// tag the version gets a "-dev+<sha>" suffix; without any tag it is
// "0.0.0-dev+<sha>".
func DetectVersion(rootDir string) (*VersionInfo, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	v := &VersionInfo{SHA: head.Hash().String()[:7]}

	tagged, err := semverTags(repo)
	if err != nil {
		return nil, err
	}

	var found *taggedVersion
	commits, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("walking history: %w", err)
	}
	err = commits.ForEach(func(c *object.Commit) error {
		if tv, ok := tagged[c.Hash]; ok {
			found = tv
			v.IsRelease = c.Hash == head.Hash()
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking history: %w", err)
	}

	if found == nil {
		v.Base = Fallback
		v.Version = fmt.Sprintf("%s-dev+%s", Fallback, v.SHA)
		return v, nil
	}

	sv := found.version
	v.Tag = found.name
	v.Base = fmt.Sprintf("%d.%d.%d", sv.Major(), sv.Minor(), sv.Patch())
	v.Prerelease = sv.Prerelease()
	v.IsPrerelease = v.Prerelease != ""
	v.Version = v.Base
	if v.IsPrerelease {
		v.Version += "-" + v.Prerelease
	}
	if !v.IsRelease {
		v.Version = fmt.Sprintf("%s-dev+%s", v.Version, v.SHA)
	}
	return v, nil
}

// Resolve returns pinned when set, otherwise the git-derived version, and
// Fallback when rootDir is not a repository or has no commits.
func Resolve(rootDir, pinned string, logger *slog.Logger) VersionInfo {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if pinned != "" {
		return Pinned(pinned)
	}
	v, err := DetectVersion(rootDir)
	switch {
	case err == nil:
		return *v
	case IsNotRepository(err):
		logger.Debug("not a git repository, using fallback version", "dir", rootDir)
	default:
		logger.Warn("deriving version from git failed", "dir", rootDir, "error", err)
	}
	return VersionInfo{Version: Fallback, Base: Fallback}
}

// Pinned describes a version set in the project config. It counts as a
// release; non-semver strings keep Base equal to the full version.
func Pinned(version string) VersionInfo {
	v := VersionInfo{Version: version, Base: version, IsRelease: true}
	if sv, err := semver.NewVersion(version); err == nil {
		v.Base = fmt.Sprintf("%d.%d.%d", sv.Major(), sv.Minor(), sv.Patch())
		v.Prerelease = sv.Prerelease()
		v.IsPrerelease = v.Prerelease != ""
	}
	return v
}

// Kind labels the build for reports: "release", "prerelease <id>" or
// "development".
func (v VersionInfo) Kind() string {
	switch {
	case !v.IsRelease:
		return "development"
	case v.IsPrerelease:
		return "prerelease " + v.Prerelease
	}
	return "release"
}

// IsNotRepository reports whether err means rootDir holds no git repository.
func IsNotRepository(err error) bool {
	return errors.Is(err, git.ErrRepositoryNotExists)
}

type taggedVersion struct {
	name    string
	version *semver.Version
}

// semverTags maps commit hashes to the highest semver tag pointing at them.
// Annotated tags are peeled to their commit; non-semver tags are ignored.
func semverTags(repo *git.Repository) (map[plumbing.Hash]*taggedVersion, error) {
	refs, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	byCommit := make(map[plumbing.Hash][]*taggedVersion)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		sv, perr := semver.NewVersion(name)
		if perr != nil {
			return nil
		}
		hash := ref.Hash()
		if tag, terr := repo.TagObject(hash); terr == nil {
			c, cerr := tag.Commit()
			if cerr != nil {
				return nil
			}
			hash = c.Hash
		}
		byCommit[hash] = append(byCommit[hash], &taggedVersion{name: name, version: sv})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	out := make(map[plumbing.Hash]*taggedVersion, len(byCommit))
	for h, tvs := range byCommit {
		sort.Slice(tvs, func(i, j int) bool { return tvs[i].version.GreaterThan(tvs[j].version) })
		out[h] = tvs[0]
	}
	return out, nil
}
