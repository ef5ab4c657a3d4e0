// Package library installs git-hosted statute libraries into a project's
// lib/ directory and records them in yuho.lock.
package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-logr/logr"

	"yuho/core-go/pkg/config"
)

// Installed describes a library checkout on disk.
type Installed struct {
	Name     string
	Version  string
	Commit   string
	Source   string
	Checksum string
	Dir      string
	// Reused is set when the locked checkout was kept as is.
	Reused bool
}

func (in *Installed) locked() *LockedPackage {
	return &LockedPackage{
		Name:     in.Name,
		Version:  in.Version,
		Source:   in.Source,
		Commit:   in.Commit,
		Checksum: in.Checksum,
	}
}

// Installer clones libraries into <root>/lib/<name>.
type Installer struct {
	root string
	log  logr.Logger
}

type Option func(*Installer)

func WithLogger(log logr.Logger) Option {
	return func(i *Installer) {
		i.log = log
	}
}

func NewInstaller(root string, opts ...Option) *Installer {
	i := &Installer{root: root, log: logr.Discard()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Dir is where the named library lives.
func (i *Installer) Dir(name string) string {
	return filepath.Join(i.root, config.LibraryDir, name)
}

// InstallAll installs every library, keeping locked checkouts that still
// satisfy their declaration and match their recorded checksum. lock is
// updated in place; entries for libraries no longer configured are dropped.
func (i *Installer) InstallAll(ctx context.Context, libs []config.Library, lock *Lockfile) ([]*Installed, error) {
	wanted := make(map[string]bool, len(libs))
	var out []*Installed
	for _, lib := range libs {
		wanted[lib.Name] = true
		if in := i.reusable(lib, lock.Find(lib.Name)); in != nil {
			i.log.V(1).Info("library up to date", "name", lib.Name, "version", in.Version)
			out = append(out, in)
			continue
		}
		in, err := i.Install(ctx, lib)
		if err != nil {
			return out, err
		}
		lock.Put(in.locked())
		out = append(out, in)
	}
	for _, pkg := range append([]*LockedPackage(nil), lock.Packages...) {
		if !wanted[pkg.Name] {
			lock.Remove(pkg.Name)
		}
	}
	return out, nil
}

func (i *Installer) reusable(lib config.Library, locked *LockedPackage) *Installed {
	if locked == nil || locked.Source != sourceFor(lib.Git, locked.Commit) {
		return nil
	}
	switch {
	case lib.Rev != "":
		if !strings.HasPrefix(locked.Commit, lib.Rev) {
			return nil
		}
	case lib.Branch != "":
		// branches move
		return nil
	case lib.Tag != "":
		if !strings.HasPrefix(locked.Version, lib.Tag+"@") {
			return nil
		}
	case lib.Version != "":
		c, err := semver.NewConstraint(lib.Version)
		if err != nil {
			return nil
		}
		v, err := semver.NewVersion(strings.SplitN(locked.Version, "@", 2)[0])
		if err != nil || !c.Check(v) {
			return nil
		}
	}
	dir := i.Dir(lib.Name)
	sum, err := dirChecksum(dir)
	if err != nil || sum != locked.Checksum {
		return nil
	}
	return &Installed{
		Name:     locked.Name,
		Version:  locked.Version,
		Commit:   locked.Commit,
		Source:   locked.Source,
		Checksum: locked.Checksum,
		Dir:      dir,
		Reused:   true,
	}
}

// Install clones lib, checks out the selected revision and replaces any
// previous installation.
func (i *Installer) Install(ctx context.Context, lib config.Library) (*Installed, error) {
	url := strings.TrimSpace(lib.Git)
	if lib.Name == "" || url == "" {
		return nil, fmt.Errorf("library: name and git URL are required")
	}
	libDir := filepath.Join(i.root, config.LibraryDir)
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	tmpDir, err := os.MkdirTemp(libDir, ".fetch-*")
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	defer os.RemoveAll(tmpDir)
	if err := os.RemoveAll(tmpDir); err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}

	i.log.Info("cloning library", "name", lib.Name, "url", url)
	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("library %s: git clone %s: %w", lib.Name, url, err)
	}

	revision, descriptor, err := selectRevision(repo, lib)
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", lib.Name, err)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		return nil, fmt.Errorf("library %s: resolve revision %s: %w", lib.Name, revision, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", lib.Name, err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return nil, fmt.Errorf("library %s: git checkout %s: %w", lib.Name, revision, err)
	}
	if err := os.RemoveAll(filepath.Join(tmpDir, git.GitDirName)); err != nil {
		return nil, fmt.Errorf("library %s: %w", lib.Name, err)
	}

	checksum, err := dirChecksum(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", lib.Name, err)
	}
	target := i.Dir(lib.Name)
	if err := os.RemoveAll(target); err != nil {
		return nil, fmt.Errorf("library %s: %w", lib.Name, err)
	}
	if err := os.Rename(tmpDir, target); err != nil {
		return nil, fmt.Errorf("library %s: %w", lib.Name, err)
	}

	commit := hash.String()
	in := &Installed{
		Name:     lib.Name,
		Version:  pinnedVersion(descriptor, commit),
		Commit:   commit,
		Source:   sourceFor(url, commit),
		Checksum: checksum,
		Dir:      target,
	}
	i.log.Info("installed library", "name", in.Name, "version", in.Version)
	return in, nil
}

// Verify compares every locked library on disk with its recorded checksum
// and returns one message per mismatch.
func (i *Installer) Verify(lock *Lockfile) []string {
	var problems []string
	for _, pkg := range lock.Packages {
		sum, err := dirChecksum(i.Dir(pkg.Name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			problems = append(problems, fmt.Sprintf("%s: not installed", pkg.Name))
		case err != nil:
			problems = append(problems, fmt.Sprintf("%s: %v", pkg.Name, err))
		case sum != pkg.Checksum:
			problems = append(problems, fmt.Sprintf("%s: contents differ from %s", pkg.Name, LockFileName))
		}
	}
	return problems
}

// selectRevision picks rev, then tag, then branch, then the highest semver
// tag satisfying Version, then HEAD.
func selectRevision(repo *git.Repository, lib config.Library) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(lib.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(lib.Tag); tag != "" {
		return plumbing.Revision(plumbing.NewTagReferenceName(tag)), tag, nil
	}
	if branch := strings.TrimSpace(lib.Branch); branch != "" {
		return plumbing.Revision(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch)), branch, nil
	}
	tags, err := semverTags(repo)
	if err != nil {
		return "", "", err
	}
	if lib.Version == "" {
		if len(tags) == 0 {
			return plumbing.Revision(plumbing.HEAD), "", nil
		}
		best := tags[len(tags)-1]
		return plumbing.Revision(plumbing.NewTagReferenceName(best.name)), best.name, nil
	}
	constraint, err := semver.NewConstraint(lib.Version)
	if err != nil {
		return "", "", fmt.Errorf("version %q: %w", lib.Version, err)
	}
	for j := len(tags) - 1; j >= 0; j-- {
		if constraint.Check(tags[j].version) {
			return plumbing.Revision(plumbing.NewTagReferenceName(tags[j].name)), tags[j].name, nil
		}
	}
	return "", "", fmt.Errorf("no tag satisfies version %s", lib.Version)
}

type versionTag struct {
	name    string
	version *semver.Version
}

// semverTags lists tags that parse as semantic versions, lowest first.
func semverTags(repo *git.Repository) ([]versionTag, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	var tags []versionTag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if v, err := semver.NewVersion(name); err == nil {
			tags = append(tags, versionTag{name: name, version: v})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	sort.Slice(tags, func(a, b int) bool {
		return tags[a].version.LessThan(tags[b].version)
	})
	return tags, nil
}

func pinnedVersion(descriptor, commit string) string {
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return descriptor + "@" + commit
}

func sourceFor(url, commit string) string {
	return fmt.Sprintf("git+%s@%s", url, commit)
}

// dirChecksum hashes relative paths and file contents in lexical order.
func dirChecksum(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}
	h := sha256.New()
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == git.GitDirName {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		io.WriteString(h, filepath.ToSlash(rel))
		h.Write([]byte{0})
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(h, f); err != nil {
			return err
		}
		h.Write([]byte{0})
		return nil
	})
	if err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
