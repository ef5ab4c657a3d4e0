package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yuho/core-go/pkg/config"
)

type sourceRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
}

func newSourceRepo(t *testing.T) *sourceRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &sourceRepo{t: t, dir: dir, repo: repo}
}

// commit writes name=contents and commits it, returning the commit hash.
func (s *sourceRepo) commit(name, contents string) plumbing.Hash {
	s.t.Helper()
	path := filepath.Join(s.dir, name)
	require.NoError(s.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(s.t, os.WriteFile(path, []byte(contents), 0o644))
	worktree, err := s.repo.Worktree()
	require.NoError(s.t, err)
	_, err = worktree.Add(name)
	require.NoError(s.t, err)
	hash, err := worktree.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Yuho", Email: "yuho@example.com", When: time.Now()},
	})
	require.NoError(s.t, err)
	return hash
}

func (s *sourceRepo) tag(name string, hash plumbing.Hash) {
	s.t.Helper()
	_, err := s.repo.CreateTag(name, hash, nil)
	require.NoError(s.t, err)
}

func readInstalled(t *testing.T, in *Installed, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(in.Dir, name))
	require.NoError(t, err)
	return string(data)
}

func statuteRepo(t *testing.T) (*sourceRepo, map[string]plumbing.Hash) {
	src := newSourceRepo(t)
	hashes := map[string]plumbing.Hash{}
	hashes["v1.0.0"] = src.commit("s415.json", "v1.0.0")
	src.tag("v1.0.0", hashes["v1.0.0"])
	hashes["v1.2.0"] = src.commit("s415.json", "v1.2.0")
	src.tag("v1.2.0", hashes["v1.2.0"])
	hashes["v2.0.0"] = src.commit("s415.json", "v2.0.0")
	src.tag("v2.0.0", hashes["v2.0.0"])
	src.tag("not-a-version", hashes["v1.0.0"])
	return src, hashes
}

func TestInstallSelectsHighestMatchingTag(t *testing.T) {
	src, hashes := statuteRepo(t)
	root := t.TempDir()
	inst := NewInstaller(root)

	in, err := inst.Install(context.Background(), config.Library{Name: "penal-code", Git: src.dir, Version: "^1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0@"+hashes["v1.2.0"].String(), in.Version)
	assert.Equal(t, hashes["v1.2.0"].String(), in.Commit)
	assert.Equal(t, filepath.Join(root, config.LibraryDir, "penal-code"), in.Dir)
	assert.Equal(t, "v1.2.0", readInstalled(t, in, "s415.json"))
	assert.NoDirExists(t, filepath.Join(in.Dir, ".git"))
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, in.Checksum)

	in, err = inst.Install(context.Background(), config.Library{Name: "penal-code", Git: src.dir})
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", readInstalled(t, in, "s415.json"), "no constraint picks the newest tag")

	_, err = inst.Install(context.Background(), config.Library{Name: "penal-code", Git: src.dir, Version: ">= 3.0.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tag satisfies version >= 3.0.0")
	assert.Equal(t, "v2.0.0", readInstalled(t, in, "s415.json"), "a failed install keeps the previous checkout")
}

func TestInstallPinnedRevisions(t *testing.T) {
	src, hashes := statuteRepo(t)
	inst := NewInstaller(t.TempDir())
	ctx := context.Background()

	in, err := inst.Install(ctx, config.Library{Name: "by-tag", Git: src.dir, Tag: "v1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", readInstalled(t, in, "s415.json"))

	in, err = inst.Install(ctx, config.Library{Name: "by-rev", Git: src.dir, Rev: hashes["v1.2.0"].String()})
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", readInstalled(t, in, "s415.json"))
	assert.Equal(t, hashes["v1.2.0"].String(), in.Version)

	head, err := src.repo.Head()
	require.NoError(t, err)
	in, err = inst.Install(ctx, config.Library{Name: "by-branch", Git: src.dir, Branch: head.Name().Short()})
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", readInstalled(t, in, "s415.json"))
}

func TestInstallAllReusesLockedCheckouts(t *testing.T) {
	src, _ := statuteRepo(t)
	root := t.TempDir()
	inst := NewInstaller(root)
	ctx := context.Background()
	libs := []config.Library{{Name: "penal-code", Git: src.dir, Version: "^1.0.0"}}

	lock := NewLockfile()
	lock.Put(&LockedPackage{Name: "stale", Version: "v0.1.0"})
	installed, err := inst.InstallAll(ctx, libs, lock)
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.False(t, installed[0].Reused)
	require.Len(t, lock.Packages, 1, "unconfigured libraries leave the lockfile")
	assert.Equal(t, "penal-code", lock.Packages[0].Name)

	installed, err = inst.InstallAll(ctx, libs, lock)
	require.NoError(t, err)
	assert.True(t, installed[0].Reused)
	assert.Empty(t, inst.Verify(lock))

	require.NoError(t, os.WriteFile(filepath.Join(installed[0].Dir, "s415.json"), []byte("tampered"), 0o644))
	assert.Equal(t, []string{"penal-code: contents differ from yuho.lock"}, inst.Verify(lock))

	installed, err = inst.InstallAll(ctx, libs, lock)
	require.NoError(t, err)
	assert.False(t, installed[0].Reused, "a modified checkout is reinstalled")
	assert.Equal(t, "v1.2.0", readInstalled(t, installed[0], "s415.json"))

	require.NoError(t, os.RemoveAll(installed[0].Dir))
	assert.Equal(t, []string{"penal-code: not installed"}, inst.Verify(lock))
}

func TestInstallRequiresNameAndURL(t *testing.T) {
	_, err := NewInstaller(t.TempDir()).Install(context.Background(), config.Library{Name: "x"})
	assert.Error(t, err)
}
