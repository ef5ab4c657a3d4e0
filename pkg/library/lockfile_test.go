package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockfileWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)
	lock := NewLockfile()
	lock.Put(&LockedPackage{Name: "penal-code", Version: "v1.2.0@abc", Source: "git+https://example.com/p.git@abc", Commit: "abc", Checksum: "sha256:00"})
	lock.Put(&LockedPackage{Name: "evidence", Version: "v2.0.0@def", Commit: "def"})
	lock.Put(&LockedPackage{Name: "penal-code", Version: "v1.3.0@123", Commit: "123"})
	require.NoError(t, WriteLockfile(lock, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  - name: evidence\n")

	loaded, err := LoadLockfile(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded.Path)
	assert.Equal(t, lock.Generated, loaded.Generated)
	require.Len(t, loaded.Packages, 2)
	assert.Equal(t, "evidence", loaded.Packages[0].Name)
	assert.Equal(t, "v1.3.0@123", loaded.Find("penal-code").Version)
	assert.Nil(t, loaded.Find("missing"))

	assert.True(t, loaded.Remove("evidence"))
	assert.False(t, loaded.Remove("evidence"))
	require.NoError(t, WriteLockfile(loaded, ""))
	reloaded, err := LoadLockfile(path)
	require.NoError(t, err)
	assert.Len(t, reloaded.Packages, 1)
}

func TestLoadLockfileRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)
	require.NoError(t, os.WriteFile(path, []byte("generated: now\nregistry: x\n"), 0o644))
	_, err := LoadLockfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lockfile: parse")
}

func TestWriteLockfileNeedsPath(t *testing.T) {
	assert.Error(t, WriteLockfile(NewLockfile(), ""))
	assert.Error(t, WriteLockfile(nil, "x"))
}
