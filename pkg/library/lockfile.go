package library

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockFileName is written next to yuho.yml.
const LockFileName = "yuho.lock"

// Lockfile records the exact commit installed for every library.
type Lockfile struct {
	Path      string
	Generated string
	Packages  []*LockedPackage
}

// LockedPackage is one installed library.
type LockedPackage struct {
	Name     string
	Version  string
	Source   string
	Commit   string
	Checksum string
}

func NewLockfile() *Lockfile {
	return &Lockfile{Generated: time.Now().UTC().Format(time.RFC3339)}
}

// LoadLockfile parses yuho.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}
	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile serialises lock to path, or to lock.Path when path is empty.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), LockFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the entry for name, or nil.
func (l *Lockfile) Find(name string) *LockedPackage {
	if l == nil {
		return nil
	}
	for _, pkg := range l.Packages {
		if pkg != nil && pkg.Name == name {
			return pkg
		}
	}
	return nil
}

// Put adds pkg, replacing any entry with the same name.
func (l *Lockfile) Put(pkg *LockedPackage) {
	for i, existing := range l.Packages {
		if existing != nil && existing.Name == pkg.Name {
			l.Packages[i] = pkg
			return
		}
	}
	l.Packages = append(l.Packages, pkg)
	l.normalize()
}

// Remove drops the entry for name and reports whether one existed.
func (l *Lockfile) Remove(name string) bool {
	for i, pkg := range l.Packages {
		if pkg != nil && pkg.Name == name {
			l.Packages = append(l.Packages[:i], l.Packages[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Lockfile) normalize() {
	if l == nil {
		return
	}
	l.Generated = strings.TrimSpace(l.Generated)
	sort.SliceStable(l.Packages, func(i, j int) bool {
		return l.Packages[i].Name < l.Packages[j].Name
	})
}

func (l *Lockfile) toDisk() lockfileDisk {
	pkgs := make([]lockfilePackage, 0, len(l.Packages))
	for _, pkg := range l.Packages {
		if pkg == nil {
			continue
		}
		pkgs = append(pkgs, lockfilePackage{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Source:   pkg.Source,
			Commit:   pkg.Commit,
			Checksum: pkg.Checksum,
		})
	}
	return lockfileDisk{Generated: l.Generated, Packages: pkgs}
}

type lockfileDisk struct {
	Generated string            `yaml:"generated"`
	Packages  []lockfilePackage `yaml:"packages"`
}

type lockfilePackage struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Source   string `yaml:"source"`
	Commit   string `yaml:"commit"`
	Checksum string `yaml:"checksum"`
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Generated: strings.TrimSpace(d.Generated),
		Packages:  make([]*LockedPackage, 0, len(d.Packages)),
	}
	for _, pkg := range d.Packages {
		lock.Packages = append(lock.Packages, &LockedPackage{
			Name:     strings.TrimSpace(pkg.Name),
			Version:  strings.TrimSpace(pkg.Version),
			Source:   strings.TrimSpace(pkg.Source),
			Commit:   strings.TrimSpace(pkg.Commit),
			Checksum: strings.TrimSpace(pkg.Checksum),
		})
	}
	lock.normalize()
	return lock
}
