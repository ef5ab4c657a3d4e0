package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"yuho/core-go/pkg/library"
)

func newLibraryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage statute libraries declared in yuho.yml",
	}
	cmd.AddCommand(newLibraryInstallCmd(a), newLibraryListCmd(a))
	return cmd
}

func newLibraryInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Fetch declared libraries into lib/ and update yuho.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lock, err := a.loadLockfile()
			if err != nil {
				return err
			}
			installer := library.NewInstaller(a.cfg.Root, library.WithLogger(a.log.WithName("library")))
			installed, err := installer.InstallAll(cmd.Context(), a.cfg.Libraries, lock)
			if err != nil {
				return err
			}
			for _, in := range installed {
				state := "installed"
				if in.Reused {
					state = "up to date"
				}
				fmt.Fprintf(a.stdout, "%s %s (%s)\n", in.Name, in.Version, state)
			}
			return library.WriteLockfile(lock, a.lockPath())
		},
	}
}

func newLibraryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List locked libraries and check them against the lib/ directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lock, err := a.loadLockfile()
			if err != nil {
				return err
			}
			if len(lock.Packages) == 0 {
				fmt.Fprintln(a.stdout, "no libraries installed")
				return nil
			}
			for _, pkg := range lock.Packages {
				fmt.Fprintf(a.stdout, "%s %s %s\n", pkg.Name, pkg.Version, pkg.Source)
			}
			problems := library.NewInstaller(a.cfg.Root).Verify(lock)
			for _, problem := range problems {
				fmt.Fprintf(a.stdout, "warning: %s\n", problem)
			}
			if len(problems) > 0 {
				return errFailed
			}
			return nil
		},
	}
}

func (a *app) lockPath() string {
	return filepath.Join(a.cfg.Root, library.LockFileName)
}

// loadLockfile reads yuho.lock, starting a fresh one when none exists yet.
func (a *app) loadLockfile() (*library.Lockfile, error) {
	lock, err := library.LoadLockfile(a.lockPath())
	if errors.Is(err, fs.ErrNotExist) {
		return library.NewLockfile(), nil
	}
	return lock, err
}
