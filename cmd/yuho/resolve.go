package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <entry>",
		Short: "Print the modules and imported symbols reached from an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := a.newResolver().Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "main: %s\n", a.display(resolved.MainPath))
			modules := resolved.ModulePaths()
			fmt.Fprintf(a.stdout, "modules: %d\n", len(modules))
			for _, path := range modules {
				fmt.Fprintf(a.stdout, "  %s\n", a.display(path))
			}
			names := make([]string, 0, len(resolved.Symbols))
			for name := range resolved.Symbols {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(a.stdout, "symbols: %d\n", len(names))
			for _, name := range names {
				fmt.Fprintf(a.stdout, "  %s -> %s\n", name, a.display(resolved.Symbols[name]))
			}
			return nil
		},
	}
}

func newConflictsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts <file1> <file2>",
		Short: "Report definitions two files disagree on",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.compareFiles(a.cfg.Root, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, report.Format())
			if report.HasConflicts() {
				return errFailed
			}
			return nil
		},
	}
}

// display shortens paths under the project root.
func (a *app) display(path string) string {
	if rel, err := filepath.Rel(a.cfg.Root, path); err == nil && filepath.IsLocal(rel) {
		return filepath.ToSlash(rel)
	}
	return path
}
