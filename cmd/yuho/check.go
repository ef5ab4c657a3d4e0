package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"yuho/core-go/pkg/ast"
	"yuho/core-go/pkg/driver"
	"yuho/core-go/pkg/typechecker"
)

const watchDebounce = 150 * time.Millisecond

func newCheckCmd(a *app) *cobra.Command {
	var (
		watch bool
		jobs  int
	)
	cmd := &cobra.Command{
		Use:   "check <entry>...",
		Short: "Resolve imports and type-check entry programs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := a.newCheckSession(args)
			ctx := cmd.Context()
			results := session.run(ctx, jobs)
			failed := printCheckResults(a.stdout, results)
			if watch {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
				defer stop()
				return session.watch(ctx, jobs, results)
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-check when an involved file changes")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "entry files checked in parallel")
	return cmd
}

type checkResult struct {
	entry     string
	resolved  *driver.ResolvedProgram
	diags     []typechecker.Diagnostic
	conflicts []typechecker.ConflictReport
	citations typechecker.CitationReport
	err       error
}

func (r checkResult) failed() bool {
	if r.err != nil || typechecker.HasErrors(r.diags) || r.citations.HasIssues() {
		return true
	}
	for _, report := range r.conflicts {
		if report.HasConflicts() {
			return true
		}
	}
	return false
}

// checkSession holds the entries of one check invocation. Every round
// resolves from disk again.
type checkSession struct {
	app     *app
	entries []string
}

func (a *app) newCheckSession(entries []string) *checkSession {
	return &checkSession{app: a, entries: entries}
}

// run checks every entry with at most jobs in flight. Results keep the
// order of the entries.
func (s *checkSession) run(ctx context.Context, jobs int) []checkResult {
	results := make([]checkResult, len(s.entries))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, entry := range s.entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = checkResult{entry: entry, err: err}
				return nil
			}
			results[i] = s.app.checkEntry(entry, s.app.newResolver())
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *app) checkEntry(entry string, resolver *driver.ModuleResolver) checkResult {
	result := checkResult{entry: entry}
	resolved, err := resolver.Resolve(entry)
	if err != nil {
		result.err = err
		return result
	}
	result.resolved = resolved
	checker, err := a.newChecker()
	if err != nil {
		result.err = err
		return result
	}
	result.diags = checker.CheckWithImports(resolved)
	result.citations = typechecker.ValidateCitations(resolved.AllPrograms()...)

	for _, check := range conflictChecks(resolved.Main.Items) {
		report, err := a.compareFiles(filepath.Dir(resolved.MainPath), check.File1, check.File2)
		if err != nil {
			result.err = err
			return result
		}
		result.conflicts = append(result.conflicts, report)
	}
	return result
}

func conflictChecks(items []ast.Item) []*ast.ConflictCheck {
	var out []*ast.ConflictCheck
	for _, item := range items {
		switch it := item.(type) {
		case *ast.ConflictCheck:
			out = append(out, it)
		case *ast.Scope:
			out = append(out, conflictChecks(it.Items)...)
		}
	}
	return out
}

// compareFiles loads two programs, relative to dir unless absolute, and
// reports their conflicting definitions.
func (a *app) compareFiles(dir, file1, file2 string) (typechecker.ConflictReport, error) {
	load := func(file string) (*ast.Program, error) {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return a.loadProgram(path)
	}
	prog1, err := load(file1)
	if err != nil {
		return typechecker.ConflictReport{}, err
	}
	prog2, err := load(file2)
	if err != nil {
		return typechecker.ConflictReport{}, err
	}
	return typechecker.DetectConflicts(file1, prog1, file2, prog2), nil
}

func printCheckResults(w io.Writer, results []checkResult) bool {
	failed := false
	for _, r := range results {
		if r.failed() {
			failed = true
		}
		if r.err != nil {
			fmt.Fprintf(w, "%s: %v\n", r.entry, r.err)
			continue
		}
		for _, diag := range r.diags {
			fmt.Fprintf(w, "%s: %s\n", r.entry, typechecker.DescribeDiagnostic(diag))
		}
		for _, issue := range r.citations.Issues {
			fmt.Fprintf(w, "%s: citation: %s\n", r.entry, issue.Message)
		}
		for _, report := range r.conflicts {
			if report.HasConflicts() {
				fmt.Fprint(w, report.Format())
			}
		}
		if !r.failed() {
			fmt.Fprintf(w, "%s: ok\n", r.entry)
		}
	}
	return failed
}

// watch re-runs the check whenever a file in a directory involved in the
// last round changes, until ctx is cancelled.
func (s *checkSession) watch(ctx context.Context, jobs int, results []checkResult) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	addDirs := func(results []checkResult) {
		for _, dir := range watchDirs(s.app.cfg.Root, s.entries, results) {
			if watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				s.app.log.Error(err, "cannot watch directory", "dir", dir)
				continue
			}
			watched[dir] = true
		}
	}
	addDirs(results)
	fmt.Fprintf(s.app.stdout, "watching %d director(ies); press Ctrl+C to stop\n", len(watched))

	pending := make(map[string]bool)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.app.log.Error(err, "watch error")
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			clear(pending)
			sort.Strings(changed)
			s.app.log.V(1).Info("files changed", "paths", changed)
			fmt.Fprintf(s.app.stdout, "\n-- %d file(s) changed, re-checking --\n", len(changed))
			results = s.run(ctx, jobs)
			printCheckResults(s.app.stdout, results)
			addDirs(results)
		}
	}
}

// watchDirs lists the directories holding the root, every entry and every
// module the last round resolved.
func watchDirs(root string, entries []string, results []checkResult) []string {
	set := map[string]bool{root: true}
	for _, entry := range entries {
		path := entry
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		set[filepath.Dir(path)] = true
	}
	for _, r := range results {
		if r.resolved == nil {
			continue
		}
		for _, path := range r.resolved.ModulePaths() {
			set[filepath.Dir(path)] = true
		}
	}
	dirs := make([]string, 0, len(set))
	for dir := range set {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
