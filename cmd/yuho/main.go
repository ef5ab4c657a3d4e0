package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const cliToolVersion = "yuho 0.1.0-dev"

// errFailed reports that a command already printed its findings and the
// process should exit non-zero.
var errFailed = errors.New("check failed")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "yuho",
		Short:         "Check, resolve and verify Yuho legal programs",
		Version:       cliToolVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.rootDir, "root", ".", "project root used to resolve imports")
	flags.StringVar(&a.configPath, "config", "", "path to yuho.yml (defaults to <root>/yuho.yml)")
	flags.CountVarP(&a.verbose, "verbose", "v", "increase log verbosity")

	root.AddCommand(
		newCheckCmd(a),
		newVerifyCmd(a),
		newTranslateCmd(a),
		newResolveCmd(a),
		newConflictsCmd(a),
		newLibraryCmd(a),
	)
	return root
}
