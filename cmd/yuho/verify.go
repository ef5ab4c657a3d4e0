package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"yuho/core-go/pkg/smt"
)

func newVerifyCmd(a *app) *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "verify <entry>",
		Short: "Verify refinement constraints and principles with the SMT backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := a.newResolver().Resolve(args[0])
			if err != nil {
				return err
			}
			verifier, err := a.newVerifier()
			if err != nil {
				return err
			}
			defer func() {
				if err := verifier.Close(); err != nil {
					a.log.Error(err, "closing solver")
				}
			}()

			ctx := cmd.Context()
			failed := false
			for _, program := range resolved.AllPrograms() {
				for _, msg := range verifier.VerifyProgram(ctx, program) {
					fmt.Fprintf(a.stdout, "error: %s\n", msg)
					failed = true
				}
			}
			for _, program := range resolved.AllPrograms() {
				for _, principle := range principles(program.Items) {
					if explain {
						fmt.Fprintf(a.stdout, "%s\n", smt.ExplainPrinciple(principle))
					}
					result, err := verifier.VerifyPrinciple(ctx, principle)
					var smtErr *smt.Error
					switch {
					case errors.As(err, &smtErr) && smtErr.Kind == smt.UnsupportedExpression:
						fmt.Fprintf(a.stdout, "principle %s: skipped (%s)\n", principle.Name, smtErr.Message)
					case err != nil:
						fmt.Fprintf(a.stdout, "principle %s: %v\n", principle.Name, err)
						failed = true
					case result.Valid:
						fmt.Fprintf(a.stdout, "principle %s: valid\n", principle.Name)
					default:
						fmt.Fprintf(a.stdout, "principle %s: violated\n%s", principle.Name, result.Explanation)
						failed = true
					}
				}
			}
			if failed {
				return errFailed
			}
			fmt.Fprintf(a.stdout, "%s: verified\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "describe each principle in prose before verifying it")
	return cmd
}

func newTranslateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <file>",
		Short: "Print the SMT-LIB formula of every principle in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := a.loadProgram(args[0])
			if err != nil {
				return err
			}
			for _, principle := range principles(program.Items) {
				formula, err := smt.TranslatePrinciple(principle)
				if err != nil {
					return fmt.Errorf("principle %s: %w", principle.Name, err)
				}
				fmt.Fprintf(a.stdout, "; %s\n%s\n", principle.Name, formula)
			}
			return nil
		},
	}
}
