// Package main is the noops CLI: the login and deploy commands, grounded on
// _examples/fcavalcantirj-solvr/cli/main.go's cobra root-command shape.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "noops",
		Short: "noops CLI - deploy WebAssembly handlers to a noops server",
		Long: `noops CLI - command line interface for the noops serverless platform.

Use "noops [command] --help" for more information about a command.`,
	}

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newDeployCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
