// cmd/server/paths.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Annany2002/nebula-dq/internal/core"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the UI route of a test suite",
	Long: `Print the details route of a test suite and its parent FQN.

Executable suites open on the table page, logical suites on the suite page.

Examples:
  nebula-dq paths --fqn svc.db.sales.orders --executable
  nebula-dq paths --fqn nightly_checks`,
	RunE: runPaths,
}

var (
	pathsFQN        string
	pathsExecutable bool
)

func init() {
	rootCmd.AddCommand(pathsCmd)
	pathsCmd.Flags().StringVar(&pathsFQN, "fqn", "", "Fully-qualified name of the suite")
	pathsCmd.Flags().BoolVar(&pathsExecutable, "executable", false, "Treat the suite as executable")
	_ = pathsCmd.MarkFlagRequired("fqn")
}

func runPaths(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "path:   %s\n", core.TestSuiteDetailsPath(pathsExecutable, pathsFQN))
	fmt.Fprintf(out, "parent: %s\n", core.TestSuiteFQN(pathsFQN))
	return nil
}
