// cmd/server/root.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nebula-dq",
	Short: "Data-quality test case service",
	Long: `nebula-dq serves the test case form used to attach data-quality tests
to tables and columns.

It keeps open forms on the server, validates drafts against the test
definitions of the catalog and creates test cases on submit.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
