// Package cmd is the Cobra-based CLI front-end named in spec §6: a
// pipeline runner that loads a pipeline config, builds its named steps
// via the evaluator, and runs them in order.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adapt",
	Short: "Configuration-driven ETL pipeline runner",
	Long: `adapt runs a declarative pipeline: a YAML config describes named
steps built from typed nodes (external SDK calls, query builders,
serializers), each step's result optionally forwarded as an argument to
later steps.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
