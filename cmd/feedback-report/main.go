// Command feedback-report turns a survey feedback export into status, rating,
// evidence and instructor metrics. It prints the report, writes CSV/XLSX
// exports or serves the report over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(newRootCmd()))
}

// run executes cmd and reports a failure on its error stream. Commands are
// silenced so that each error is printed exactly once, here.
func run(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "feedback-report:", err)
		return 1
	}
	return 0
}
