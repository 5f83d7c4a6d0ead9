// Package cli holds the timesheet-api command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

// envLookuper is swapped in tests.
var envLookuper envconfig.Lookuper = envconfig.OsLookuper()

var rootCmd = &cobra.Command{
	Use:   "timesheet-api",
	Short: "Timesheet API for Microsoft Teams",
	Long: `timesheet-api serves timesheet entry, duplication, approvals and project
utilization over HTTP. Configuration is read from environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
