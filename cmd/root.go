// Package cmd defines and implements the CLI commands for the canvascrawler
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canvascrawler",
		Short: "A breadth-first crawler for Canvas course content.",
		Long: `canvascrawler walks the content graph of a single Canvas course,
starting from its module and assignment listings, and archives every
reachable page, assignment, quiz, discussion and file attachment to a
local output directory as normalized JSON plus raw HTML and binaries.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
