package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "labtrack",
	Short: "Book labs, lend items and audit activity",
	Long: `Book school labs, lend books and equipment, and review the activity log.

Reservations and audit events keep working while the server is unreachable:
reservations are saved in the local data directory and audit events are
queued there, then replayed the next time any command runs.

environment:
    LABTRACK_CONFIG  config file (default ./labtrack.yaml)
`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

var (
	configPath string
	apiURL     string
	jsonOutput bool
	verbose    bool
)

func main() {
	def := os.Getenv("LABTRACK_CONFIG")
	if def == "" {
		def = "./labtrack.yaml"
	}

	RootCmd.PersistentFlags().StringVar(&configPath, "config", def, "config file")
	RootCmd.PersistentFlags().StringVar(&apiURL, "url", "", "API base URL (overrides the config file)")
	RootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "JSON output")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if current != nil {
			current.close()
		}
		os.Exit(1)
	}
}
