/*
Command threadher runs the ThreadHer garment tools locally.

Usage:

	threadher [command]

Available Commands:

	serve    Run the local HTTP server
	invoke   Run an agent event or tool event from a file
	setup    Create the DynamoDB tables ThreadHer writes to
	schema   Print the action-group OpenAPI document (YAML)
	backup   Snapshot the local sqlite result database
*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/threadher/threadher/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.SetPrefix("threadher: ")

	rootCmd := &cobra.Command{
		Use:   "threadher",
		Short: "Garment carbon and circular-economy tools",
		Long: `threadher serves the garment tools behind the ThreadHer assistant:
carbon footprint estimates, circular-economy recommendations (repair, resell,
recycle, upcycle) and photo analysis, plus the agent action-group router and
the chat front door.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewInvokeCmd())
	rootCmd.AddCommand(cli.NewSetupCmd())
	rootCmd.AddCommand(cli.NewSchemaCmd())
	rootCmd.AddCommand(cli.NewBackupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
