package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calendar-api application
var rootCmd = &cobra.Command{
	Use:   "calendar-api",
	Short: "HTTP API for Google Calendar events",
	Long: `calendar-api exposes CRUD and search operations over a Google Calendar
as a small HTTP API protected by a static API key.

Credentials come from the GOOGLE_TOKEN / GOOGLE_CREDENTIALS environment
variables (production) or from token and credentials files (development).
Run 'calendar-api authorize' once to provision a token file interactively.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calendar-api version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthorizeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
