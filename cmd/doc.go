// Package cmd implements the command-line interface for calendar-api.
//
// This package provides the following commands:
//   - serve: Start the HTTP API server for Google Calendar access
//   - authorize: Run the interactive OAuth flow and save a token file
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
