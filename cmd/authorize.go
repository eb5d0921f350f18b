package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/calendar-api/internal/google"
	"github.com/teemow/calendar-api/internal/logging"
)

func newAuthorizeCmd() *cobra.Command {
	var (
		tokenFile       string
		credentialsFile string
		debug           bool
	)

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Run the interactive OAuth flow and save a token file",
		Long: `Authorize opens a browser to complete the Google OAuth consent flow and
saves the resulting token to the token file, where the serve command picks
it up.

Requires an OAuth client configuration: either the GOOGLE_CREDENTIALS
environment variable with inline JSON, or a credentials file
(default: ~/.config/calendar-api/credentials.json).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthorize(tokenFile, credentialsFile, debug)
		},
	}

	cmd.Flags().StringVar(&tokenFile, "token-file", "", "Path to write the OAuth token file (default: ~/.config/calendar-api/token.json)")
	cmd.Flags().StringVar(&credentialsFile, "credentials-file", "", "Path to the OAuth client credentials file (default: ~/.config/calendar-api/credentials.json)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return cmd
}

func runAuthorize(tokenFile, credentialsFile string, debug bool) error {
	logging.Setup(debug)

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if tokenFile == "" {
		path, err := google.DefaultTokenPath()
		if err != nil {
			return fmt.Errorf("unable to resolve token path: %w", err)
		}
		tokenFile = path
	}
	if credentialsFile == "" {
		path, err := google.DefaultCredentialsPath()
		if err != nil {
			return fmt.Errorf("unable to resolve credentials path: %w", err)
		}
		credentialsFile = path
	}

	oauthConfig, err := google.LoadOAuthConfig(os.Getenv("GOOGLE_CREDENTIALS"), credentialsFile)
	if err != nil {
		return fmt.Errorf("unable to load OAuth client config: %w", err)
	}
	if oauthConfig == nil {
		return fmt.Errorf("no OAuth client configuration found: set GOOGLE_CREDENTIALS or provide %s", credentialsFile)
	}

	token, err := google.GetTokenFromWeb(ctx, oauthConfig)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := google.EnsureConfigDir(); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	provider := google.NewFileTokenProvider(tokenFile)
	if err := provider.Save(token); err != nil {
		return fmt.Errorf("unable to save token: %w", err)
	}

	fmt.Printf("Token saved to %s\n", tokenFile)
	return nil
}
