package google

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// LoadOAuthConfig builds the OAuth2 client configuration from the inline
// client-secret JSON when present, falling back to a local credentials file.
// Returns nil without error when neither source is configured; token refresh
// and interactive authorization are unavailable in that case.
func LoadOAuthConfig(inlineJSON, credentialsPath string) (*oauth2.Config, error) {
	if inlineJSON != "" {
		config, err := google.ConfigFromJSON([]byte(inlineJSON), calendar.CalendarScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse inline client credentials: %w", err)
		}
		return config, nil
	}

	if credentialsPath == "" {
		return nil, nil
	}

	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	return config, nil
}
