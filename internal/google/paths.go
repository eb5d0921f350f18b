package google

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName     = "calendar-api"
	tokenFile         = "token.json"
	credentialsFile   = "credentials.json"
	configDirPermMode = 0o700
)

// ConfigDir returns the configuration directory path (~/.config/calendar-api).
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", configDirName), nil
}

// DefaultTokenPath returns the path to the persisted OAuth token file.
func DefaultTokenPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, tokenFile), nil
}

// DefaultCredentialsPath returns the path to the OAuth client credentials file.
func DefaultCredentialsPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, credentialsFile), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, configDirPermMode); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	return nil
}
