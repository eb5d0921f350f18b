package google

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

const tokenFilePermMode = 0o600

// TokenProvider is one source of a persisted OAuth token. Providers are
// consulted in order by the Store; the first one that yields a parseable
// token wins.
type TokenProvider interface {
	// Name identifies the provider in logs and metrics ("env", "file").
	Name() string

	// Load returns the stored token, or nil when this source is not
	// configured. A non-nil error means the source is configured but its
	// content could not be parsed.
	Load() (*oauth2.Token, error)

	// Save persists a token back to this source. Sources that cannot be
	// written (the inline environment value) implement this as a no-op.
	Save(token *oauth2.Token) error
}

// EnvTokenProvider reads an inline token JSON value, typically from the
// GOOGLE_TOKEN environment variable. It never persists refreshed tokens back;
// operators rotate the stored value manually.
type EnvTokenProvider struct {
	value string
}

// NewEnvTokenProvider creates a provider over an inline token JSON value.
func NewEnvTokenProvider(value string) *EnvTokenProvider {
	return &EnvTokenProvider{value: value}
}

func (p *EnvTokenProvider) Name() string { return "env" }

func (p *EnvTokenProvider) Load() (*oauth2.Token, error) {
	if p.value == "" {
		return nil, nil
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal([]byte(p.value), tok); err != nil {
		return nil, fmt.Errorf("unable to parse inline token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("inline token holds no usable credential material")
	}

	return tok, nil
}

// Save is a no-op: a refreshed token is used for the current process lifetime
// only and is never written back to the long-lived configuration value.
func (p *EnvTokenProvider) Save(*oauth2.Token) error {
	return nil
}

// FileTokenProvider stores the OAuth token as JSON in a local file with
// restricted permissions.
type FileTokenProvider struct {
	path string
}

// NewFileTokenProvider creates a provider over the given token file path.
func NewFileTokenProvider(path string) *FileTokenProvider {
	return &FileTokenProvider{path: path}
}

func (p *FileTokenProvider) Name() string { return "file" }

// Path returns the token file path.
func (p *FileTokenProvider) Path() string { return p.path }

func (p *FileTokenProvider) Load() (*oauth2.Token, error) {
	if p.path == "" {
		return nil, nil
	}

	f, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to open token file: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("unable to decode token file: %w", err)
	}

	return tok, nil
}

func (p *FileTokenProvider) Save(token *oauth2.Token) error {
	if p.path == "" {
		return nil
	}

	f, err := os.OpenFile(p.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, tokenFilePermMode)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to encode token: %w", err)
	}

	return nil
}
