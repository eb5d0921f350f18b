package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newTokenEndpoint returns an OAuth config whose token URL points at a fake
// endpoint, plus a counter of refresh requests it served.
func newTokenEndpoint(t *testing.T) (*oauth2.Config, *atomic.Int64) {
	t.Helper()

	var refreshes atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "refreshed-token",
			"token_type":    "Bearer",
			"refresh_token": "refresh",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)

	conf := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
	}
	return conf, &refreshes
}

func tokenJSON(t *testing.T, tok *oauth2.Token) string {
	t.Helper()
	b, err := json.Marshal(tok)
	require.NoError(t, err)
	return string(b)
}

func TestStore_EnvSourceTakesPrecedence(t *testing.T) {
	envTok := &oauth2.Token{AccessToken: "from-env", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	fileTok := &oauth2.Token{AccessToken: "from-file", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}

	path := filepath.Join(t.TempDir(), "token.json")
	file := NewFileTokenProvider(path)
	require.NoError(t, file.Save(fileTok))

	store := NewStore(context.Background(), StoreConfig{
		Providers: []TokenProvider{NewEnvTokenProvider(tokenJSON(t, envTok)), file},
	})

	got, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-env", got.AccessToken)
}

func TestStore_MalformedEnvFallsThroughToFile(t *testing.T) {
	fileTok := &oauth2.Token{AccessToken: "from-file", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}

	path := filepath.Join(t.TempDir(), "token.json")
	file := NewFileTokenProvider(path)
	require.NoError(t, file.Save(fileTok))

	store := NewStore(context.Background(), StoreConfig{
		Providers: []TokenProvider{NewEnvTokenProvider("{corrupt"), file},
	})

	got, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-file", got.AccessToken)
}

func TestStore_NoSourcesFailsWithAuthError(t *testing.T) {
	store := NewStore(context.Background(), StoreConfig{
		Providers: []TokenProvider{
			NewEnvTokenProvider(""),
			NewFileTokenProvider(filepath.Join(t.TempDir(), "missing.json")),
		},
	})

	_, err := store.Token()
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestStore_RefreshesExpiredToken(t *testing.T) {
	conf, refreshes := newTokenEndpoint(t)

	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}

	path := filepath.Join(t.TempDir(), "token.json")
	file := NewFileTokenProvider(path)
	require.NoError(t, file.Save(expired))

	store := NewStore(context.Background(), StoreConfig{
		OAuth:     conf,
		Providers: []TokenProvider{file},
	})

	got, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", got.AccessToken)
	assert.EqualValues(t, 1, refreshes.Load())

	// The refreshed token must be persisted back to the file provider.
	persisted, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", persisted.AccessToken)

	// A second resolution serves the cached token without another refresh.
	_, err = store.Token()
	require.NoError(t, err)
	assert.EqualValues(t, 1, refreshes.Load())
}

func TestStore_RefreshedTokenNotWrittenBackToEnv(t *testing.T) {
	conf, _ := newTokenEndpoint(t)

	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}
	env := NewEnvTokenProvider(tokenJSON(t, expired))

	store := NewStore(context.Background(), StoreConfig{
		OAuth:     conf,
		Providers: []TokenProvider{env},
	})

	got, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", got.AccessToken)

	// The inline source still holds the stale token: refreshed credentials
	// live for the process lifetime only in this deployment mode.
	stored, err := env.Load()
	require.NoError(t, err)
	assert.Equal(t, "stale", stored.AccessToken)
}

func TestStore_ExpiredWithoutRefreshTokenFails(t *testing.T) {
	conf, refreshes := newTokenEndpoint(t)

	expired := &oauth2.Token{
		AccessToken: "stale",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(-time.Hour),
	}

	store := NewStore(context.Background(), StoreConfig{
		OAuth:     conf,
		Providers: []TokenProvider{NewEnvTokenProvider(tokenJSON(t, expired))},
	})

	_, err := store.Token()
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.EqualValues(t, 0, refreshes.Load())
}

func TestStore_RefreshFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	conf := &oauth2.Config{
		ClientID: "client-id",
		Endpoint: oauth2.Endpoint{TokenURL: srv.URL},
	}

	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}

	store := NewStore(context.Background(), StoreConfig{
		OAuth:     conf,
		Providers: []TokenProvider{NewEnvTokenProvider(tokenJSON(t, expired))},
	})

	_, err := store.Token()
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestStore_RefreshFailureLogsStatusWithMaskedToken(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	conf := &oauth2.Config{
		ClientID: "client-id",
		Endpoint: oauth2.Endpoint{TokenURL: srv.URL},
	}

	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}

	store := NewStore(context.Background(), StoreConfig{
		OAuth:     conf,
		Providers: []TokenProvider{NewEnvTokenProvider(tokenJSON(t, expired))},
	})

	_, err := store.Token()
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)

	logs := buf.String()
	assert.Contains(t, logs, "token refresh failed")
	assert.Contains(t, logs, "status=error")
	// The loaded access token shows up only as a length indicator.
	assert.Contains(t, logs, "token:5 chars")
	assert.NotContains(t, logs, "stale")
}

func TestStore_ConcurrentRefreshIsSingleFlight(t *testing.T) {
	conf, refreshes := newTokenEndpoint(t)

	expired := &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}

	store := NewStore(context.Background(), StoreConfig{
		OAuth:     conf,
		Providers: []TokenProvider{NewEnvTokenProvider(tokenJSON(t, expired))},
	})

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Token()
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, refreshes.Load(), "concurrent requests must share one refresh")
}

func TestStore_HasCredential(t *testing.T) {
	valid := &oauth2.Token{AccessToken: "tok", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}

	tests := []struct {
		name      string
		providers []TokenProvider
		want      bool
	}{
		{
			name:      "no providers",
			providers: nil,
			want:      false,
		},
		{
			name:      "env token present",
			providers: []TokenProvider{NewEnvTokenProvider(fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer"}`, valid.AccessToken))},
			want:      true,
		},
		{
			name:      "only malformed sources",
			providers: []TokenProvider{NewEnvTokenProvider("{corrupt")},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(context.Background(), StoreConfig{Providers: tt.providers})
			assert.Equal(t, tt.want, store.HasCredential())
		})
	}
}

func TestAuthErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &AuthError{Reason: "refresh failed", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "refresh failed")
}
