package google

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/teemow/calendar-api/internal/instrumentation"
	"github.com/teemow/calendar-api/internal/logging"
)

// StoreConfig configures a credential Store.
type StoreConfig struct {
	// OAuth is the OAuth2 client configuration used for refresh and
	// interactive authorization. May be nil when no client secret is
	// configured; expired tokens cannot be refreshed in that case.
	OAuth *oauth2.Config

	// Providers are the token sources, consulted in order.
	Providers []TokenProvider

	// AllowInteractive permits the browser-based authorization flow as a
	// last resort. Only sensible for local development; a headless server
	// fails with AuthError instead.
	AllowInteractive bool

	// Metrics records credential lifecycle metrics. Optional.
	Metrics *instrumentation.Metrics
}

// Store resolves a valid OAuth token on demand. It implements
// oauth2.TokenSource, so the Google API HTTP client consults it on every
// outbound request: the token is loaded from the first configured provider,
// refreshed once if expired, and the refreshed token is persisted back to
// writable providers. Concurrent requests share a single refresh through a
// single-flight guard.
type Store struct {
	conf        *oauth2.Config
	providers   []TokenProvider
	interactive bool
	metrics     *instrumentation.Metrics

	ctx   context.Context
	group singleflight.Group

	mu     sync.Mutex
	cached *oauth2.Token
}

// NewStore creates a credential store. The context is used for refresh and
// authorization calls issued on behalf of later Token() invocations.
func NewStore(ctx context.Context, cfg StoreConfig) *Store {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	return &Store{
		conf:        cfg.OAuth,
		providers:   cfg.Providers,
		interactive: cfg.AllowInteractive,
		metrics:     metrics,
		ctx:         ctx,
	}
}

// Token returns a valid OAuth token, implementing oauth2.TokenSource.
// It fails with *AuthError when no credential source is configured or the
// stored credential can neither be used nor refreshed.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	if s.cached.Valid() {
		tok := s.cached
		s.mu.Unlock()
		return tok, nil
	}
	s.mu.Unlock()

	// Collapse concurrent resolutions into one: a burst of requests hitting
	// an expired token must trigger a single refresh.
	v, err, _ := s.group.Do("token", func() (interface{}, error) {
		return s.resolve()
	})
	if err != nil {
		return nil, err
	}

	return v.(*oauth2.Token), nil
}

// HasCredential reports whether any provider currently yields a token.
// It does not validate expiry; it exists for readiness reporting.
func (s *Store) HasCredential() bool {
	for _, p := range s.providers {
		if tok, err := p.Load(); err == nil && tok != nil {
			return true
		}
	}
	return false
}

func (s *Store) resolve() (*oauth2.Token, error) {
	s.mu.Lock()
	if s.cached.Valid() {
		tok := s.cached
		s.mu.Unlock()
		return tok, nil
	}
	s.mu.Unlock()

	tok, source := s.load()

	if tok == nil {
		return s.authorize()
	}

	if tok.Valid() {
		s.cache(tok)
		return tok, nil
	}

	if tok.RefreshToken != "" && s.conf != nil {
		return s.refresh(tok, source)
	}

	// Expired and not refreshable: a fresh interactive authorization is the
	// only way out.
	return s.authorize()
}

// load walks the providers in order and returns the first stored token.
// A provider whose content cannot be parsed is logged and skipped, as if the
// source were absent.
func (s *Store) load() (*oauth2.Token, string) {
	for _, p := range s.providers {
		tok, err := p.Load()
		if err != nil {
			slog.Warn("skipping credential source", logging.Source(p.Name()), logging.Err(err))
			s.metrics.RecordTokenLoad(s.ctx, p.Name(), instrumentation.StatusError)
			continue
		}
		if tok == nil {
			continue
		}

		slog.Debug("loaded credential",
			logging.Source(p.Name()),
			slog.String("token", logging.SanitizeToken(tok.AccessToken)))
		s.metrics.RecordTokenLoad(s.ctx, p.Name(), instrumentation.StatusSuccess)
		return tok, p.Name()
	}

	return nil, ""
}

// refresh performs a single refresh attempt through the OAuth2 endpoint.
// There are no retries; a failed refresh propagates to the caller.
func (s *Store) refresh(tok *oauth2.Token, source string) (*oauth2.Token, error) {
	fresh, err := s.conf.TokenSource(s.ctx, tok).Token()
	if err != nil {
		s.metrics.RecordTokenRefresh(s.ctx, instrumentation.StatusError)
		slog.Warn("token refresh failed",
			logging.Source(source),
			logging.Status(logging.StatusError),
			logging.Err(err))
		return nil, &AuthError{Reason: "unable to refresh expired credential", Err: err}
	}

	s.metrics.RecordTokenRefresh(s.ctx, instrumentation.StatusSuccess)
	slog.Info("refreshed OAuth token",
		logging.Source(source),
		logging.Status(logging.StatusSuccess))

	s.persist(fresh)
	s.cache(fresh)
	return fresh, nil
}

// authorize runs the interactive browser flow when it is both allowed and
// possible. Headless deployments without a pre-provisioned credential land
// here and fail with AuthError.
func (s *Store) authorize() (*oauth2.Token, error) {
	if s.conf == nil {
		return nil, &AuthError{Reason: "no credential source configured; set GOOGLE_TOKEN, provide a token file, or configure client credentials"}
	}
	if !s.interactive {
		return nil, &AuthError{Reason: "no usable credential and interactive authorization is unavailable; run 'calendar-api authorize'"}
	}

	tok, err := GetTokenFromWeb(s.ctx, s.conf)
	if err != nil {
		return nil, &AuthError{Reason: "interactive authorization failed", Err: err}
	}

	s.persist(tok)
	s.cache(tok)
	return tok, nil
}

// persist writes the token to every provider; read-only providers ignore the
// write. Persistence failures are logged, not fatal: the token still serves
// the current process lifetime.
func (s *Store) persist(tok *oauth2.Token) {
	for _, p := range s.providers {
		if err := p.Save(tok); err != nil {
			slog.Warn("failed to persist token", logging.Source(p.Name()), logging.Err(err))
		}
	}
}

func (s *Store) cache(tok *oauth2.Token) {
	s.mu.Lock()
	s.cached = tok
	s.mu.Unlock()
}
