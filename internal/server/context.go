package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/calendar-api/internal/calendar"
	"github.com/teemow/calendar-api/internal/google"
	"github.com/teemow/calendar-api/internal/instrumentation"
)

// DefaultOutboundTimeout bounds every request to the Google Calendar API.
const DefaultOutboundTimeout = 10 * time.Second

// Config holds the runtime configuration for the API gateway.
type Config struct {
	// APIKey is the static key clients must present in X-API-Key.
	APIKey string

	// CalendarID selects the calendar; defaults to "primary".
	CalendarID string

	// CalendarEndpoint overrides the Google Calendar API base URL, for
	// testing against a mock server.
	CalendarEndpoint string

	// OutboundTimeout bounds outbound calendar API requests. Defaults to
	// DefaultOutboundTimeout.
	OutboundTimeout time.Duration
}

// ServerContext holds the shared state of the running service: configuration,
// the credential store, and the calendar client. The client is initialized
// lazily on first use so the process can start before credentials are
// provisioned.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	config  Config
	store   *google.Store
	metrics *instrumentation.Metrics

	mu       sync.RWMutex
	client   *calendar.Client
	shutdown bool
}

// NewServerContext creates a new server context around the credential store.
func NewServerContext(ctx context.Context, config Config, store *google.Store, metrics *instrumentation.Metrics) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	if config.OutboundTimeout == 0 {
		config.OutboundTimeout = DefaultOutboundTimeout
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		config:  config,
		store:   store,
		metrics: metrics,
	}
}

// Context returns the server's lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the gateway configuration.
func (sc *ServerContext) Config() Config {
	return sc.config
}

// Metrics returns the metrics recorder.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// CalendarClient returns the calendar client, creating and caching it on
// first use. The client's HTTP transport injects OAuth tokens from the
// credential store and refreshes them as needed.
func (sc *ServerContext) CalendarClient() (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.client != nil {
		return sc.client, nil
	}

	if sc.store == nil {
		return nil, fmt.Errorf("no credential store configured")
	}

	httpClient := oauth2.NewClient(sc.ctx, sc.store)
	httpClient.Timeout = sc.config.OutboundTimeout

	client, err := calendar.NewClient(sc.ctx, httpClient, calendar.ClientConfig{
		CalendarID: sc.config.CalendarID,
		Endpoint:   sc.config.CalendarEndpoint,
		Metrics:    sc.metrics,
	})
	if err != nil {
		return nil, err
	}

	sc.client = client
	return client, nil
}

// SetCalendarClient sets the calendar client, bypassing lazy initialization.
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.client = client
}

// HasCredential reports whether the credential store holds usable material.
// Used by the readiness probe.
func (sc *ServerContext) HasCredential() bool {
	sc.mu.RLock()
	store := sc.store
	sc.mu.RUnlock()

	return store != nil && store.HasCredential()
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
