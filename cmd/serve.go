package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/calendar-api/internal/google"
	"github.com/teemow/calendar-api/internal/instrumentation"
	"github.com/teemow/calendar-api/internal/logging"
	"github.com/teemow/calendar-api/internal/server"
)

// ServeConfig holds the configuration for the serve command
type ServeConfig struct {
	// HTTPAddr is the listen address for the API server (e.g., ":8000")
	HTTPAddr string

	// APIKey is the static key clients must present in X-API-Key
	APIKey string

	// CalendarID selects the calendar to operate on (default "primary")
	CalendarID string

	// TokenFile is the path to the OAuth token file
	TokenFile string

	// CredentialsFile is the path to the OAuth client credentials file
	CredentialsFile string

	// Metrics holds the metrics server configuration
	Metrics MetricsConfig

	// Debug enables debug logging
	Debug bool
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var config ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the calendar HTTP API server",
		Long: `Start the HTTP API server that exposes calendar events over REST.

Endpoints:
  GET    /events           List events in a date window
  POST   /events           Create an event
  PUT    /events/{id}      Update an event
  DELETE /events/{id}      Delete an event
  GET    /events/search    Search events by free text
  GET    /health           Health check (no API key required)

All /events endpoints require the X-API-Key header.

Credentials:
  Production: set GOOGLE_TOKEN (and optionally GOOGLE_CREDENTIALS) to inline
  JSON values. Refreshed tokens are kept in memory only.
  Development: provide token and credentials files; run
  'calendar-api authorize' once to provision the token file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &config)
			return runServe(config)
		},
	}

	cmd.Flags().StringVar(&config.HTTPAddr, "http-addr", server.DefaultAPIAddr, "API server address. Can also use HTTP_ADDR env var.")
	cmd.Flags().StringVar(&config.APIKey, "api-key", "", "Static API key required in the X-API-Key header. Can also use API_KEY env var.")
	cmd.Flags().StringVar(&config.CalendarID, "calendar-id", "", "Calendar to operate on (default: primary). Can also use CALENDAR_ID env var.")
	cmd.Flags().StringVar(&config.TokenFile, "token-file", "", "Path to the OAuth token file (default: ~/.config/calendar-api/token.json)")
	cmd.Flags().StringVar(&config.CredentialsFile, "credentials-file", "", "Path to the OAuth client credentials file (default: ~/.config/calendar-api/credentials.json)")
	cmd.Flags().BoolVar(&config.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&config.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().BoolVar(&config.Debug, "debug", false, "Enable debug logging")

	return cmd
}

// loadServeEnvVars fills config fields from environment variables.
// Environment variables only apply when the flag was not explicitly set.
func loadServeEnvVars(cmd *cobra.Command, config *ServeConfig) {
	if !cmd.Flags().Changed("http-addr") {
		if addr := os.Getenv("HTTP_ADDR"); addr != "" {
			config.HTTPAddr = addr
		}
	}
	if !cmd.Flags().Changed("api-key") {
		if key := os.Getenv("API_KEY"); key != "" {
			config.APIKey = key
		}
	}
	if !cmd.Flags().Changed("calendar-id") {
		if id := os.Getenv("CALENDAR_ID"); id != "" {
			config.CalendarID = id
		}
	}
	if !cmd.Flags().Changed("metrics-enabled") {
		if os.Getenv("METRICS_ENABLED") == "false" {
			config.Metrics.Enabled = false
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			config.Metrics.Addr = addr
		}
	}
}

func runServe(config ServeConfig) error {
	logging.Setup(config.Debug)

	if config.APIKey == "" {
		return fmt.Errorf("no API key configured: set --api-key or the API_KEY environment variable")
	}

	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	slog.Info("starting server",
		logging.Service(instrConfig.ServiceName),
		slog.String("version", version),
		slog.String("addr", config.HTTPAddr))

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if config.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    config.Metrics.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			slog.Info("metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	store, err := buildCredentialStore(shutdownCtx, config.TokenFile, config.CredentialsFile, false, metrics)
	if err != nil {
		return err
	}

	serverContext := server.NewServerContext(shutdownCtx, server.Config{
		APIKey:     config.APIKey,
		CalendarID: config.CalendarID,
	}, store, metrics)

	apiServer := server.NewAPIServer(server.APIServerConfig{
		Addr: config.HTTPAddr,
	}, server.Handler(serverContext))

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := apiServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	// Whether the server exited on its own or a signal arrived, the drain
	// below must run so the metrics server and context shut down too.
	var serveErr error
	select {
	case <-shutdownCtx.Done():
		slog.Info("shutdown signal received")
	case err := <-serverDone:
		serveErr = err
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer drainCancel()

	if err := apiServer.Shutdown(drainCtx); err != nil {
		slog.Error("API server shutdown failed", logging.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(drainCtx); err != nil {
			slog.Error("metrics server shutdown failed", logging.Err(err))
		}
	}
	if err := serverContext.Shutdown(); err != nil {
		slog.Error("server context shutdown failed", logging.Err(err))
	}

	if serveErr != nil {
		return fmt.Errorf("API server stopped with error: %w", serveErr)
	}
	return nil
}

// buildCredentialStore assembles the ordered token providers: the inline
// GOOGLE_TOKEN value first, then the token file. The OAuth client config
// comes from the inline GOOGLE_CREDENTIALS value or the credentials file.
func buildCredentialStore(ctx context.Context, tokenFile, credentialsFile string, allowInteractive bool, metrics *instrumentation.Metrics) (*google.Store, error) {
	if tokenFile == "" {
		path, err := google.DefaultTokenPath()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve token path: %w", err)
		}
		tokenFile = path
	}
	if credentialsFile == "" {
		path, err := google.DefaultCredentialsPath()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve credentials path: %w", err)
		}
		credentialsFile = path
	}

	oauthConfig, err := google.LoadOAuthConfig(os.Getenv("GOOGLE_CREDENTIALS"), credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load OAuth client config: %w", err)
	}

	var providers []google.TokenProvider
	if inline := os.Getenv("GOOGLE_TOKEN"); inline != "" {
		providers = append(providers, google.NewEnvTokenProvider(inline))
	}
	providers = append(providers, google.NewFileTokenProvider(tokenFile))

	return google.NewStore(ctx, google.StoreConfig{
		OAuth:            oauthConfig,
		Providers:        providers,
		AllowInteractive: allowInteractive,
		Metrics:          metrics,
	}), nil
}
