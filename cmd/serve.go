package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wayward-wolves/chronocall/internal/logging"
	"github.com/wayward-wolves/chronocall/internal/server"
)

const serverStartTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var (
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web front-end",
		Long: `Start the web front-end. Users log in with Google at /login and send
commands to POST /api/turn. Each login gets its own session, kept in
memory until logout or idle expiry.

Google OAuth Configuration:
  GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL env vars
  (or the google section of --config). The redirect URL must point at
  /oauth/callback on this server and use HTTPS unless it is localhost.

Metrics are served on a dedicated port (--metrics-addr) at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{
				defaultLogLevel: "info",
				instrumentation: true,
				webSessions:     true,
			})
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("http-addr") {
				a.cfg.HTTP.Addr = httpAddr
			}
			if cmd.Flags().Changed("metrics-enabled") {
				a.cfg.Metrics.Enabled = metricsEnabled
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.Metrics.Addr = metricsAddr
			}

			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address. Can also use CHRONOCALL_HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(ctx context.Context, a *app) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsServer, err := startMetricsServer(a)
	if err != nil {
		return err
	}

	web, err := server.NewWebServer(a.sc)
	if err != nil {
		stopMetrics(a, metricsServer)
		return fmt.Errorf("failed to create web server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- web.Start(a.cfg.HTTP.Addr)
	}()

	select {
	case err := <-serverDone:
		stopMetrics(a, metricsServer)
		if err != nil {
			return fmt.Errorf("web server stopped with error: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
		a.logger.Info("Shutdown signal received, stopping servers")
	}

	stopServer(a, "web", web)
	stopMetrics(a, metricsServer)
	return <-serverDone
}

// startMetricsServer starts the Prometheus endpoint when metrics are on.
// It returns nil when they are off.
func startMetricsServer(a *app) (*server.MetricsServer, error) {
	if !a.cfg.Metrics.Enabled || !a.provider.Enabled() {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    a.cfg.Metrics.Addr,
		InstrumentationProvider: a.provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		a.logger.Info("Metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(serverStartTimeout):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func stopServer(a *app, name string, s shutdowner) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		a.logger.Warn("Error during server shutdown", "server", name, logging.Err(err))
	}
}

func stopMetrics(a *app, s *server.MetricsServer) {
	if s != nil {
		stopServer(a, "metrics", s)
	}
}
