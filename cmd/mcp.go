package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wayward-wolves/chronocall/internal/resources"
	"github.com/wayward-wolves/chronocall/internal/server"
	"github.com/wayward-wolves/chronocall/internal/tools/chrono_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

func newMCPCmd() *cobra.Command {
	var (
		transport        string
		httpAddr         string
		disableStreaming bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server so AI assistants can
manage the calendar through chronocall.

Tools:
  - chrono_command: run a scheduling command through the model
  - chrono_execute_tool_call: apply a reply that already holds a <tool_call> block
  - chrono_help: how to phrase commands

Resources:
  - chronocall://accounts: accounts with a stored token
  - chronocall://usage: how to phrase commands

Every tool takes an optional account argument; the account must have been
authorized with "chronocall auth --account <name>".

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logs go to stderr; stdio keeps stdout for the protocol.
			level := "info"
			if transport == transportStdio {
				level = "warn"
			}

			a, err := newApp(cmd.Context(), appOptions{
				defaultLogLevel: level,
				instrumentation: transport != transportStdio,
			})
			if err != nil {
				return err
			}
			defer a.Close()

			return runMCP(cmd.Context(), a, transport, httpAddr, disableStreaming)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8081", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")

	return cmd
}

func runMCP(ctx context.Context, a *app, transport, httpAddr string, disableStreaming bool) error {
	mcpSrv, err := newMCPServer(a.sc)
	if err != nil {
		return err
	}

	switch transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(ctx, a, mcpSrv, httpAddr, disableStreaming)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("chronocall", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := chrono_tools.RegisterChronoTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register chrono tools: %w", err)
	}
	if err := resources.RegisterChronoResources(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}
	return mcpSrv, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, a *app, mcpSrv *mcpserver.MCPServer, addr string, disableStreaming bool) error {
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsServer, err := startMetricsServer(a)
	if err != nil {
		return err
	}
	defer stopMetrics(a, metricsServer)

	opts := []mcpserver.StreamableHTTPOption{mcpserver.WithEndpointPath("/mcp")}
	if disableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv, opts...)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	health := server.NewHealthChecker(a.sc)
	health.AddCheck("token_store", func() string {
		if _, err := a.sc.StoredAccounts(); err != nil {
			return "token store unreadable"
		}
		return ""
	})
	health.RegisterHealthEndpoints(mux)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(mux, "chronocall.mcp"),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		a.logger.Info("Starting MCP server", "transport", transportStreamableHTTP, "addr", addr)
		serverDone <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
		a.logger.Info("Shutdown signal received, stopping MCP server")
	}

	stopServer(a, "mcp", httpServer)
	if err := <-serverDone; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
