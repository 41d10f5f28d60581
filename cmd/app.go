package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wayward-wolves/chronocall/internal/assistant"
	"github.com/wayward-wolves/chronocall/internal/calendar"
	"github.com/wayward-wolves/chronocall/internal/config"
	"github.com/wayward-wolves/chronocall/internal/google"
	"github.com/wayward-wolves/chronocall/internal/instrumentation"
	"github.com/wayward-wolves/chronocall/internal/llm"
	"github.com/wayward-wolves/chronocall/internal/logging"
	"github.com/wayward-wolves/chronocall/internal/server"
	"github.com/wayward-wolves/chronocall/internal/session"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	envFile    string
	debug      bool
	logLevel   string
	logFormat  string
	language   string
	account    string
}

var globals globalOptions

func addGlobalFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&globals.configPath, "config", "", "Path to a YAML config file")
	f.StringVar(&globals.envFile, "env-file", config.DefaultEnvFile, "Path to a .env file (ignored when missing)")
	f.BoolVar(&globals.debug, "debug", false, "Enable debug logging")
	f.StringVar(&globals.logLevel, "log-level", "", "Log level: debug, info, warn or error (default: warn for chat and run, info otherwise)")
	f.StringVar(&globals.logFormat, "log-format", logging.FormatText, "Log format: text or json")
	f.StringVar(&globals.language, "lang", "", "Display language: th or en. Can also use CHRONOCALL_LANGUAGE env var.")
	f.StringVar(&globals.account, "account", session.DefaultAccount, "Account whose stored Google token is used")
}

// loadConfig reads the configuration and applies the global flags on top.
func loadConfig(opts globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.language != "" {
		cfg.Language = opts.language
	}
	if cfg.TokenDir == "" {
		cfg.TokenDir = google.DefaultTokenDir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --debug wins over --log-level.
func newLogger(opts globalOptions, defaultLevel string) (*slog.Logger, error) {
	level := opts.logLevel
	if level == "" {
		level = defaultLevel
	}
	if opts.debug {
		level = "debug"
	}
	logger, err := logging.New(os.Stderr, level, opts.logFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

type appOptions struct {
	// defaultLogLevel applies when neither --log-level nor --debug is set.
	defaultLogLevel string

	// instrumentation enables the OpenTelemetry provider.
	instrumentation bool

	// webSessions creates the session manager used by the web front-end.
	webSessions bool
}

// app is the wiring shared by the chat, run, serve and mcp commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	sc       *server.ServerContext
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateGoogle(); err != nil {
		return nil, err
	}

	logger, err := newLogger(globals, opts.defaultLogLevel)
	if err != nil {
		return nil, err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig.Enabled = instrConfig.Enabled && opts.instrumentation
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := provider.Metrics()

	oauthConfig, err := google.OAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	model := llm.NewClient(cfg.Model.Endpoint, cfg.Model.Timeout).WithMetrics(metrics)
	asst := assistant.New(model,
		assistant.WithSystemPrompt(cfg.Model.SystemPrompt),
		assistant.WithZone(cfg.Zone()),
		assistant.WithEventDuration(cfg.Calendar.EventDuration),
		assistant.WithLogger(logger),
		assistant.WithMetrics(metrics),
		assistant.WithAuditLogger(provider.AuditLogger(logger)),
	)

	var sessions *session.Manager
	if opts.webSessions {
		sessions = session.NewManager(cfg.HTTP.SessionTimeout, logger).WithMetrics(metrics)
	}

	sc, err := server.NewServerContext(ctx, server.Options{
		Assistant:   asst,
		NewBackend:  calendarBackend(cfg.Calendar.ID, metrics),
		OAuthConfig: oauthConfig,
		TokenStore:  google.NewFileTokenStore(cfg.TokenDir),
		Sessions:    sessions,
		Language:    cfg.Language,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		if sessions != nil {
			sessions.Stop()
		}
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}

	return &app{cfg: cfg, logger: logger, provider: provider, sc: sc}, nil
}

// Close stops sessions and flushes telemetry.
func (a *app) Close() {
	if err := a.sc.Shutdown(); err != nil {
		a.logger.Warn("Error during server context shutdown", logging.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("Error during instrumentation shutdown", logging.Err(err))
	}
}

// calendarBackend returns a factory for Google Calendar clients on calendarID.
func calendarBackend(calendarID string, metrics *instrumentation.Metrics) server.BackendFactory {
	return func(ctx context.Context, httpClient *http.Client) (calendar.Backend, error) {
		c, err := calendar.NewClient(ctx, httpClient, calendarID)
		if err != nil {
			return nil, err
		}
		return c.WithMetrics(metrics), nil
	}
}
