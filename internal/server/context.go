package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/wayward-wolves/chronocall/internal/assistant"
	"github.com/wayward-wolves/chronocall/internal/calendar"
	"github.com/wayward-wolves/chronocall/internal/google"
	"github.com/wayward-wolves/chronocall/internal/instrumentation"
	"github.com/wayward-wolves/chronocall/internal/messages"
	"github.com/wayward-wolves/chronocall/internal/session"
)

// ErrNotAuthorized is returned when an account has no stored Google token.
var ErrNotAuthorized = errors.New("account is not authorized")

// BackendFactory builds a calendar backend that sends requests through an
// authorized HTTP client.
type BackendFactory func(ctx context.Context, httpClient *http.Client) (calendar.Backend, error)

// Options configure a ServerContext.
type Options struct {
	Assistant   *assistant.Assistant
	NewBackend  BackendFactory
	OAuthConfig *oauth2.Config
	TokenStore  google.TokenStore
	Sessions    *session.Manager
	Language    string
	Metrics     *instrumentation.Metrics
	Logger      *slog.Logger
}

// ServerContext holds what the front-ends share: the assistant, the OAuth
// client, web sessions and one cached session per locally stored account.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	assistant   *assistant.Assistant
	newBackend  BackendFactory
	oauthConfig *oauth2.Config
	tokenStore  google.TokenStore
	sessions    *session.Manager
	language    string
	metrics     *instrumentation.Metrics
	logger      *slog.Logger

	accounts map[string]*session.Session // account name to local session
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context. Assistant and NewBackend are
// required.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if opts.NewBackend == nil {
		return nil, errors.New("backend factory is required")
	}
	if opts.Language == "" {
		opts.Language = messages.DefaultLanguage
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		assistant:   opts.Assistant,
		newBackend:  opts.NewBackend,
		oauthConfig: opts.OAuthConfig,
		tokenStore:  opts.TokenStore,
		sessions:    opts.Sessions,
		language:    opts.Language,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		accounts:    make(map[string]*session.Session),
	}, nil
}

// Context returns the server context, canceled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Assistant returns the turn orchestrator.
func (sc *ServerContext) Assistant() *assistant.Assistant {
	return sc.assistant
}

// OAuthConfig returns the Google OAuth client, or nil if none is configured.
func (sc *ServerContext) OAuthConfig() *oauth2.Config {
	return sc.oauthConfig
}

// Sessions returns the web session manager, or nil.
func (sc *ServerContext) Sessions() *session.Manager {
	return sc.sessions
}

// Language returns the default display language.
func (sc *ServerContext) Language() string {
	return sc.language
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// SessionForAccount returns the cached session for a locally stored
// account, creating it from the token store on first use. The error wraps
// ErrNotAuthorized when the account has no token.
func (sc *ServerContext) SessionForAccount(account, source string) (*session.Session, error) {
	if account == "" {
		account = session.DefaultAccount
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if s, ok := sc.accounts[account]; ok {
		return s, nil
	}

	if sc.tokenStore == nil || sc.oauthConfig == nil || !sc.tokenStore.Has(account) {
		return nil, fmt.Errorf("%w: run `chronocall auth --account %s` first", ErrNotAuthorized, account)
	}

	ts, err := google.TokenSource(sc.ctx, sc.oauthConfig, sc.tokenStore, account)
	if err != nil {
		return nil, fmt.Errorf("failed to load token for account %s: %w", account, err)
	}
	backend, err := sc.newBackend(sc.ctx, google.HTTPClient(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client for account %s: %w", account, err)
	}

	s := session.New(account, source, sc.language, backend)
	sc.accounts[account] = s
	return s, nil
}

// StoredAccounts lists accounts that have a stored token, sorted. It is
// empty when the token store cannot enumerate its accounts.
func (sc *ServerContext) StoredAccounts() ([]string, error) {
	lister, ok := sc.tokenStore.(interface{ Accounts() ([]string, error) })
	if !ok {
		return nil, nil
	}
	return lister.Accounts()
}

// SetSessionForAccount installs s as the session for account.
func (sc *ServerContext) SetSessionForAccount(account string, s *session.Session) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.accounts[account] = s
}

// BackendForToken builds a backend for a token obtained through the web
// login. The token is refreshed in memory and never written to disk.
func (sc *ServerContext) BackendForToken(ctx context.Context, tok *oauth2.Token) (calendar.Backend, *http.Client, error) {
	if sc.oauthConfig == nil {
		return nil, nil, google.ErrMissingCredentials
	}
	ts := oauth2.ReuseTokenSource(tok, sc.oauthConfig.TokenSource(sc.ctx, tok))
	httpClient := google.HTTPClient(ts)
	backend, err := sc.newBackend(ctx, httpClient)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return backend, httpClient, nil
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and stops session cleanup.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	if sc.sessions != nil {
		sc.sessions.Stop()
	}
	return nil
}
