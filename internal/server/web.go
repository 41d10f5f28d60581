package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wayward-wolves/chronocall/internal/executor"
	"github.com/wayward-wolves/chronocall/internal/google"
	"github.com/wayward-wolves/chronocall/internal/instrumentation"
	"github.com/wayward-wolves/chronocall/internal/logging"
	"github.com/wayward-wolves/chronocall/internal/messages"
	"github.com/wayward-wolves/chronocall/internal/session"
)

const (
	// SessionCookie carries the web session id.
	SessionCookie = "chronocall_session"

	stateCookie    = "chronocall_oauth_state"
	stateCookieTTL = 10 * time.Minute
	maxTurnBody    = 64 << 10

	// DefaultWebWriteTimeout leaves room for a slow model reply.
	DefaultWebWriteTimeout = 150 * time.Second
)

// TurnRequest is the body of POST /api/turn.
type TurnRequest struct {
	Text string `json:"text"`
}

// TurnEntry is one line of a day listing.
type TurnEntry struct {
	Title string `json:"title"`
	Time  string `json:"time"`
}

// TurnResponse is the answer to POST /api/turn.
type TurnResponse struct {
	// Assistant is the model's reply as the UI shows it ("Chrono: ...").
	Assistant string      `json:"assistant,omitempty"`
	Message   string      `json:"message"`
	Success   bool        `json:"success"`
	Outcome   string      `json:"outcome"`
	Entries   []TurnEntry `json:"entries,omitempty"`
}

// SessionResponse is the answer to GET /api/session.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Account       string `json:"account,omitempty"`
	Language      string `json:"language"`
	LoginURL      string `json:"login_url,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// WebServer is the browser front-end: Google login, logout and the turn API.
type WebServer struct {
	sc            *ServerContext
	health        *HealthChecker
	secureCookies bool

	// userEmail labels new sessions. Replaced in tests.
	userEmail func(ctx context.Context, httpClient *http.Client) (string, error)

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewWebServer checks that sc can run the login flow and returns the server.
func NewWebServer(sc *ServerContext) (*WebServer, error) {
	if sc.Sessions() == nil {
		return nil, errors.New("session manager is required for the web server")
	}
	conf := sc.OAuthConfig()
	if conf == nil {
		return nil, google.ErrMissingCredentials
	}
	if err := validateRedirectURL(conf.RedirectURL); err != nil {
		return nil, err
	}

	u, _ := url.Parse(conf.RedirectURL)
	return &WebServer{
		sc:            sc,
		health:        NewHealthChecker(sc),
		secureCookies: u.Scheme == "https",
		userEmail: func(ctx context.Context, hc *http.Client) (string, error) {
			return google.UserEmail(ctx, hc)
		},
	}, nil
}

// Health returns the probe handler state.
func (s *WebServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the routed, traced and measured handler.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLogin)
	mux.HandleFunc("GET /oauth/callback", s.handleCallback)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("POST /api/turn", s.handleTurn)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("GET /api/help", s.handleHelp)
	s.health.RegisterHealthEndpoints(mux)

	return otelhttp.NewHandler(measure(s.sc.Metrics(), mux), "chronocall.web")
}

// Start serves on addr until Shutdown. It blocks.
func (s *WebServer) Start(addr string) error {
	return s.StartWithReadySignal(addr, nil)
}

// StartWithReadySignal is Start, closing ready once the port is bound.
func (s *WebServer) StartWithReadySignal(addr string, ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      DefaultWebWriteTimeout,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.sc.Context() },
	}

	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	s.sc.Logger().Info("starting web server", "addr", ln.Addr().String())
	if ready != nil {
		close(ready)
	}

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown marks the server unready and drains connections.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Addr returns the bound address, or "" before Start.
func (s *WebServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(r)
	lang := s.sc.Language()
	if sess != nil {
		lang = sess.Language
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if sess == nil {
		_, _ = fmt.Fprintf(w, "%s\n/login\n\n", messages.For(lang).Sprintf(messages.NotAuthorized))
	}
	_, _ = w.Write([]byte(messages.For(lang).Usage()))
}

func (s *WebServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := google.NewState()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to start login"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, google.AuthURL(s.sc.OAuthConfig(), state), http.StatusFound)
}

func (s *WebServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithOperation(s.sc.Logger(), "oauth_callback")
	fail := func(status int, msg string, err error) {
		s.sc.Metrics().RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.Warn("Login failed", slog.String("reason", msg), logging.Err(err))
		writeJSON(w, status, errorResponse{Error: msg})
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		fail(http.StatusBadRequest, "authorization denied: "+e, nil)
		return
	}

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		fail(http.StatusBadRequest, "invalid OAuth state", err)
		return
	}
	http.SetCookie(w, s.expiredCookie(stateCookie))

	code := q.Get("code")
	if code == "" {
		fail(http.StatusBadRequest, "missing authorization code", nil)
		return
	}

	tok, err := google.Exchange(ctx, s.sc.OAuthConfig(), code)
	if err != nil {
		fail(http.StatusBadGateway, "failed to exchange authorization code", err)
		return
	}

	backend, httpClient, err := s.sc.BackendForToken(ctx, tok)
	if err != nil {
		fail(http.StatusInternalServerError, "failed to create calendar client", err)
		return
	}

	account := session.DefaultAccount
	if email, err := s.userEmail(ctx, httpClient); err != nil {
		logger.Warn("Could not resolve account email", logging.Err(err))
	} else {
		account = email
	}

	sess := s.sc.Sessions().Create(account, s.sc.Language(), backend)
	s.sc.Metrics().RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	logging.WithSession(logger, sess.ID, account).Info("Login succeeded",
		logging.UserHash(account))

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *WebServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if s.sc.Sessions().Remove(c.Value) {
			logging.WithSession(s.sc.Logger(), c.Value, "").Info("Logged out")
		}
	}
	http.SetCookie(w, s.expiredCookie(SessionCookie))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *WebServer) handleTurn(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(r)
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, TurnResponse{
			Message: messages.For(s.sc.Language()).Sprintf(messages.NotAuthorized),
			Outcome: string(executor.OutcomeInvalid),
		})
		return
	}

	var req TurnRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTurnBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	turn := s.sc.Assistant().HandleTurn(r.Context(), sess, req.Text)
	writeJSON(w, http.StatusOK, newTurnResponse(sess.Language, turn.ModelText, turn.Result))
}

func (s *WebServer) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(r)
	if sess == nil {
		writeJSON(w, http.StatusOK, SessionResponse{Language: s.sc.Language(), LoginURL: "/login"})
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		Account:       sess.Account,
		Language:      sess.Language,
	})
}

func (s *WebServer) handleHelp(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if !messages.Supported(lang) {
		lang = s.sc.Language()
		if sess := s.currentSession(r); sess != nil {
			lang = sess.Language
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(messages.For(lang).Usage()))
}

func (s *WebServer) currentSession(r *http.Request) *session.Session {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	sess, ok := s.sc.Sessions().Get(c.Value)
	if !ok {
		return nil
	}
	return sess
}

func (s *WebServer) expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func newTurnResponse(lang, modelText string, res executor.Result) TurnResponse {
	resp := TurnResponse{
		Message: res.Message,
		Success: res.Success,
		Outcome: string(res.Outcome),
	}
	if modelText != "" && res.Outcome != executor.OutcomeNoAction {
		resp.Assistant = messages.For(lang).Sprintf(messages.AssistantLine, modelText)
	}
	for _, e := range res.Entries {
		resp.Entries = append(resp.Entries, TurnEntry{Title: e.Title, Time: e.Time})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// validateRedirectURL requires HTTPS for the OAuth redirect, except on
// loopback hosts (localhost, 127.0.0.1, ::1).
func validateRedirectURL(redirectURL string) error {
	if redirectURL == "" {
		return fmt.Errorf("redirect URL cannot be empty")
	}

	u, err := url.Parse(redirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect URL: %w", err)
	}

	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth redirect URL must use HTTPS (got: %s). Use HTTPS or localhost for development", redirectURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid redirect URL scheme: %q. Must be http (localhost only) or https", u.Scheme)
	}

	return nil
}
