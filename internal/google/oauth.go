package google

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// OutOfBandRedirect is used by the terminal auth flow when no redirect URL
// is configured.
const OutOfBandRedirect = "urn:ietf:wg:oauth:2.0:oob"

// Scopes requested at consent. Calendar read/write plus the email address
// used to label the session.
var Scopes = []string{
	calendar.CalendarScope,
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
}

// ErrMissingCredentials is returned when no OAuth client id/secret is configured.
var ErrMissingCredentials = errors.New("google client id and secret are required; set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")

// OAuthConfig builds the OAuth2 client configuration for the Calendar API.
func OAuthConfig(clientID, clientSecret, redirectURL string) (*oauth2.Config, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if redirectURL == "" {
		redirectURL = OutOfBandRedirect
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
	}, nil
}

// AuthURL returns the consent page URL. Offline access and a forced consent
// prompt make Google issue a refresh token every time.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// NewState returns a random value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HTTPClient returns an authorized client for ts. Requests are traced with
// otelhttp and pinned to HTTP/1.1.
func HTTPClient(ts oauth2.TokenSource) *http.Client {
	base := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   otelhttp.NewTransport(base),
		},
	}
}
