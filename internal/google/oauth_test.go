package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOAuthConfig(t *testing.T) {
	_, err := OAuthConfig("", "secret", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	conf, err := OAuthConfig("id", "secret", "")
	require.NoError(t, err)
	assert.Equal(t, OutOfBandRedirect, conf.RedirectURL)
	assert.Contains(t, conf.Scopes, "https://www.googleapis.com/auth/calendar")

	conf, err = OAuthConfig("id", "secret", "http://localhost:8080/oauth/callback")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/oauth/callback", conf.RedirectURL)
}

func TestAuthURL(t *testing.T) {
	conf, err := OAuthConfig("id", "secret", "")
	require.NoError(t, err)

	u, err := url.Parse(AuthURL(conf, "xyz"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "id", q.Get("client_id"))
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}

func TestFileTokenStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tokens")
	store := NewFileTokenStore(dir)

	assert.False(t, store.Has("work"))
	_, err := store.Load("work")
	assert.True(t, errors.Is(err, ErrNoToken))

	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save("work", tok))
	require.NoError(t, store.Save("jane@example.com", tok))

	assert.True(t, store.Has("work"))
	got, err := store.Load("work")
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)
	assert.Equal(t, "r", got.RefreshToken)
	assert.True(t, tok.Expiry.Equal(got.Expiry))

	info, err := os.Stat(filepath.Join(dir, "token-work.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	accounts, err := store.Accounts()
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com", "work"}, accounts)
}

func TestFileTokenStore_InvalidAccount(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())
	for _, account := range []string{"", "../etc/passwd", "a/b", "..", "x y"} {
		assert.Error(t, store.Save(account, &oauth2.Token{}), account)
		assert.False(t, store.Has(account), account)
	}
}

func TestFileTokenStore_AccountsMissingDir(t *testing.T) {
	accounts, err := NewFileTokenStore(filepath.Join(t.TempDir(), "nope")).Accounts()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestTokenSource_PersistsRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	conf := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: srv.URL},
	}
	store := NewFileTokenStore(t.TempDir())
	require.NoError(t, store.Save("default", &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "r",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	ts, err := TokenSource(context.Background(), conf, store, "default")
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	saved, err := store.Load("default")
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "r", saved.RefreshToken)
}

func TestTokenSource_NoToken(t *testing.T) {
	_, err := TokenSource(context.Background(), &oauth2.Config{}, NewFileTokenStore(t.TempDir()), "default")
	assert.ErrorIs(t, err, ErrNoToken)
}
