package resources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/wayward-wolves/chronocall/internal/assistant"
	"github.com/wayward-wolves/chronocall/internal/calendar"
	"github.com/wayward-wolves/chronocall/internal/google"
	"github.com/wayward-wolves/chronocall/internal/llm"
	"github.com/wayward-wolves/chronocall/internal/server"
)

type nopModel struct{}

func (nopModel) Generate(context.Context, []llm.Message) (string, error) { return "", nil }

func newServerContext(t *testing.T, store google.TokenStore, lang string) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Assistant: assistant.New(nopModel{}),
		NewBackend: func(context.Context, *http.Client) (calendar.Backend, error) {
			return nil, errors.New("no backend")
		},
		TokenStore: store,
		Language:   lang,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func readRequest(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func textOf(t *testing.T, contents []mcp.ResourceContents) *mcp.TextResourceContents {
	t.Helper()
	require.Len(t, contents, 1)
	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	return text
}

func TestHandleAccounts(t *testing.T) {
	store := google.NewFileTokenStore(t.TempDir())
	tok := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer"}
	require.NoError(t, store.Save("work", tok))
	require.NoError(t, store.Save("default", tok))

	contents, err := handleAccounts(context.Background(), readRequest(AccountsURI), newServerContext(t, store, "th"))
	require.NoError(t, err)

	text := textOf(t, contents)
	assert.Equal(t, AccountsURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	var resp AccountsResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	assert.Equal(t, []string{"default", "work"}, resp.Accounts)
	assert.Equal(t, "th", resp.Language)
}

func TestHandleAccounts_NoStore(t *testing.T) {
	contents, err := handleAccounts(context.Background(), readRequest(AccountsURI), newServerContext(t, nil, "en"))
	require.NoError(t, err)

	var resp AccountsResponse
	require.NoError(t, json.Unmarshal([]byte(textOf(t, contents).Text), &resp))
	assert.Empty(t, resp.Accounts)
	assert.NotNil(t, resp.Accounts)
}

func TestHandleUsage(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"en", "How to use"},
		{"th", "วิธีใช้งาน"},
	}
	for _, tt := range tests {
		contents, err := handleUsage(context.Background(), readRequest(UsageURI), newServerContext(t, nil, tt.lang))
		require.NoError(t, err)
		text := textOf(t, contents)
		assert.Equal(t, "text/markdown", text.MIMEType)
		assert.Contains(t, text.Text, tt.want)
	}
}
