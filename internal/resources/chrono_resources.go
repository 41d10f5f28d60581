package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/wayward-wolves/chronocall/internal/messages"
	"github.com/wayward-wolves/chronocall/internal/server"
)

// Resource URIs.
const (
	AccountsURI = "chronocall://accounts"
	UsageURI    = "chronocall://usage"
)

// AccountsResponse is the content of AccountsURI.
type AccountsResponse struct {
	Accounts []string `json:"accounts"`
	Language string   `json:"language"`
}

// RegisterChronoResources registers the accounts and usage resources.
func RegisterChronoResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	accountsResource := mcp.NewResource(
		AccountsURI,
		"Authorized Accounts",
		mcp.WithResourceDescription("Accounts with a stored Google token, usable as the account argument of the chrono tools"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(accountsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAccounts(ctx, request, sc)
	})

	usageResource := mcp.NewResource(
		UsageURI,
		"Usage",
		mcp.WithResourceDescription("How to phrase add, delete, move and list commands"),
		mcp.WithMIMEType("text/markdown"),
	)
	s.AddResource(usageResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUsage(ctx, request, sc)
	})

	return nil
}

func handleAccounts(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	accounts, err := sc.StoredAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		accounts = []string{}
	}

	jsonData, err := json.MarshalIndent(AccountsResponse{Accounts: accounts, Language: sc.Language()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal accounts: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func handleUsage(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     messages.For(sc.Language()).Usage(),
		},
	}, nil
}
