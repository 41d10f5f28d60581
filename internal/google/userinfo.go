package google

import (
	"context"
	"fmt"
	"net/http"

	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// UserEmail returns the email address of the user behind httpClient's token.
// It labels sessions and audit lines; nothing is authorized by it.
func UserEmail(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (string, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("user info has no email address")
	}
	return info.Email, nil
}
