package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wayward-wolves/chronocall/internal/google"
	"github.com/wayward-wolves/chronocall/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		code string
		list bool
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account and store its token",
		Long: `Authorize chronocall to use the Google Calendar of an account.

1. Visit the printed URL in your browser and grant access
2. After the redirect, copy the "code" parameter (or the whole URL)
3. Paste it here, or pass it with --code

The token is stored per account under the token directory and refreshed
automatically. Use --account to keep several accounts side by side.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(globals)
			if err != nil {
				return err
			}
			logger, err := newLogger(globals, "info")
			if err != nil {
				return err
			}

			store := google.NewFileTokenStore(cfg.TokenDir)
			out := cmd.OutOrStdout()

			if list {
				accounts, err := store.Accounts()
				if err != nil {
					return err
				}
				for _, account := range accounts {
					fmt.Fprintln(out, account)
				}
				return nil
			}

			if err := cfg.ValidateGoogle(); err != nil {
				return err
			}
			conf, err := google.OAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
			if err != nil {
				return err
			}

			if code == "" {
				state, err := google.NewState()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Visit this URL in your browser:\n\n%s\n\n", google.AuthURL(conf, state))
				fmt.Fprint(out, "Authorization code: ")

				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
				code = line
			}

			code, err = extractAuthCode(code)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			tok, err := google.Exchange(ctx, conf, code)
			if err != nil {
				return err
			}
			if err := store.Save(globals.account, tok); err != nil {
				return err
			}

			email, err := google.UserEmail(ctx, google.HTTPClient(conf.TokenSource(ctx, tok)))
			if err != nil {
				logger.Warn("Could not resolve account email", logging.Err(err))
				email = "unknown email"
			}
			fmt.Fprintf(out, "Authorized account %q (%s). Token saved in %s\n", globals.account, email, cfg.TokenDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code (or redirect URL) from the consent page")
	cmd.Flags().BoolVar(&list, "list", false, "List accounts that have a stored token")

	return cmd
}

// extractAuthCode accepts either a bare authorization code or the URL the
// consent page redirected to.
func extractAuthCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("authorization code is empty")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	c := q.Get("code")
	if c == "" {
		return "", errors.New("redirect URL has no code parameter")
	}
	return c, nil
}
