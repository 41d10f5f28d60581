package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no token is stored for an account.
var ErrNoToken = errors.New("no stored token")

var accountRe = regexp.MustCompile(`^[A-Za-z0-9._@+-]{1,128}$`)

// TokenStore persists OAuth tokens per account.
type TokenStore interface {
	Load(account string) (*oauth2.Token, error)
	Save(account string, tok *oauth2.Token) error
	Has(account string) bool
}

// FileTokenStore keeps one token-<account>.json file per account in Dir.
type FileTokenStore struct {
	Dir string

	mu sync.Mutex
}

// NewFileTokenStore returns a store rooted at dir.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{Dir: dir}
}

// DefaultTokenDir is <user config dir>/chronocall.
func DefaultTokenDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "chronocall")
	}
	return ".chronocall"
}

func (s *FileTokenStore) path(account string) (string, error) {
	if !accountRe.MatchString(account) || strings.Contains(account, "..") {
		return "", fmt.Errorf("invalid account name %q", account)
	}
	return filepath.Join(s.Dir, "token-"+account+".json"), nil
}

// Load reads the token for account. A missing file yields ErrNoToken.
func (s *FileTokenStore) Load(account string) (*oauth2.Token, error) {
	p, err := s.path(account)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("account %s: %w; run 'chronocall auth --account %s' first", account, ErrNoToken, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}
	return tok, nil
}

// Save writes tok for account with 0600 permissions.
func (s *FileTokenStore) Save(account string, tok *oauth2.Token) error {
	p, err := s.path(account)
	if err != nil {
		return err
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Has reports whether a token file exists for account.
func (s *FileTokenStore) Has(account string) bool {
	p, err := s.path(account)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Accounts lists the accounts with stored tokens, sorted.
func (s *FileTokenStore) Accounts() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "token-") && strings.HasSuffix(name, ".json") {
			accounts = append(accounts, strings.TrimSuffix(strings.TrimPrefix(name, "token-"), ".json"))
		}
	}
	sort.Strings(accounts)
	return accounts, nil
}

// TokenSource returns a refreshing token source for account. Refreshed
// tokens are written back to store.
func TokenSource(ctx context.Context, conf *oauth2.Config, store TokenStore, account string) (oauth2.TokenSource, error) {
	tok, err := store.Load(account)
	if err != nil {
		return nil, err
	}
	return oauth2.ReuseTokenSource(tok, &persistingSource{
		base:    conf.TokenSource(ctx, tok),
		store:   store,
		account: account,
		last:    tok.AccessToken,
	}), nil
}

type persistingSource struct {
	base    oauth2.TokenSource
	store   TokenStore
	account string

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.store.Save(p.account, tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
