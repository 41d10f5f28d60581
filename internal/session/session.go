// Package session holds the per-user state a turn runs against: the
// authorized calendar backend and the display language.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wayward-wolves/chronocall/internal/calendar"
)

// Sources identify the front-end that owns a session.
const (
	SourceChat = "chat"
	SourceWeb  = "web"
	SourceMCP  = "mcp"
	SourceRun  = "run"
)

// DefaultAccount names the account used when none is given.
const DefaultAccount = "default"

// Session is one authorized user context. Turns of the same session are
// serialized with Lock and Unlock.
type Session struct {
	ID        string
	Account   string
	Source    string
	Language  string
	Backend   calendar.Backend
	CreatedAt time.Time

	turn sync.Mutex

	mu         sync.Mutex
	lastAccess time.Time
}

// New returns a session with a fresh random id.
func New(account, source, language string, backend calendar.Backend) *Session {
	if account == "" {
		account = DefaultAccount
	}
	now := time.Now()
	return &Session{
		ID:         uuid.NewString(),
		Account:    account,
		Source:     source,
		Language:   language,
		Backend:    backend,
		CreatedAt:  now,
		lastAccess: now,
	}
}

// Lock blocks until no other turn of this session is running.
func (s *Session) Lock() { s.turn.Lock() }

// Unlock ends the current turn.
func (s *Session) Unlock() { s.turn.Unlock() }

// LastAccess returns when the session was last used.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastAccess)
}
