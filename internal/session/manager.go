package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/wayward-wolves/chronocall/internal/calendar"
	"github.com/wayward-wolves/chronocall/internal/instrumentation"
)

// DefaultTimeout is how long an idle session lives.
const DefaultTimeout = 24 * time.Hour

const maxCleanupInterval = 10 * time.Minute

// Manager keeps the live sessions of the web front-end and expires idle ones.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	timeout       time.Duration
	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	stopOnce      sync.Once

	now     func() time.Time
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewManager starts a manager that drops sessions idle for longer than
// timeout. Call Stop to end the cleanup goroutine.
func NewManager(timeout time.Duration, logger *slog.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	interval := maxCleanupInterval
	if timeout < interval {
		interval = timeout
	}

	m := &Manager{
		sessions:      make(map[string]*Session),
		timeout:       timeout,
		cleanupTicker: time.NewTicker(interval),
		cleanupDone:   make(chan struct{}),
		now:           time.Now,
		logger:        logger,
	}
	go m.cleanupExpiredSessions()
	return m
}

// WithMetrics keeps the active_sessions gauge up to date.
func (m *Manager) WithMetrics(metrics *instrumentation.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Create registers a new session for an authorized backend.
func (m *Manager) Create(account, language string, backend calendar.Backend) *Session {
	s := New(account, SourceWeb, language, backend)
	now := m.now()
	s.CreatedAt = now
	s.touch(now)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.metrics.IncrementActiveSessions(context.Background())
	m.logger.Debug("Session created", "session_id", s.ID)
	return s
}

// Get returns the session with id and marks it as used. Expired sessions
// are removed and reported as missing.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := m.now()
	if s.idleSince(now) > m.timeout {
		m.Remove(id)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Remove ends the session with id. It reports whether it existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.metrics.DecrementActiveSessions(context.Background())
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// List returns the ids of all live sessions, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) expire(now time.Time) int {
	m.mu.Lock()
	expired := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > m.timeout {
			delete(m.sessions, id)
			expired++
		}
	}
	m.mu.Unlock()

	for i := 0; i < expired; i++ {
		m.metrics.DecrementActiveSessions(context.Background())
	}
	return expired
}

func (m *Manager) cleanupExpiredSessions() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.expire(m.now()); n > 0 {
				m.logger.Info("Cleaned up expired sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}
