package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayward-wolves/chronocall/internal/calendar/calendartest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, timeout time.Duration) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(timeout, nil)
	m.now = clock.Now
	t.Cleanup(m.Stop)
	return m, clock
}

func TestNew(t *testing.T) {
	backend := calendartest.New()
	s := New("", SourceChat, "th", backend)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, DefaultAccount, s.Account)
	assert.Equal(t, SourceChat, s.Source)
	assert.Equal(t, "th", s.Language)
	assert.Same(t, backend, s.Backend)
	assert.False(t, s.CreatedAt.IsZero())

	assert.NotEqual(t, s.ID, New("", SourceChat, "th", backend).ID)
}

func TestManager_CreateGetRemove(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)

	s := m.Create("somchai@example.com", "en", calendartest.New())
	assert.Equal(t, SourceWeb, s.Source)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []string{s.ID}, m.List())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("unknown")
	assert.False(t, ok)

	assert.True(t, m.Remove(s.ID))
	assert.False(t, m.Remove(s.ID))
	_, ok = m.Get(s.ID)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestManager_IdleExpiry(t *testing.T) {
	m, clock := newTestManager(t, time.Hour)
	s := m.Create("", "th", calendartest.New())

	clock.Advance(50 * time.Minute)
	_, ok := m.Get(s.ID)
	require.True(t, ok, "access refreshes the idle timer")
	assert.Equal(t, clock.Now(), s.LastAccess())

	clock.Advance(50 * time.Minute)
	_, ok = m.Get(s.ID)
	require.True(t, ok)

	clock.Advance(61 * time.Minute)
	_, ok = m.Get(s.ID)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestManager_Expire(t *testing.T) {
	m, clock := newTestManager(t, time.Hour)
	old := m.Create("a", "th", calendartest.New())
	clock.Advance(45 * time.Minute)
	fresh := m.Create("b", "th", calendartest.New())

	assert.Equal(t, 1, m.expire(clock.Now().Add(30*time.Minute)))
	assert.Equal(t, []string{fresh.ID}, m.List())
	_, ok := m.Get(old.ID)
	assert.False(t, ok)
}

func TestManager_StopTwice(t *testing.T) {
	m := NewManager(time.Minute, nil)
	m.Stop()
	assert.NotPanics(t, m.Stop)
}

func TestSession_LockSerializesTurns(t *testing.T) {
	s := New("", SourceWeb, "th", calendartest.New())

	var (
		running int32
		overlap int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Lock()
			defer s.Unlock()
			if atomic.AddInt32(&running, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&running, -1)
		}()
	}
	wg.Wait()
	assert.Zero(t, atomic.LoadInt32(&overlap))
}
