// Package calendartest provides an in-memory calendar.Backend for tests.
package calendartest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// ErrNotFound is returned for updates and deletes of unknown ids.
var ErrNotFound = errors.New("event not found")

// Fake stores events in memory. Errors can be injected per operation or,
// for deletes, per event id. All methods are safe for concurrent use.
type Fake struct {
	// PageSize splits ListEvents results into pages when positive.
	PageSize int

	// AllDayZone places date-only events in time. Nil means UTC.
	AllDayZone *time.Location

	ListErr   error
	InsertErr error
	UpdateErr error
	// DeleteErrs fails the delete of specific event ids.
	DeleteErrs map[string]error

	mu     sync.Mutex
	events map[string]*calendar.Event
	nextID int
	calls  []string
}

// New returns an empty Fake holding a copy of each seed event. Seeds
// without an id get one.
func New(seed ...*calendar.Event) *Fake {
	f := &Fake{events: make(map[string]*calendar.Event)}
	for _, ev := range seed {
		c := clone(ev)
		if c.Id == "" {
			c.Id = f.newID()
		}
		f.events[c.Id] = c
	}
	return f
}

func (f *Fake) newID() string {
	f.nextID++
	return "evt" + strconv.Itoa(f.nextID)
}

func (f *Fake) record(call string) {
	f.calls = append(f.calls, call)
}

// Calls returns the operations performed so far, e.g. "list", "delete:evt1".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// MutationCount returns how many insert, update and delete calls were made.
func (f *Fake) MutationCount() int {
	n := 0
	for _, c := range f.Calls() {
		if c != "list" {
			n++
		}
	}
	return n
}

// Get returns a copy of the stored event, or nil.
func (f *Fake) Get(id string) *calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.events[id]; ok {
		return clone(ev)
	}
	return nil
}

// Events returns copies of all stored events ordered by start.
func (f *Fake) Events() []*calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(nil)
}

func (f *Fake) sorted(keep func(*calendar.Event) bool) []*calendar.Event {
	out := make([]*calendar.Event, 0, len(f.events))
	for _, ev := range f.events {
		if keep == nil || keep(ev) {
			out = append(out, clone(ev))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := f.startOf(out[i]), f.startOf(out[j])
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return out[i].Id < out[j].Id
	})
	return out
}

// ListEvents returns events overlapping [timeMin, timeMax).
func (f *Fake) ListEvents(_ context.Context, timeMin, timeMax time.Time, pageToken string) (*calendar.Events, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list")

	if f.ListErr != nil {
		return nil, f.ListErr
	}

	items := f.sorted(func(ev *calendar.Event) bool {
		start, end := f.startOf(ev), f.endOf(ev)
		return end.After(timeMin) && start.Before(timeMax)
	})

	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 || n > len(items) {
			return nil, fmt.Errorf("invalid page token %q", pageToken)
		}
		offset = n
	}
	items = items[offset:]

	res := &calendar.Events{}
	if f.PageSize > 0 && len(items) > f.PageSize {
		items = items[:f.PageSize]
		res.NextPageToken = strconv.Itoa(offset + f.PageSize)
	}
	res.Items = items
	return res, nil
}

// InsertEvent stores a copy of ev under a new id.
func (f *Fake) InsertEvent(_ context.Context, ev *calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("insert")

	if f.InsertErr != nil {
		return nil, f.InsertErr
	}

	c := clone(ev)
	c.Id = f.newID()
	c.HtmlLink = "https://www.google.com/calendar/event?eid=" + c.Id
	f.events[c.Id] = c
	return clone(c), nil
}

// UpdateEvent replaces the stored event with a copy of ev.
func (f *Fake) UpdateEvent(_ context.Context, ev *calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update:" + ev.Id)

	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	if _, ok := f.events[ev.Id]; !ok {
		return nil, ErrNotFound
	}
	f.events[ev.Id] = clone(ev)
	return clone(ev), nil
}

// DeleteEvent removes the event with eventID.
func (f *Fake) DeleteEvent(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete:" + eventID)

	if err := f.DeleteErrs[eventID]; err != nil {
		return err
	}
	if _, ok := f.events[eventID]; !ok {
		return ErrNotFound
	}
	delete(f.events, eventID)
	return nil
}

func clone(ev *calendar.Event) *calendar.Event {
	b, err := json.Marshal(ev)
	if err != nil {
		panic(err)
	}
	out := &calendar.Event{}
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	return out
}

func (f *Fake) parseEventTime(dt *calendar.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, dt.DateTime)
		return t
	}
	if dt.Date != "" {
		loc := f.AllDayZone
		if loc == nil {
			loc = time.UTC
		}
		t, _ := time.ParseInLocation("2006-01-02", dt.Date, loc)
		return t
	}
	return time.Time{}
}

func (f *Fake) startOf(ev *calendar.Event) time.Time { return f.parseEventTime(ev.Start) }

func (f *Fake) endOf(ev *calendar.Event) time.Time {
	if end := f.parseEventTime(ev.End); !end.IsZero() {
		return end
	}
	return f.startOf(ev).Add(time.Nanosecond)
}

// Timed returns an event from start to end in RFC3339.
func Timed(summary string, start, end time.Time) *calendar.Event {
	return &calendar.Event{
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
}

// AllDay returns a date-only event from date up to (excluding) nextDate.
func AllDay(summary, date, nextDate string) *calendar.Event {
	return &calendar.Event{
		Summary: summary,
		Start:   &calendar.EventDateTime{Date: date},
		End:     &calendar.EventDateTime{Date: nextDate},
	}
}
