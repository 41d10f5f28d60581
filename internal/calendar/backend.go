package calendar

import (
	"context"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Backend is the calendar store the executor mutates. Client implements it
// over the Google Calendar API; calendartest.Fake implements it in memory.
type Backend interface {
	// ListEvents returns one page of single (recurrence-expanded) events
	// overlapping [timeMin, timeMax), ordered by start time.
	ListEvents(ctx context.Context, timeMin, timeMax time.Time, pageToken string) (*calendar.Events, error)

	// InsertEvent creates ev and returns the stored event.
	InsertEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error)

	// UpdateEvent replaces the event identified by ev.Id with ev.
	UpdateEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error)

	// DeleteEvent removes the event with the given id.
	DeleteEvent(ctx context.Context, eventID string) error
}
