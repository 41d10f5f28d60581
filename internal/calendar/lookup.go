package calendar

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/wayward-wolves/chronocall/internal/action"
)

// maxListPages bounds paging through a single day.
const maxListPages = 50

// LookupError reports a backend failure while resolving events for a date.
type LookupError struct {
	Date action.Date
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup events on %s: %v", e.Date, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Lookup resolves events by date, and by date plus exact title.
type Lookup struct {
	backend Backend
	zone    Zone
}

// NewLookup returns a Lookup that interprets dates in zone.
func NewLookup(backend Backend, zone Zone) *Lookup {
	return &Lookup{backend: backend, zone: zone}
}

// FindByDate returns every event that starts on day d, from midnight to the
// next midnight in the reference zone, ordered by start time. The backend
// lists by overlap, so events carried over from the previous day are
// dropped here. All-day events dated d are kept.
func (l *Lookup) FindByDate(ctx context.Context, d action.Date) ([]*calendar.Event, error) {
	timeMin := d.In(l.zone.Location)
	timeMax := timeMin.AddDate(0, 0, 1)

	var (
		out       []*calendar.Event
		pageToken string
	)
	for page := 0; page < maxListPages; page++ {
		res, err := l.backend.ListEvents(ctx, timeMin, timeMax, pageToken)
		if err != nil {
			return nil, &LookupError{Date: d, Err: err}
		}
		if res == nil {
			break
		}
		for _, ev := range res.Items {
			if l.startsWithin(ev, timeMin, timeMax) {
				out = append(out, ev)
			}
		}
		if res.NextPageToken == "" {
			return out, nil
		}
		pageToken = res.NextPageToken
	}
	if pageToken != "" {
		return nil, &LookupError{Date: d, Err: fmt.Errorf("more than %d pages of events", maxListPages)}
	}
	return out, nil
}

// startsWithin reports whether ev starts in [timeMin, timeMax). Nil events
// and events without a readable start never do.
func (l *Lookup) startsWithin(ev *calendar.Event, timeMin, timeMax time.Time) bool {
	start, _, err := l.zone.EventStart(ev)
	if err != nil {
		return false
	}
	return !start.Before(timeMin) && start.Before(timeMax)
}

// FindByDateAndTitle returns the events on d whose summary equals title
// exactly. Matching is case-sensitive and every duplicate is returned.
func (l *Lookup) FindByDateAndTitle(ctx context.Context, d action.Date, title string) ([]*calendar.Event, error) {
	events, err := l.FindByDate(ctx, d)
	if err != nil {
		return nil, err
	}

	var matches []*calendar.Event
	for _, ev := range events {
		if ev.Summary == title {
			matches = append(matches, ev)
		}
	}
	return matches, nil
}
