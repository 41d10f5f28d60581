package calendar

import (
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Zone is the reference time zone events are created and displayed in.
// Name is sent to the API as the event timeZone; Location does the
// arithmetic.
type Zone struct {
	Name     string
	Location *time.Location
}

// DefaultZoneName and DefaultZoneOffset describe the reference zone, UTC+7.
const (
	DefaultZoneName   = "Asia/Bangkok"
	DefaultZoneOffset = 7 * time.Hour
)

// NewZone returns a fixed-offset zone.
func NewZone(name string, offset time.Duration) Zone {
	return Zone{Name: name, Location: time.FixedZone(name, int(offset/time.Second))}
}

// DefaultZone returns Asia/Bangkok at a fixed +07:00.
func DefaultZone() Zone {
	return NewZone(DefaultZoneName, DefaultZoneOffset)
}

// DateTime returns the API representation of t in z.
func (z Zone) DateTime(t time.Time) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.In(z.Location).Format(time.RFC3339),
		TimeZone: z.Name,
	}
}

// EventStart returns when ev starts in z. allDay is true for date-only
// events, whose time is midnight of the date.
func (z Zone) EventStart(ev *calendar.Event) (start time.Time, allDay bool, err error) {
	if ev == nil || ev.Start == nil {
		return time.Time{}, false, fmt.Errorf("event has no start")
	}
	if ev.Start.DateTime != "" {
		t, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid start %q: %w", ev.Start.DateTime, err)
		}
		return t.In(z.Location), false, nil
	}
	if ev.Start.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", ev.Start.Date, z.Location)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid start date %q: %w", ev.Start.Date, err)
		}
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("event has no start")
}
