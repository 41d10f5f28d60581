package action

import (
	"fmt"
	"time"
)

// Kind identifies one of the four supported calendar operations.
type Kind string

const (
	KindCreate Kind = "create"
	KindDelete Kind = "delete"
	KindUpdate Kind = "update"
	KindView   Kind = "view"
)

// Tool names used by the model in the tool-call block.
const (
	ToolAddEventDate    = "add_event_date"
	ToolDeleteEventDate = "delete_event_date"
	ToolUpdateEvent     = "update_event"
	ToolViewEventDate   = "view_event_date"
)

// Argument keys recognized inside the tool-call "arguments" mapping.
const (
	FieldDate  = "date"
	FieldTime  = "time"
	FieldTitle = "title"
)

// Layouts for the textual date and time formats.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var toolKinds = map[string]Kind{
	ToolAddEventDate:    KindCreate,
	ToolDeleteEventDate: KindDelete,
	ToolUpdateEvent:     KindUpdate,
	ToolViewEventDate:   KindView,
}

// KindForTool maps a tool name to its action kind.
func KindForTool(name string) (Kind, bool) {
	k, ok := toolKinds[name]
	return k, ok
}

// ToolName returns the tool name the model uses for this kind.
func (k Kind) ToolName() string {
	for name, kind := range toolKinds {
		if kind == k {
			return name
		}
	}
	return ""
}

// Record is the raw action extracted from model output.
// Fields hold the argument values verbatim; an empty string means absent.
type Record struct {
	Kind  Kind
	Date  string
	Time  string
	Title string
}

// Date is a calendar day without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	if !dateRe.MatchString(s) {
		return Date{}, fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// In returns midnight of the day in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns the instant of clock c on day d in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Clock is a 24-hour wall-clock time with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an HH:MM string.
func ParseClock(s string) (Clock, error) {
	if !clockRe.MatchString(s) {
		return Clock{}, fmt.Errorf("time %q is not in HH:MM format", s)
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Action is a validated calendar operation. The set of implementations is
// closed: Create, Delete, Update and View.
type Action interface {
	Kind() Kind
	Day() Date
	// Record converts the action back to its raw form.
	Record() Record
	isAction()
}

// Create adds a one-hour event titled Title at Date+Time.
type Create struct {
	Date  Date
	Time  Clock
	Title string
}

// Delete removes every event on Date whose title equals Title.
type Delete struct {
	Date  Date
	Title string
}

// Update moves every event on Date whose title equals Title to NewTime.
type Update struct {
	Date    Date
	NewTime Clock
	Title   string
}

// View lists all events on Date.
type View struct {
	Date Date
}

func (Create) Kind() Kind { return KindCreate }
func (Delete) Kind() Kind { return KindDelete }
func (Update) Kind() Kind { return KindUpdate }
func (View) Kind() Kind   { return KindView }

func (a Create) Day() Date { return a.Date }
func (a Delete) Day() Date { return a.Date }
func (a Update) Day() Date { return a.Date }
func (a View) Day() Date   { return a.Date }

func (a Create) Record() Record {
	return Record{Kind: KindCreate, Date: a.Date.String(), Time: a.Time.String(), Title: a.Title}
}

func (a Delete) Record() Record {
	return Record{Kind: KindDelete, Date: a.Date.String(), Title: a.Title}
}

func (a Update) Record() Record {
	return Record{Kind: KindUpdate, Date: a.Date.String(), Time: a.NewTime.String(), Title: a.Title}
}

func (a View) Record() Record {
	return Record{Kind: KindView, Date: a.Date.String()}
}

func (Create) isAction() {}
func (Delete) isAction() {}
func (Update) isAction() {}
func (View) isAction()   {}
