// Package executor applies validated actions to a calendar backend and
// produces the user-facing result.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/wayward-wolves/chronocall/internal/action"
	chcal "github.com/wayward-wolves/chronocall/internal/calendar"
	"github.com/wayward-wolves/chronocall/internal/instrumentation"
	"github.com/wayward-wolves/chronocall/internal/messages"
)

// Outcome classifies how a turn ended.
type Outcome string

const (
	OutcomeDone           Outcome = "done"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeNoEvents       Outcome = "no_events"
	OutcomeInvalid        Outcome = "invalid"
	OutcomeLookupFailed   Outcome = "lookup_failed"
	OutcomeMutationFailed Outcome = "mutation_failed"
	OutcomeModelFailed    Outcome = "model_failed"
	OutcomeNoAction       Outcome = "no_action"
)

// DefaultEventDuration is the length of created and moved events.
const DefaultEventDuration = time.Hour

// AllDayTime is shown instead of a clock for all-day events.
const AllDayTime = "-"

// Entry is one line of a day listing.
type Entry struct {
	Title string
	Time  string
}

// Result is what a front-end shows after an action.
type Result struct {
	Message string
	Success bool
	Outcome Outcome
	Entries []Entry

	// Affected counts events created, deleted or moved.
	Affected int
	// Err is the underlying failure, if any. It is not shown to users
	// beyond what Message already says.
	Err error
}

// Executor runs actions against one calendar in one language.
type Executor struct {
	backend  chcal.Backend
	lookup   *chcal.Lookup
	zone     chcal.Zone
	printer  *messages.Printer
	duration time.Duration
	metrics  *instrumentation.Metrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithEventDuration overrides DefaultEventDuration.
func WithEventDuration(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.duration = d
		}
	}
}

// WithMetrics records chronocall_actions_total.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// New returns an Executor for backend. Dates are interpreted in zone and
// messages rendered with printer.
func New(backend chcal.Backend, zone chcal.Zone, printer *messages.Printer, opts ...Option) *Executor {
	e := &Executor{
		backend:  backend,
		lookup:   chcal.NewLookup(backend, zone),
		zone:     zone,
		printer:  printer,
		duration: DefaultEventDuration,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute applies a. Identity is resolved by (date, title) at the moment
// of the call; nothing from earlier turns is reused.
func (e *Executor) Execute(ctx context.Context, a action.Action) Result {
	var res Result
	switch a := a.(type) {
	case action.Create:
		res = e.create(ctx, a)
	case action.Delete:
		res = e.delete(ctx, a)
	case action.Update:
		res = e.update(ctx, a)
	case action.View:
		res = e.view(ctx, a)
	default:
		panic(fmt.Sprintf("executor: unhandled action %T", a))
	}
	e.metrics.RecordAction(ctx, string(a.Kind()), string(res.Outcome))
	return res
}

func (e *Executor) create(ctx context.Context, a action.Create) Result {
	start := a.Date.At(a.Time, e.zone.Location)
	ev := &calendar.Event{
		Summary: a.Title,
		Start:   e.zone.DateTime(start),
		End:     e.zone.DateTime(start.Add(e.duration)),
	}

	created, err := e.backend.InsertEvent(ctx, ev)
	if err != nil {
		return Result{
			Message: e.printer.Sprintf(messages.CreateFailed, err.Error()),
			Outcome: OutcomeMutationFailed,
			Err:     err,
		}
	}
	return Result{
		Message:  e.printer.Sprintf(messages.Created, a.Title, created.HtmlLink),
		Success:  true,
		Outcome:  OutcomeDone,
		Affected: 1,
	}
}

func (e *Executor) delete(ctx context.Context, a action.Delete) Result {
	matches, err := e.lookup.FindByDateAndTitle(ctx, a.Date, a.Title)
	if err != nil {
		return e.lookupFailed(err)
	}
	if len(matches) == 0 {
		return e.notFound(a.Title, a.Date)
	}

	for i, ev := range matches {
		if err := e.backend.DeleteEvent(ctx, ev.Id); err != nil {
			return Result{
				Message:  e.printer.Sprintf(messages.DeletePartial, i, len(matches), a.Title, a.Date.String(), err.Error()),
				Outcome:  OutcomeMutationFailed,
				Affected: i,
				Err:      err,
			}
		}
	}
	return Result{
		Message:  e.printer.Sprintf(messages.Deleted, a.Title, a.Date.String(), len(matches)),
		Success:  true,
		Outcome:  OutcomeDone,
		Affected: len(matches),
	}
}

func (e *Executor) update(ctx context.Context, a action.Update) Result {
	matches, err := e.lookup.FindByDateAndTitle(ctx, a.Date, a.Title)
	if err != nil {
		return e.lookupFailed(err)
	}
	if len(matches) == 0 {
		return e.notFound(a.Title, a.Date)
	}

	start := a.Date.At(a.NewTime, e.zone.Location)
	newTime := a.NewTime.String()
	for i, ev := range matches {
		ev.Start = e.zone.DateTime(start)
		ev.End = e.zone.DateTime(start.Add(e.duration))
		if _, err := e.backend.UpdateEvent(ctx, ev); err != nil {
			return Result{
				Message:  e.printer.Sprintf(messages.UpdatePartial, i, len(matches), a.Title, a.Date.String(), newTime, err.Error()),
				Outcome:  OutcomeMutationFailed,
				Affected: i,
				Err:      err,
			}
		}
	}
	return Result{
		Message:  e.printer.Sprintf(messages.Updated, a.Title, a.Date.String(), newTime, len(matches)),
		Success:  true,
		Outcome:  OutcomeDone,
		Affected: len(matches),
	}
}

func (e *Executor) view(ctx context.Context, a action.View) Result {
	events, err := e.lookup.FindByDate(ctx, a.Date)
	if err != nil {
		return e.lookupFailed(err)
	}
	if len(events) == 0 {
		return Result{
			Message: e.printer.Sprintf(messages.NoEvents, a.Date.String()),
			Success: true,
			Outcome: OutcomeNoEvents,
		}
	}

	entries := make([]Entry, 0, len(events))
	lines := []string{e.printer.Sprintf(messages.ViewHeader, a.Date.String())}
	for _, ev := range events {
		entry := Entry{Title: ev.Summary, Time: e.clockOf(ev)}
		entries = append(entries, entry)
		lines = append(lines, e.printer.Sprintf(messages.ViewLine, entry.Title, entry.Time))
	}
	return Result{
		Message: strings.Join(lines, "\n"),
		Success: true,
		Outcome: OutcomeDone,
		Entries: entries,
	}
}

// clockOf renders the start of ev as HH:MM in the reference zone, or
// AllDayTime when the event has no time of day.
func (e *Executor) clockOf(ev *calendar.Event) string {
	start, allDay, err := e.zone.EventStart(ev)
	if err != nil || allDay {
		return AllDayTime
	}
	return start.Format(action.ClockLayout)
}

func (e *Executor) notFound(title string, d action.Date) Result {
	return Result{
		Message: e.printer.Sprintf(messages.NotFound, title, d.String()),
		Outcome: OutcomeNotFound,
	}
}

func (e *Executor) lookupFailed(err error) Result {
	cause := err
	var le *chcal.LookupError
	if errors.As(err, &le) {
		cause = le.Err
	}
	return Result{
		Message: e.printer.Sprintf(messages.LookupFailed, cause.Error()),
		Outcome: OutcomeLookupFailed,
		Err:     err,
	}
}
