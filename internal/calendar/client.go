package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/wayward-wolves/chronocall/internal/instrumentation"
)

// DefaultCalendarID addresses the authorized user's primary calendar.
const DefaultCalendarID = "primary"

// Client wraps the Google Calendar service for a single calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	metrics    *instrumentation.Metrics
}

var _ Backend = (*Client)(nil)

// NewClient creates a Calendar client that sends requests through
// httpClient, which must already carry authorization. Extra options are
// mostly for tests (option.WithEndpoint).
func NewClient(ctx context.Context, httpClient *http.Client, calendarID string, opts ...option.ClientOption) (*Client, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, calendarID: calendarID}, nil
}

// WithMetrics makes the client record google_api_operations metrics.
func (c *Client) WithMetrics(m *instrumentation.Metrics) *Client {
	c.metrics = m
	return c
}

// CalendarID returns the calendar this client operates on.
func (c *Client) CalendarID() string {
	return c.calendarID
}

func (c *Client) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, operation,
		attribute.String(instrumentation.SpanAttrCalendarID, c.calendarID))
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, time.Since(start))
	return err
}

// ListEvents lists one page of events in [timeMin, timeMax).
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time, pageToken string) (*calendar.Events, error) {
	var events *calendar.Events
	err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		call := c.svc.Events.List(c.calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var err error
		events, err = call.Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// InsertEvent creates ev on the calendar.
func (c *Client) InsertEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error) {
	var created *calendar.Event
	err := c.observe(ctx, instrumentation.OperationCreate, func(ctx context.Context) error {
		var err error
		created, err = c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

// UpdateEvent replaces the stored event ev.Id with ev.
func (c *Client) UpdateEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error) {
	if ev == nil || ev.Id == "" {
		return nil, fmt.Errorf("failed to update event: missing event id")
	}

	var updated *calendar.Event
	err := c.observe(ctx, instrumentation.OperationUpdate, func(ctx context.Context) error {
		var err error
		updated, err = c.svc.Events.Update(c.calendarID, ev.Id, ev).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return updated, nil
}

// DeleteEvent deletes the event with eventID.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.observe(ctx, instrumentation.OperationDelete, func(ctx context.Context) error {
		return c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
