package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/calendar-api/internal/instrumentation"
)

const (
	defaultCalendarID = "primary"

	listMaxResults   = 50
	searchMaxResults = 25
)

// Client wraps the Google Calendar service for a single fixed calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	metrics    *instrumentation.Metrics
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// CalendarID selects the calendar; defaults to "primary".
	CalendarID string

	// Endpoint overrides the Google Calendar API base URL, for testing
	// against a mock server.
	Endpoint string

	// Metrics records per-operation metrics. Optional.
	Metrics *instrumentation.Metrics
}

// NewClient creates a Google Calendar client over the given authenticated
// HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, cfg ClientConfig) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = defaultCalendarID
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	return &Client{
		svc:        svc,
		calendarID: calendarID,
		metrics:    metrics,
	}, nil
}

// ListEvents returns events in the half-open window [from, from+days),
// expanded into single occurrences and ordered by start time, capped at 50
// results. A non-empty query is passed through as a free-text filter.
func (c *Client) ListEvents(ctx context.Context, from time.Time, days int, query string) ([]Event, error) {
	start := time.Now()

	timeMin := from.UTC()
	timeMax := timeMin.AddDate(0, 0, days)

	call := c.svc.Events.List(c.calendarID).Context(ctx).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(listMaxResults).
		SingleEvents(true).
		OrderBy("startTime")
	if query != "" {
		call = call.Q(query)
	}

	result, err := call.Do()
	c.record(ctx, "list", err, start)
	if err != nil {
		return nil, &RemoteError{Op: "list", Err: err}
	}

	return toEvents(result.Items), nil
}

// SearchEvents returns events matching the free-text query with no date
// bounds, capped at 25 results. An empty query is a validation error.
func (c *Client) SearchEvents(ctx context.Context, query string) ([]Event, error) {
	if query == "" {
		return nil, &ValidationError{Msg: "Query parameter required"}
	}

	start := time.Now()

	result, err := c.svc.Events.List(c.calendarID).Context(ctx).
		Q(query).
		MaxResults(searchMaxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Do()
	c.record(ctx, "search", err, start)
	if err != nil {
		return nil, &RemoteError{Op: "search", Err: err}
	}

	return toEvents(result.Items), nil
}

// CreateEvent inserts a new event built from the input fields.
func (c *Client) CreateEvent(ctx context.Context, input CreateEventInput) (*EventRef, error) {
	start := time.Now()

	event := buildEvent(input)

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	c.record(ctx, "insert", err, start)
	if err != nil {
		return nil, &RemoteError{Op: "insert", Err: err}
	}

	return &EventRef{
		ID:       created.Id,
		Title:    created.Summary,
		HTMLLink: created.HtmlLink,
	}, nil
}

// UpdateEvent fetches the existing event, overlays only the fields present in
// the input, and replaces the event. Omitted fields are untouched.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, input UpdateEventInput) (*EventRef, error) {
	start := time.Now()

	existing, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	c.record(ctx, "get", err, start)
	if err != nil {
		return nil, &RemoteError{Op: "get", Err: err}
	}

	overlayEvent(existing, input)

	start = time.Now()
	updated, err := c.svc.Events.Update(c.calendarID, eventID, existing).Context(ctx).Do()
	c.record(ctx, "update", err, start)
	if err != nil {
		return nil, &RemoteError{Op: "update", Err: err}
	}

	return &EventRef{
		ID:       updated.Id,
		Title:    updated.Summary,
		HTMLLink: updated.HtmlLink,
	}, nil
}

// DeleteEvent fetches the event first so the response can echo its title,
// then deletes it. When the fetch fails the delete is not attempted and the
// error propagates.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) (string, error) {
	start := time.Now()

	existing, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	c.record(ctx, "get", err, start)
	if err != nil {
		return "", &RemoteError{Op: "get", Err: err}
	}

	title := existing.Summary
	if title == "" {
		title = deletedTitle
	}

	start = time.Now()
	err = c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	c.record(ctx, "delete", err, start)
	if err != nil {
		return "", &RemoteError{Op: "delete", Err: err}
	}

	return title, nil
}

func (c *Client) record(ctx context.Context, op string, err error, start time.Time) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordCalendarOperation(ctx, op, status, time.Since(start))
}
