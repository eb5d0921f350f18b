package calendar

import (
	"fmt"

	calendar "google.golang.org/api/calendar/v3"
)

const (
	// eventTimeZone is the fixed timezone applied to timed events built from
	// date+time inputs.
	eventTimeZone = "America/New_York"

	defaultTitle       = "No title"
	defaultCreateTitle = "New Event"
	deletedTitle       = "Untitled Event"
)

// toEvent maps a provider-native event to the simplified shape. The provider
// contract guarantees at least one of dateTime/date per boundary; dateTime is
// preferred when both are present.
func toEvent(event *calendar.Event) Event {
	title := event.Summary
	if title == "" {
		title = defaultTitle
	}

	return Event{
		ID:          event.Id,
		Title:       title,
		Start:       pickWhen(event.Start),
		End:         pickWhen(event.End),
		Description: event.Description,
		Location:    event.Location,
	}
}

func toEvents(items []*calendar.Event) []Event {
	events := make([]Event, 0, len(items))
	for _, item := range items {
		events = append(events, toEvent(item))
	}
	return events
}

func pickWhen(edt *calendar.EventDateTime) string {
	if edt == nil {
		return ""
	}
	if edt.DateTime != "" {
		return edt.DateTime
	}
	return edt.Date
}

// buildEventTimes constructs the provider-native start/end from date+time
// inputs. A timed event is pinned to the fixed event timezone; the end time
// defaults to the start time when no end is given. A date without a time
// yields an all-day event spanning that single date.
func buildEventTimes(date, startTime, endTime string) (start, end *calendar.EventDateTime) {
	if startTime != "" {
		if endTime == "" {
			endTime = startTime
		}
		start = &calendar.EventDateTime{
			DateTime: fmt.Sprintf("%sT%s:00", date, startTime),
			TimeZone: eventTimeZone,
		}
		end = &calendar.EventDateTime{
			DateTime: fmt.Sprintf("%sT%s:00", date, endTime),
			TimeZone: eventTimeZone,
		}
		return start, end
	}

	start = &calendar.EventDateTime{Date: date}
	end = &calendar.EventDateTime{Date: date}
	return start, end
}

// buildEvent maps CreateEventInput to a provider-native event.
func buildEvent(input CreateEventInput) *calendar.Event {
	title := input.Title
	if title == "" {
		title = defaultCreateTitle
	}

	event := &calendar.Event{
		Summary:     title,
		Description: input.Description,
		Location:    input.Location,
	}

	if input.Date != "" {
		event.Start, event.End = buildEventTimes(input.Date, input.Time, input.EndTime)
	}

	return event
}

// overlayEvent applies a partial update onto an existing provider-native
// event. Only non-nil fields are touched; start/end are rebuilt only when
// both a date and a time are supplied.
func overlayEvent(existing *calendar.Event, input UpdateEventInput) {
	if input.Title != nil {
		existing.Summary = *input.Title
	}
	if input.Description != nil {
		existing.Description = *input.Description
	}
	if input.Location != nil {
		existing.Location = *input.Location
	}

	if input.Date != nil && input.Time != nil {
		endTime := ""
		if input.EndTime != nil {
			endTime = *input.EndTime
		}
		existing.Start, existing.End = buildEventTimes(*input.Date, *input.Time, endTime)
	}
}
