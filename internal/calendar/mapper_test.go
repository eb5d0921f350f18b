package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	calendar "google.golang.org/api/calendar/v3"
)

func strPtr(s string) *string { return &s }

func TestToEvent(t *testing.T) {
	tests := []struct {
		name     string
		input    *calendar.Event
		expected Event
	}{
		{
			name: "timed event",
			input: &calendar.Event{
				Id:          "evt1",
				Summary:     "Standup",
				Description: "daily sync",
				Location:    "Room 4",
				Start:       &calendar.EventDateTime{DateTime: "2026-03-02T10:00:00-05:00"},
				End:         &calendar.EventDateTime{DateTime: "2026-03-02T10:30:00-05:00"},
			},
			expected: Event{
				ID:          "evt1",
				Title:       "Standup",
				Start:       "2026-03-02T10:00:00-05:00",
				End:         "2026-03-02T10:30:00-05:00",
				Description: "daily sync",
				Location:    "Room 4",
			},
		},
		{
			name: "all-day event uses date",
			input: &calendar.Event{
				Id:    "evt2",
				Start: &calendar.EventDateTime{Date: "2026-03-03"},
				End:   &calendar.EventDateTime{Date: "2026-03-04"},
			},
			expected: Event{
				ID:    "evt2",
				Title: "No title",
				Start: "2026-03-03",
				End:   "2026-03-04",
			},
		},
		{
			name: "dateTime preferred over date",
			input: &calendar.Event{
				Id:      "evt3",
				Summary: "Both set",
				Start: &calendar.EventDateTime{
					DateTime: "2026-03-03T09:00:00Z",
					Date:     "2026-03-03",
				},
				End: &calendar.EventDateTime{
					DateTime: "2026-03-03T10:00:00Z",
					Date:     "2026-03-03",
				},
			},
			expected: Event{
				ID:    "evt3",
				Title: "Both set",
				Start: "2026-03-03T09:00:00Z",
				End:   "2026-03-03T10:00:00Z",
			},
		},
		{
			name:  "missing boundaries",
			input: &calendar.Event{Id: "evt4", Summary: "No times"},
			expected: Event{
				ID:    "evt4",
				Title: "No times",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, toEvent(tc.input))
		})
	}
}

func TestBuildEventTimes(t *testing.T) {
	t.Run("timed with explicit end", func(t *testing.T) {
		start, end := buildEventTimes("2026-03-02", "14:00", "15:30")
		assert.Equal(t, "2026-03-02T14:00:00", start.DateTime)
		assert.Equal(t, "2026-03-02T15:30:00", end.DateTime)
		assert.Equal(t, "America/New_York", start.TimeZone)
		assert.Equal(t, "America/New_York", end.TimeZone)
	})

	t.Run("end defaults to start", func(t *testing.T) {
		start, end := buildEventTimes("2026-03-02", "14:00", "")
		assert.Equal(t, "2026-03-02T14:00:00", start.DateTime)
		assert.Equal(t, "2026-03-02T14:00:00", end.DateTime)
	})

	t.Run("date only is all-day", func(t *testing.T) {
		start, end := buildEventTimes("2026-03-02", "", "")
		assert.Equal(t, "2026-03-02", start.Date)
		assert.Equal(t, "2026-03-02", end.Date)
		assert.Empty(t, start.DateTime)
		assert.Empty(t, end.DateTime)
	})
}

func TestBuildEvent(t *testing.T) {
	t.Run("title defaults when empty", func(t *testing.T) {
		event := buildEvent(CreateEventInput{Date: "2026-03-02"})
		assert.Equal(t, "New Event", event.Summary)
	})

	t.Run("no date leaves times unset", func(t *testing.T) {
		event := buildEvent(CreateEventInput{Title: "Someday"})
		assert.Nil(t, event.Start)
		assert.Nil(t, event.End)
	})

	t.Run("full input", func(t *testing.T) {
		event := buildEvent(CreateEventInput{
			Title:       "Planning",
			Description: "Q2 roadmap",
			Location:    "HQ",
			Date:        "2026-03-02",
			Time:        "09:00",
			EndTime:     "11:00",
		})
		assert.Equal(t, "Planning", event.Summary)
		assert.Equal(t, "Q2 roadmap", event.Description)
		assert.Equal(t, "HQ", event.Location)
		assert.Equal(t, "2026-03-02T09:00:00", event.Start.DateTime)
		assert.Equal(t, "2026-03-02T11:00:00", event.End.DateTime)
	})
}

func TestOverlayEvent(t *testing.T) {
	base := func() *calendar.Event {
		return &calendar.Event{
			Summary:     "Original",
			Description: "original description",
			Location:    "original location",
			Start:       &calendar.EventDateTime{DateTime: "2026-03-02T09:00:00-05:00"},
			End:         &calendar.EventDateTime{DateTime: "2026-03-02T10:00:00-05:00"},
		}
	}

	t.Run("nil fields untouched", func(t *testing.T) {
		existing := base()
		overlayEvent(existing, UpdateEventInput{Title: strPtr("Renamed")})

		assert.Equal(t, "Renamed", existing.Summary)
		assert.Equal(t, "original description", existing.Description)
		assert.Equal(t, "original location", existing.Location)
		assert.Equal(t, "2026-03-02T09:00:00-05:00", existing.Start.DateTime)
	})

	t.Run("date alone does not rebuild times", func(t *testing.T) {
		existing := base()
		overlayEvent(existing, UpdateEventInput{Date: strPtr("2026-04-01")})

		assert.Equal(t, "2026-03-02T09:00:00-05:00", existing.Start.DateTime)
		assert.Equal(t, "2026-03-02T10:00:00-05:00", existing.End.DateTime)
	})

	t.Run("date and time rebuild both boundaries", func(t *testing.T) {
		existing := base()
		overlayEvent(existing, UpdateEventInput{
			Date: strPtr("2026-04-01"),
			Time: strPtr("13:00"),
		})

		assert.Equal(t, "2026-04-01T13:00:00", existing.Start.DateTime)
		assert.Equal(t, "2026-04-01T13:00:00", existing.End.DateTime)
		assert.Equal(t, "America/New_York", existing.Start.TimeZone)
	})

	t.Run("explicit end time honored", func(t *testing.T) {
		existing := base()
		overlayEvent(existing, UpdateEventInput{
			Date:    strPtr("2026-04-01"),
			Time:    strPtr("13:00"),
			EndTime: strPtr("14:30"),
		})

		assert.Equal(t, "2026-04-01T14:30:00", existing.End.DateTime)
	})

	t.Run("empty string clears a field", func(t *testing.T) {
		existing := base()
		overlayEvent(existing, UpdateEventInput{Description: strPtr("")})

		assert.Empty(t, existing.Description)
		assert.Equal(t, "Original", existing.Summary)
	})
}
