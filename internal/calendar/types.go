package calendar

// Event is the simplified, flat event shape this service returns to clients.
// Start and End hold either a date-only string (all-day events) or a
// date-time string, depending on which field the provider returned.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// EventRef identifies a created or updated event.
type EventRef struct {
	ID       string
	Title    string
	HTMLLink string
}

// CreateEventInput carries the fields for a new event. Date is YYYY-MM-DD;
// Time and EndTime are HH:MM wall-clock values in the service's fixed event
// timezone. With Date and Time set the event is timed (EndTime defaulting to
// Time); with only Date set it is an all-day event.
type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	Date        string
	Time        string
	EndTime     string
}

// UpdateEventInput carries a partial update. Nil fields leave the existing
// event untouched; Start/End are rebuilt only when both Date and Time are
// present, using the same construction rule as create.
type UpdateEventInput struct {
	Title       *string
	Description *string
	Location    *string
	Date        *string
	Time        *string
	EndTime     *string
}
