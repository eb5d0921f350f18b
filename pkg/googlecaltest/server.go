package googlecaltest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Server is a fake Google Calendar API server backed by an in-memory event
// store, keyed by calendar ID.
type Server struct {
	*httptest.Server

	mu     sync.RWMutex
	events map[string]map[string]*calendar.Event // calendarID -> eventID -> event
	calls  map[string]int                        // operation -> request count
	nextID int
}

// NewServer creates and starts a fake Google Calendar API server.
func NewServer() *Server {
	s := &Server{
		events: make(map[string]map[string]*calendar.Event),
		calls:  make(map[string]int),
		nextID: 1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.route)

	s.Server = httptest.NewServer(mux)
	return s
}

// route dispatches /calendars/{calendarId}/events[/{eventId}] requests.
func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	idx := strings.Index(path, "/calendars/")
	if idx == -1 {
		writeAPIError(w, http.StatusNotFound, "unsupported endpoint")
		return
	}

	parts := strings.Split(strings.Trim(path[idx+len("/calendars/"):], "/"), "/")
	if len(parts) < 2 || parts[1] != "events" {
		writeAPIError(w, http.StatusBadRequest, "expected calendars/{calendarId}/events")
		return
	}
	calendarID := parts[0]

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		s.listEvents(w, r, calendarID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		s.insertEvent(w, r, calendarID)
	case len(parts) == 3 && r.Method == http.MethodGet:
		s.getEvent(w, calendarID, parts[2])
	case len(parts) == 3 && (r.Method == http.MethodPut || r.Method == http.MethodPatch):
		s.updateEvent(w, r, calendarID, parts[2])
	case len(parts) == 3 && r.Method == http.MethodDelete:
		s.deleteEvent(w, calendarID, parts[2])
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listEvents handles GET /calendars/{calendarId}/events.
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request, calendarID string) {
	s.mu.Lock()
	s.calls["list"]++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := r.URL.Query()
	timeMin := query.Get("timeMin")
	timeMax := query.Get("timeMax")
	q := strings.ToLower(query.Get("q"))

	var events []*calendar.Event
	for _, evt := range s.events[calendarID] {
		if !withinWindow(evt, timeMin, timeMax) {
			continue
		}
		if q != "" && !matchesQuery(evt, q) {
			continue
		}
		events = append(events, evt)
	}

	if query.Get("orderBy") == "startTime" && query.Get("singleEvents") == "true" {
		sort.Slice(events, func(i, j int) bool {
			return startKey(events[i]) < startKey(events[j])
		})
	}

	if maxStr := query.Get("maxResults"); maxStr != "" {
		if max, err := strconv.Atoi(maxStr); err == nil && max < len(events) {
			events = events[:max]
		}
	}

	writeJSON(w, &calendar.Events{
		Kind:    "calendar#events",
		Summary: calendarID,
		Items:   events,
	})
}

// insertEvent handles POST /calendars/{calendarId}/events.
func (s *Server) insertEvent(w http.ResponseWriter, r *http.Request, calendarID string) {
	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeAPIError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["insert"]++

	event.Id = fmt.Sprintf("event%d", s.nextID)
	s.nextID++

	event.Status = "confirmed"
	event.Created = time.Now().Format(time.RFC3339)
	event.Updated = event.Created
	event.HtmlLink = fmt.Sprintf("https://calendar.google.com/event?eid=%s", event.Id)

	if s.events[calendarID] == nil {
		s.events[calendarID] = make(map[string]*calendar.Event)
	}
	s.events[calendarID][event.Id] = &event

	writeJSON(w, &event)
}

// getEvent handles GET /calendars/{calendarId}/events/{eventId}.
func (s *Server) getEvent(w http.ResponseWriter, calendarID, eventID string) {
	s.mu.Lock()
	s.calls["get"]++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	event := s.events[calendarID][eventID]
	if event == nil {
		writeAPIError(w, http.StatusNotFound, "event not found")
		return
	}

	writeJSON(w, event)
}

// updateEvent handles PUT/PATCH /calendars/{calendarId}/events/{eventId}.
func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, calendarID, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["update"]++

	existing := s.events[calendarID][eventID]
	if existing == nil {
		writeAPIError(w, http.StatusNotFound, "event not found")
		return
	}

	var updates calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeAPIError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	updates.Id = eventID
	updates.Created = existing.Created
	updates.Updated = time.Now().Format(time.RFC3339)
	updates.HtmlLink = existing.HtmlLink

	s.events[calendarID][eventID] = &updates

	writeJSON(w, &updates)
}

// deleteEvent handles DELETE /calendars/{calendarId}/events/{eventId}.
func (s *Server) deleteEvent(w http.ResponseWriter, calendarID, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["delete"]++

	if s.events[calendarID][eventID] == nil {
		writeAPIError(w, http.StatusNotFound, "event not found")
		return
	}

	delete(s.events[calendarID], eventID)
	w.WriteHeader(http.StatusNoContent)
}

// withinWindow filters on the event start, comparing whichever of
// dateTime/date is present. The window is half-open: an event starting
// exactly at timeMax is excluded.
func withinWindow(evt *calendar.Event, timeMin, timeMax string) bool {
	key := startKey(evt)
	if key == "" {
		return true
	}

	if timeMin != "" && key < normalizeBound(timeMin, key) {
		return false
	}
	if timeMax != "" && key >= normalizeBound(timeMax, key) {
		return false
	}
	return true
}

// normalizeBound truncates an RFC3339 bound to date-only form when the event
// key is date-only, so all-day events compare lexically against the window.
func normalizeBound(bound, key string) string {
	if len(key) == len("2006-01-02") && len(bound) > len("2006-01-02") {
		return bound[:len("2006-01-02")]
	}
	return bound
}

// matchesQuery implements free-text q matching over summary, description and
// location, case-insensitively.
func matchesQuery(evt *calendar.Event, q string) bool {
	for _, field := range []string{evt.Summary, evt.Description, evt.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func startKey(evt *calendar.Event) string {
	if evt.Start == nil {
		return ""
	}
	if evt.Start.DateTime != "" {
		return evt.Start.DateTime
	}
	return evt.Start.Date
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError emits the Google API error envelope so client libraries
// surface the status code and message.
func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

// Reset clears all events and call counters.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string]map[string]*calendar.Event)
	s.calls = make(map[string]int)
	s.nextID = 1
}

// Calls returns how many requests the given operation has served
// (list, insert, get, update, delete).
func (s *Server) Calls(operation string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[operation]
}

// TotalCalls returns the total number of event requests served.
func (s *Server) TotalCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Events returns all stored events for a calendar, for test assertions.
func (s *Server) Events(calendarID string) []*calendar.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*calendar.Event
	for _, evt := range s.events[calendarID] {
		events = append(events, evt)
	}
	return events
}

// Event returns a single stored event by ID, or nil.
func (s *Server) Event(calendarID, eventID string) *calendar.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events[calendarID][eventID]
}

// AddEvent stores a pre-configured event, assigning an ID when absent.
func (s *Server) AddEvent(calendarID string, event *calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Id == "" {
		event.Id = fmt.Sprintf("event%d", s.nextID)
		s.nextID++
	}

	if s.events[calendarID] == nil {
		s.events[calendarID] = make(map[string]*calendar.Event)
	}
	s.events[calendarID][event.Id] = event
}
